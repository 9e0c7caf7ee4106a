package groupcore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *MemStore, *FixedClock) {
	t.Helper()
	store := NewMemStore()
	clock := NewFixedClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ids := &SequentialIDGenerator{Prefix: "id"}
	tokens := CryptoTokenGenerator{}
	hub := NewBroadcastHub()
	c := NewCoordinator(store, clock, ids, tokens, hub, "https://plan.example/s/")
	return c, store, clock
}

func TestCreateAndJoinSession(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, token, err := c.CreateSession(ctx, "organizer-1", "Rooftop party", 48)
	require.NoError(t, err)
	require.Equal(t, StatusActive, s.Status)
	require.NotEmpty(t, token)

	participant, err := c.JoinSession(ctx, token, "Dana", "")
	require.NoError(t, err)
	require.False(t, participant.IsOrganizer)

	got, err := c.GetSession(s.ID)
	require.NoError(t, err)
	require.Contains(t, got.ParticipantIDs, participant.ID)
}

func TestJoinSessionAfterRevoke(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, token, err := c.CreateSession(ctx, "organizer-1", "Trivia night", 24)
	require.NoError(t, err)

	require.NoError(t, c.RevokeInvite(ctx, s.ID, "organizer-1"))

	_, err = c.JoinSession(ctx, token, "Late Larry", "")
	require.Error(t, err)
	require.Equal(t, KindRevoked, KindOf(err))
}

func TestFinalizeSessionRequiresOrganizer(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, _, err := c.CreateSession(ctx, "organizer-1", "Book club", 24)
	require.NoError(t, err)

	_, err = c.FinalizeSession(ctx, s.ID, "not-the-organizer")
	require.Error(t, err)
	require.Equal(t, KindNotOrganizer, KindOf(err))

	summary, err := c.FinalizeSession(ctx, s.ID, "organizer-1")
	require.NoError(t, err)
	require.Equal(t, s.ID, summary.SessionID)
	require.NotEmpty(t, summary.ShareURL)
}

func TestMutationsRejectedOnceFinalized(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, _, err := c.CreateSession(ctx, "organizer-1", "Game night", 24)
	require.NoError(t, err)
	_, err = c.FinalizeSession(ctx, s.ID, "organizer-1")
	require.NoError(t, err)

	_, err = c.AddVenue(ctx, s.ID, "place-1", "Arcade", "123 Main St", "organizer-1", nil, nil, nil)
	require.Error(t, err)
	require.Equal(t, KindFinalized, KindOf(err))
}

func TestArchiveInactiveSweepsStaleSessionsOnly(t *testing.T) {
	c, _, clock := newTestCoordinator(t)
	ctx := context.Background()

	stale, _, err := c.CreateSession(ctx, "organizer-1", "Old plan", 24)
	require.NoError(t, err)

	clock.Advance(10 * 24 * time.Hour)

	fresh, _, err := c.CreateSession(ctx, "organizer-2", "New plan", 24)
	require.NoError(t, err)

	n, err := c.ArchiveInactive(ctx, 5*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	staleSession, err := c.GetSession(stale.ID)
	require.NoError(t, err)
	require.Equal(t, StatusArchived, staleSession.Status)

	freshSession, err := c.GetSession(fresh.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, freshSession.Status)
}

func TestSessionStateComposesFullSnapshot(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, _, err := c.CreateSession(ctx, "organizer-1", "Picnic", 24)
	require.NoError(t, err)

	venue, err := c.AddVenue(ctx, s.ID, "place-1", "Lakeside Park", "1 Lake Rd", "organizer-1", nil, nil, nil)
	require.NoError(t, err)

	_, err = c.CastVote(ctx, s.ID, venue.ID, "organizer-1", Upvote)
	require.NoError(t, err)

	state, err := c.SessionState(s.ID)
	require.NoError(t, err)
	require.Len(t, state.Venues, 1)
	require.Equal(t, 1, state.Tallies[venue.ID].Upvotes)
}
