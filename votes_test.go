package groupcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestVoteEngine() (*VoteEngine, *MemStore) {
	store := NewMemStore()
	clock := NewFixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ids := &SequentialIDGenerator{Prefix: "venue"}
	return NewVoteEngine(store, clock, ids), store
}

func TestCastVoteUpsertsRatherThanDuplicating(t *testing.T) {
	e, _ := newTestVoteEngine()
	venue, err := e.AddVenue("s1", "place-1", "Diner", "Main St", "p1", nil, nil, nil)
	require.NoError(t, err)

	_, err = e.CastVote("s1", venue.ID, "p1", Upvote)
	require.NoError(t, err)
	_, err = e.CastVote("s1", venue.ID, "p1", Downvote)
	require.NoError(t, err)

	tally, err := e.Tally("s1", venue.ID)
	require.NoError(t, err)
	require.Equal(t, 0, tally.Upvotes)
	require.Equal(t, 1, tally.Downvotes)
	require.Equal(t, 1, tally.Total)
}

func TestCastVoteRejectsUnknownVenue(t *testing.T) {
	e, _ := newTestVoteEngine()
	_, err := e.CastVote("s1", "nope", "p1", Upvote)
	require.Error(t, err)
	require.Equal(t, KindVenueNotFound, KindOf(err))
}

func TestRankVenuesAssignsCompetitionRanksWithTies(t *testing.T) {
	e, _ := newTestVoteEngine()
	a, err := e.AddVenue("s1", "place-a", "A", "", "p1", nil, nil, nil)
	require.NoError(t, err)
	b, err := e.AddVenue("s1", "place-b", "B", "", "p1", nil, nil, nil)
	require.NoError(t, err)
	c, err := e.AddVenue("s1", "place-c", "C", "", "p1", nil, nil, nil)
	require.NoError(t, err)

	// a and b both end up net_score=1 (tied for rank 1), c net_score=0 (rank 3).
	_, err = e.CastVote("s1", a.ID, "p1", Upvote)
	require.NoError(t, err)
	_, err = e.CastVote("s1", b.ID, "p2", Upvote)
	require.NoError(t, err)
	_, err = e.CastVote("s1", c.ID, "p1", Neutral)
	require.NoError(t, err)

	ranked, err := e.RankVenues("s1")
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	byID := make(map[string]RankedVenue, 3)
	for _, r := range ranked {
		byID[r.Venue.ID] = r
	}
	require.Equal(t, 1, byID[a.ID].Rank)
	require.True(t, byID[a.ID].IsTied)
	require.Equal(t, 1, byID[b.ID].Rank)
	require.True(t, byID[b.ID].IsTied)
	require.Equal(t, 3, byID[c.ID].Rank)
	require.False(t, byID[c.ID].IsTied)
}

func TestAddVenueValidatesRatingAndPriceLevel(t *testing.T) {
	e, _ := newTestVoteEngine()
	badRating := 7.0
	_, err := e.AddVenue("s1", "place-1", "X", "", "p1", &badRating, nil, nil)
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))

	badPrice := 9
	_, err = e.AddVenue("s1", "place-1", "X", "", "p1", nil, &badPrice, nil)
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
}
