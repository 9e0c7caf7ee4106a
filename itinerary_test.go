package groupcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestItineraryBook() (*ItineraryBook, *FixedClock) {
	store := NewMemStore()
	clock := NewFixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ids := &SequentialIDGenerator{Prefix: "item"}
	return NewItineraryBook(store, clock, ids), clock
}

func TestAddToItineraryReindexesByScheduledTime(t *testing.T) {
	b, clock := newTestItineraryBook()
	base := clock.Now()

	late, err := b.AddToItinerary("s1", "venue-late", base.Add(3*time.Hour), "p1")
	require.NoError(t, err)
	require.Equal(t, 0, late.Order)

	early, err := b.AddToItinerary("s1", "venue-early", base.Add(1*time.Hour), "p1")
	require.NoError(t, err)
	require.Equal(t, 0, early.Order)

	items, err := b.GetItinerary("s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "venue-early", items[0].VenueID)
	require.Equal(t, 0, items[0].Order)
	require.Equal(t, "venue-late", items[1].VenueID)
	require.Equal(t, 1, items[1].Order)
}

func TestRemoveFromItineraryKeepsOrderContiguous(t *testing.T) {
	b, clock := newTestItineraryBook()
	base := clock.Now()

	first, err := b.AddToItinerary("s1", "v1", base, "p1")
	require.NoError(t, err)
	_, err = b.AddToItinerary("s1", "v2", base.Add(time.Hour), "p1")
	require.NoError(t, err)
	third, err := b.AddToItinerary("s1", "v3", base.Add(2*time.Hour), "p1")
	require.NoError(t, err)

	require.NoError(t, b.RemoveFromItinerary("s1", first.ID))

	items, err := b.GetItinerary("s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 0, items[0].Order)
	require.Equal(t, "v2", items[0].VenueID)
	require.Equal(t, 1, items[1].Order)
	require.Equal(t, third.ID, items[1].ID)
}

func TestRemoveFromItineraryUnknownItem(t *testing.T) {
	b, _ := newTestItineraryBook()
	err := b.RemoveFromItinerary("s1", "nope")
	require.Error(t, err)
	require.Equal(t, KindItemNotFound, KindOf(err))
}

func TestReorderRejectsMismatchedItemSet(t *testing.T) {
	b, clock := newTestItineraryBook()
	base := clock.Now()

	_, err := b.AddToItinerary("s1", "v1", base, "p1")
	require.NoError(t, err)
	_, err = b.AddToItinerary("s1", "v2", base.Add(time.Hour), "p1")
	require.NoError(t, err)

	_, err = b.Reorder("s1", []string{"only-one-id"})
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
}

func TestReorderAppliesRequestedOrder(t *testing.T) {
	b, clock := newTestItineraryBook()
	base := clock.Now()

	first, err := b.AddToItinerary("s1", "v1", base, "p1")
	require.NoError(t, err)
	second, err := b.AddToItinerary("s1", "v2", base.Add(time.Hour), "p1")
	require.NoError(t, err)

	ordered, err := b.Reorder("s1", []string{second.ID, first.ID})
	require.NoError(t, err)
	require.Equal(t, second.ID, ordered[0].ID)
	require.Equal(t, 0, ordered[0].Order)
	require.Equal(t, first.ID, ordered[1].ID)
	require.Equal(t, 1, ordered[1].Order)
}
