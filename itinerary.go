// itinerary.go
package groupcore

import (
	"sort"
	"time"
)

// ItineraryBook is the ordered collection of (venue, scheduled_time) items
// for a session, re-indexed to a contiguous [0, N) permutation after every
// structural change.
type ItineraryBook struct {
	store Store
	clock Clock
	ids   IDGenerator
}

// NewItineraryBook builds an ItineraryBook over the given collaborators.
func NewItineraryBook(store Store, clock Clock, ids IDGenerator) *ItineraryBook {
	return &ItineraryBook{store: store, clock: clock, ids: ids}
}

// reindex sorts items by ScheduledTime ascending, stable-tiebreaking on
// AddedAt, and assigns Order = 0..N-1 in that sequence.
func reindex(items []ItineraryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ScheduledTime.Equal(items[j].ScheduledTime) {
			return items[i].ScheduledTime.Before(items[j].ScheduledTime)
		}
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	for i := range items {
		items[i].Order = i
	}
}

// AddToItinerary inserts a new item and re-indexes the whole session.
func (b *ItineraryBook) AddToItinerary(sessionID, venueID string, scheduledTime time.Time, addedBy string) (*ItineraryItem, error) {
	if venueID == "" {
		return nil, newErr(KindValidation, "venue_id is required")
	}
	existing, err := b.store.GetItinerary(sessionID)
	if err != nil {
		return nil, wrapStorage(err, "get itinerary")
	}

	item := ItineraryItem{
		ID:            b.ids.NewID(),
		SessionID:     sessionID,
		VenueID:       venueID,
		ScheduledTime: scheduledTime,
		AddedAt:       b.clock.Now(),
		AddedBy:       addedBy,
	}
	all := append(existing, item)
	reindex(all)
	if err := b.store.ReplaceItinerary(sessionID, all); err != nil {
		return nil, wrapStorage(err, "replace itinerary")
	}

	for i := range all {
		if all[i].ID == item.ID {
			return &all[i], nil
		}
	}
	return &item, nil
}

// RemoveFromItinerary deletes an item and re-indexes the remainder.
func (b *ItineraryBook) RemoveFromItinerary(sessionID, itemID string) error {
	existing, err := b.store.GetItinerary(sessionID)
	if err != nil {
		return wrapStorage(err, "get itinerary")
	}
	idx := -1
	for i, it := range existing {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return newErr(KindItemNotFound, "itinerary item %s not found in session %s", itemID, sessionID).
			withDetails("session_id", sessionID, "item_id", itemID)
	}
	remaining := append(existing[:idx], existing[idx+1:]...)
	reindex(remaining)
	if err := b.store.ReplaceItinerary(sessionID, remaining); err != nil {
		return wrapStorage(err, "replace itinerary")
	}
	return nil
}

// GetItinerary returns all items sorted by scheduled_time ascending.
func (b *ItineraryBook) GetItinerary(sessionID string) ([]ItineraryItem, error) {
	items, err := b.store.GetItinerary(sessionID)
	if err != nil {
		return nil, wrapStorage(err, "get itinerary")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ScheduledTime.Before(items[j].ScheduledTime)
	})
	return items, nil
}

// Reorder assigns Order equal to the position of each id in itemIDs. The
// multiset of itemIDs must exactly match the session's current item set.
// This manual order is advisory: the next AddToItinerary/RemoveFromItinerary
// overwrites it via re-index.
func (b *ItineraryBook) Reorder(sessionID string, itemIDs []string) ([]ItineraryItem, error) {
	existing, err := b.store.GetItinerary(sessionID)
	if err != nil {
		return nil, wrapStorage(err, "get itinerary")
	}
	if len(itemIDs) != len(existing) {
		return nil, newErr(KindValidation, "item_ids must match the current item set exactly").
			withDetails("expected", len(existing), "got", len(itemIDs))
	}
	byID := make(map[string]*ItineraryItem, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}
	ordered := make([]ItineraryItem, 0, len(itemIDs))
	seen := make(map[string]bool, len(itemIDs))
	for pos, id := range itemIDs {
		item, ok := byID[id]
		if !ok || seen[id] {
			return nil, newErr(KindValidation, "item_ids must match the current item set exactly").
				withDetails("unknown_or_duplicate_id", id)
		}
		seen[id] = true
		item.Order = pos
		ordered = append(ordered, *item)
	}
	if err := b.store.ReplaceItinerary(sessionID, ordered); err != nil {
		return nil, wrapStorage(err, "replace itinerary")
	}
	return ordered, nil
}
