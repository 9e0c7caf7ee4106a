// votes.go
package groupcore

import "sort"

// VoteEngine owns the venue catalog and per-(venue, participant) vote
// upserts, plus tally/ranking computation.
type VoteEngine struct {
	store Store
	clock Clock
	ids   IDGenerator
}

// NewVoteEngine builds a VoteEngine over the given collaborators.
func NewVoteEngine(store Store, clock Clock, ids IDGenerator) *VoteEngine {
	return &VoteEngine{store: store, clock: clock, ids: ids}
}

// AddVenue adds a candidate venue to a session's catalog.
func (e *VoteEngine) AddVenue(sessionID, placeID, name, address, suggestedBy string, rating *float64, priceLevel *int, photoURL *string) (*VenueOption, error) {
	if placeID == "" {
		return nil, newErr(KindValidation, "place_id is required")
	}
	if name == "" {
		return nil, newErr(KindValidation, "name is required")
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return nil, newErr(KindValidation, "rating must be in [0,5]").withDetails("rating", *rating)
	}
	if priceLevel != nil && (*priceLevel < 0 || *priceLevel > 4) {
		return nil, newErr(KindValidation, "price_level must be in [0,4]").withDetails("price_level", *priceLevel)
	}
	v := &VenueOption{
		ID:          e.ids.NewID(),
		SessionID:   sessionID,
		PlaceID:     placeID,
		Name:        name,
		Address:     address,
		Rating:      rating,
		PriceLevel:  priceLevel,
		PhotoURL:    photoURL,
		SuggestedAt: e.clock.Now(),
		SuggestedBy: suggestedBy,
	}
	if err := e.store.AddVenue(v); err != nil {
		return nil, wrapStorage(err, "add venue")
	}
	return v, nil
}

// GetVenues returns all venues for a session, in no particular order.
func (e *VoteEngine) GetVenues(sessionID string) ([]VenueOption, error) {
	venues, err := e.store.GetVenues(sessionID)
	if err != nil {
		return nil, wrapStorage(err, "get venues")
	}
	return venues, nil
}

// getVenue resolves a venue or returns a VenueNotFound error.
func (e *VoteEngine) getVenue(sessionID, venueID string) (*VenueOption, error) {
	v, err := e.store.GetVenue(sessionID, venueID)
	if err != nil {
		return nil, wrapStorage(err, "get venue")
	}
	if v == nil {
		return nil, newErr(KindVenueNotFound, "venue %s not found in session %s", venueID, sessionID).
			withDetails("session_id", sessionID, "venue_id", venueID)
	}
	return v, nil
}

// CastVote upserts a participant's vote on a venue: creates it on first
// cast, updates vote_type/updated_at on recast. Exactly one Vote per
// (venue, participant) ever exists.
func (e *VoteEngine) CastVote(sessionID, venueID, participantID string, voteType VoteType) (*Vote, error) {
	switch voteType {
	case Upvote, Downvote, Neutral:
	default:
		return nil, newErr(KindValidation, "invalid vote_type %q", voteType)
	}
	if _, err := e.getVenue(sessionID, venueID); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	existing, err := e.store.GetVote(sessionID, venueID, participantID)
	if err != nil {
		return nil, wrapStorage(err, "get existing vote")
	}
	if existing != nil {
		existing.VoteType = voteType
		existing.UpdatedAt = now
		if err := e.store.UpsertVote(existing); err != nil {
			return nil, wrapStorage(err, "update vote")
		}
		return existing, nil
	}

	v := &Vote{
		ID:            e.ids.NewID(),
		SessionID:     sessionID,
		VenueID:       venueID,
		ParticipantID: participantID,
		VoteType:      voteType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.UpsertVote(v); err != nil {
		return nil, wrapStorage(err, "create vote")
	}
	return v, nil
}

// Tally computes the aggregated vote counts for one venue.
func (e *VoteEngine) Tally(sessionID, venueID string) (Tally, error) {
	votes, err := e.store.GetVotesForVenue(sessionID, venueID)
	if err != nil {
		return Tally{}, wrapStorage(err, "get votes for venue")
	}
	return tallyOf(votes), nil
}

func tallyOf(votes []Vote) Tally {
	t := Tally{Voters: make([]string, 0, len(votes))}
	for _, v := range votes {
		switch v.VoteType {
		case Upvote:
			t.Upvotes++
		case Downvote:
			t.Downvotes++
		case Neutral:
			t.Neutral++
		}
		t.Voters = append(t.Voters, v.ParticipantID)
	}
	t.NetScore = t.Upvotes - t.Downvotes
	t.Total = t.Upvotes + t.Downvotes + t.Neutral
	return t
}

// RankVenues returns every venue in a session ordered by net_score
// descending, with competition ranks (1224, not 1234) and is_tied set for
// any venue sharing its rank with another.
func (e *VoteEngine) RankVenues(sessionID string) ([]RankedVenue, error) {
	venues, err := e.store.GetVenues(sessionID)
	if err != nil {
		return nil, wrapStorage(err, "get venues")
	}
	allVotes, err := e.store.GetVotesForSession(sessionID)
	if err != nil {
		return nil, wrapStorage(err, "get votes for session")
	}
	votesByVenue := make(map[string][]Vote, len(venues))
	for _, v := range allVotes {
		votesByVenue[v.VenueID] = append(votesByVenue[v.VenueID], v)
	}

	ranked := make([]RankedVenue, 0, len(venues))
	for _, v := range venues {
		ranked = append(ranked, RankedVenue{Venue: v, Tally: tallyOf(votesByVenue[v.ID])})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Tally.NetScore > ranked[j].Tally.NetScore
	})

	rankCounts := make(map[int]int, len(ranked))
	prevScore := 0
	currentRank := 1
	for i := range ranked {
		if i > 0 && ranked[i].Tally.NetScore < prevScore {
			currentRank = i + 1
		}
		ranked[i].Rank = currentRank
		prevScore = ranked[i].Tally.NetScore
		rankCounts[currentRank]++
	}
	for i := range ranked {
		ranked[i].IsTied = rankCounts[ranked[i].Rank] > 1
	}
	return ranked, nil
}
