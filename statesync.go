// statesync.go
package groupcore

// StateSync assembles a full-session SessionState snapshot consumed by
// BroadcastHub on join/reconnect. It performs only reads;
// the Coordinator is responsible for holding the per-session lock around
// the call so the snapshot observes no partial write from a concurrent
// mutation.
type StateSync struct {
	registry   *SessionRegistry
	votes      *VoteEngine
	itinerary  *ItineraryBook
	comments   *CommentLog
}

// NewStateSync builds a StateSync over the other components.
func NewStateSync(registry *SessionRegistry, votes *VoteEngine, itinerary *ItineraryBook, comments *CommentLog) *StateSync {
	return &StateSync{registry: registry, votes: votes, itinerary: itinerary, comments: comments}
}

// Compose builds the SessionState for sessionID by reading through every
// owning component.
func (s *StateSync) Compose(sessionID string) (SessionState, error) {
	session, err := s.registry.GetSession(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	participants, err := s.registry.store.GetParticipants(sessionID)
	if err != nil {
		return SessionState{}, wrapStorage(err, "get participants")
	}
	venues, err := s.votes.GetVenues(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	itinerary, err := s.itinerary.GetItinerary(sessionID)
	if err != nil {
		return SessionState{}, err
	}

	tallies := make(map[string]Tally, len(venues))
	comments := make(map[string][]Comment, len(venues))
	for _, v := range venues {
		t, err := s.votes.Tally(sessionID, v.ID)
		if err != nil {
			return SessionState{}, err
		}
		tallies[v.ID] = t
		c, err := s.comments.GetComments(sessionID, v.ID)
		if err != nil {
			return SessionState{}, err
		}
		comments[v.ID] = c
	}

	return SessionState{
		SessionID:    sessionID,
		Status:       session.Status,
		Participants: participants,
		Venues:       venues,
		Itinerary:    itinerary,
		Tallies:      tallies,
		Comments:     comments,
	}, nil
}
