// store.go
package groupcore

import "time"

// Store is the abstract persistence boundary. The Coordinator and its
// owning components depend only on this interface; SQLStore and MemStore
// provide concrete, swappable implementations. The Store itself must be
// safe for concurrent use — the per-session lock serializes mutations to a
// given session, but reads and sessions other than the locked one may
// still call concurrently.
type Store interface {
	// Sessions
	CreateSession(s *Session) error
	GetSession(id string) (*Session, error)
	GetSessionByTokenHash(tokenHash string) (*Session, error)
	UpdateSession(s *Session) error
	ListSessionsOlderThan(cutoff time.Time, exclude SessionStatus) ([]Session, error)

	// Participants
	AddParticipant(p *Participant) error
	GetParticipants(sessionID string) ([]Participant, error)

	// Venues
	AddVenue(v *VenueOption) error
	GetVenue(sessionID, venueID string) (*VenueOption, error)
	GetVenues(sessionID string) ([]VenueOption, error)

	// Votes
	UpsertVote(v *Vote) error
	GetVote(sessionID, venueID, participantID string) (*Vote, error)
	GetVotesForVenue(sessionID, venueID string) ([]Vote, error)
	GetVotesForSession(sessionID string) ([]Vote, error)

	// Itinerary
	GetItinerary(sessionID string) ([]ItineraryItem, error)
	ReplaceItinerary(sessionID string, items []ItineraryItem) error

	// Comments
	AddComment(c *Comment) error
	GetComments(sessionID, venueID string) ([]Comment, error)
	GetParticipantComments(sessionID, participantID string) ([]Comment, error)
}
