// summary.go
package groupcore

import "fmt"

// SummaryBuilder composes a SessionSummary from the current participant
// list and a caller-supplied itinerary snapshot. It is the
// only place share_url is computed, by a deterministic template over
// session_id.
type SummaryBuilder struct {
	clock         Clock
	shareURLBase  string
}

// NewSummaryBuilder builds a SummaryBuilder. shareURLBase is prefixed to
// the session id to form share_url, e.g. "https://plan.example/s/".
func NewSummaryBuilder(clock Clock, shareURLBase string) *SummaryBuilder {
	return &SummaryBuilder{clock: clock, shareURLBase: shareURLBase}
}

// Build assembles a SessionSummary. itinerary must already be the
// chronologically sorted itinerary at the moment of finalization (the
// Coordinator is responsible for that ordering).
func (b *SummaryBuilder) Build(s *Session, participants []Participant, itinerary []ItineraryItem) SessionSummary {
	return SessionSummary{
		SessionID:    s.ID,
		SessionName:  s.Name,
		FinalizedAt:  s.UpdatedAt,
		Participants: participants,
		Itinerary:    itinerary,
		ShareURL:     b.shareURL(s.ID),
	}
}

func (b *SummaryBuilder) shareURL(sessionID string) string {
	return fmt.Sprintf("%s%s", b.shareURLBase, sessionID)
}
