// registry.go
package groupcore

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	maxSessionNameLen  = 200
	maxDisplayNameLen  = 50
	minExpiryHours     = 1
	maxExpiryHours     = 168
)

// SessionRegistry owns Session and Participant lifecycle: token issuance,
// invite validation, organizer-only mutations, and finalization.
type SessionRegistry struct {
	store  Store
	clock  Clock
	ids    IDGenerator
	tokens TokenGenerator
}

// NewSessionRegistry builds a SessionRegistry over the given collaborators.
func NewSessionRegistry(store Store, clock Clock, ids IDGenerator, tokens TokenGenerator) *SessionRegistry {
	return &SessionRegistry{store: store, clock: clock, ids: ids, tokens: tokens}
}

// CreateSession creates a new Session with the organizer as its first
// Participant and returns the raw invite token alongside the Session (the
// Session itself only ever holds the token's hash, per tokenhash.go).
func (r *SessionRegistry) CreateSession(organizerID, name string, expiryHours int) (*Session, string, error) {
	if organizerID == "" {
		return nil, "", newErr(KindValidation, "organizer_id is required")
	}
	if name == "" || utf8.RuneCountInString(name) > maxSessionNameLen {
		return nil, "", newErr(KindValidation, "name must be 1..%d chars", maxSessionNameLen).withDetails("limit", maxSessionNameLen)
	}
	if expiryHours < minExpiryHours || expiryHours > maxExpiryHours {
		return nil, "", newErr(KindValidation, "expiry_hours must be %d..%d", minExpiryHours, maxExpiryHours).
			withDetails("min", minExpiryHours, "max", maxExpiryHours)
	}

	token, err := r.tokens.NewToken()
	if err != nil {
		return nil, "", wrapStorage(err, "generate invite token")
	}

	now := r.clock.Now()
	s := &Session{
		ID:              r.ids.NewID(),
		Name:            name,
		OrganizerID:     organizerID,
		InviteTokenHash: hashInviteToken(token),
		InviteExpiresAt: now.Add(time.Duration(expiryHours) * time.Hour),
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
		ParticipantIDs:  []string{organizerID},
	}
	if err := r.store.CreateSession(s); err != nil {
		return nil, "", wrapStorage(err, "create session")
	}

	organizer := &Participant{
		ID:          organizerID,
		SessionID:   s.ID,
		DisplayName: organizerDisplayName(organizerID),
		JoinedAt:    now,
		IsOrganizer: true,
	}
	if err := r.store.AddParticipant(organizer); err != nil {
		return nil, "", wrapStorage(err, "add organizer participant")
	}
	return s, token, nil
}

// organizerDisplayName derives a placeholder name for the organizer's own
// Participant row, since CreateSession's public signature only takes an
// opaque organizer_id and not a separate display name for that first
// Participant.
func organizerDisplayName(organizerID string) string {
	n := len(organizerID)
	if n > 8 {
		n = 8
	}
	return "Organizer-" + organizerID[:n]
}

// GetSession looks up a Session by id.
func (r *SessionRegistry) GetSession(id string) (*Session, error) {
	s, err := r.store.GetSession(id)
	if err != nil {
		return nil, wrapStorage(err, "get session")
	}
	if s == nil {
		return nil, newErr(KindNotFound, "session %s not found", id).withDetails("session_id", id)
	}
	return s, nil
}

// GetSessionByToken resolves a raw invite token to its Session.
func (r *SessionRegistry) GetSessionByToken(token string) (*Session, error) {
	s, err := r.store.GetSessionByTokenHash(hashInviteToken(token))
	if err != nil {
		return nil, wrapStorage(err, "get session by token")
	}
	if s == nil {
		return nil, newErr(KindNotFound, "invite token not recognized")
	}
	return s, nil
}

// JoinSession validates the invite token and appends a new Participant.
func (r *SessionRegistry) JoinSession(token, displayName string, participantID string) (*Participant, error) {
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return nil, newErr(KindValidation, "display_name must be 1..%d chars", maxDisplayNameLen).withDetails("limit", maxDisplayNameLen)
	}

	s, err := r.GetSessionByToken(token)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	if now.After(s.InviteExpiresAt) {
		return nil, newErr(KindExpired, "invite expired at %s", s.InviteExpiresAt).withDetails("session_id", s.ID)
	}
	if s.InviteRevoked {
		return nil, newErr(KindRevoked, "invite has been revoked").withDetails("session_id", s.ID)
	}
	if s.Status != StatusActive {
		return nil, newErr(KindFinalized, "session %s is not active", s.ID).withDetails("session_id", s.ID, "status", s.Status)
	}

	if participantID != "" {
		for _, existing := range s.ParticipantIDs {
			if existing == participantID {
				return nil, newErr(KindDuplicate, "participant %s already joined", participantID).withDetails("participant_id", participantID)
			}
		}
	} else {
		participantID = r.ids.NewID()
	}

	p := &Participant{
		ID:          participantID,
		SessionID:   s.ID,
		DisplayName: displayName,
		JoinedAt:    now,
		IsOrganizer: false,
	}
	if err := r.store.AddParticipant(p); err != nil {
		return nil, wrapStorage(err, "add participant")
	}

	s.ParticipantIDs = append(s.ParticipantIDs, participantID)
	s.UpdatedAt = now
	if err := r.store.UpdateSession(s); err != nil {
		return nil, wrapStorage(err, "update session after join")
	}
	return p, nil
}

// RevokeInvite marks a Session's invite as revoked. Existing participants
// are preserved verbatim.
func (r *SessionRegistry) RevokeInvite(sessionID, callerID string) error {
	s, err := r.GetSession(sessionID)
	if err != nil {
		return err
	}
	if callerID != s.OrganizerID {
		return newErr(KindNotOrganizer, "only the organizer may revoke the invite").withDetails("session_id", sessionID)
	}
	s.InviteRevoked = true
	s.UpdatedAt = r.clock.Now()
	if err := r.store.UpdateSession(s); err != nil {
		return wrapStorage(err, "revoke invite")
	}
	return nil
}

// FinalizeSession transitions a Session to Finalized and returns a fresh
// *Session reflecting that transition; the caller (Coordinator) is
// responsible for composing the SessionSummary via SummaryBuilder, since
// the itinerary snapshot crosses component boundaries.
func (r *SessionRegistry) FinalizeSession(sessionID, callerID string) (*Session, error) {
	s, err := r.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if callerID != s.OrganizerID {
		return nil, newErr(KindNotOrganizer, "only the organizer may finalize the session").withDetails("session_id", sessionID)
	}
	if s.Status != StatusActive {
		return nil, newErr(KindFinalized, "session %s is already finalized or archived", sessionID).withDetails("session_id", sessionID, "status", s.Status)
	}
	s.Status = StatusFinalized
	s.UpdatedAt = r.clock.Now()
	if err := r.store.UpdateSession(s); err != nil {
		return nil, wrapStorage(err, "finalize session")
	}
	return s, nil
}

// listStaleSessions returns the ids of every Session whose UpdatedAt is
// older than cutoff, for the Coordinator to re-check and archive one at a
// time under each session's own lock.
func (r *SessionRegistry) listStaleSessions(cutoff time.Time) ([]string, error) {
	stale, err := r.store.ListSessionsOlderThan(cutoff, StatusArchived)
	if err != nil {
		return nil, wrapStorage(err, "list stale sessions")
	}
	ids := make([]string, len(stale))
	for i := range stale {
		ids[i] = stale[i].ID
	}
	return ids, nil
}

// archiveIfStale re-fetches sessionID and archives it only if it is still
// non-archived and still older than cutoff. Callers must hold sessionID's
// lock, so this never races a concurrent mutation on the same session.
func (r *SessionRegistry) archiveIfStale(sessionID string, cutoff time.Time) (bool, error) {
	s, err := r.store.GetSession(sessionID)
	if err != nil {
		return false, wrapStorage(err, "get session")
	}
	if s == nil || s.Status == StatusArchived || !s.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	s.Status = StatusArchived
	s.UpdatedAt = r.clock.Now()
	if err := r.store.UpdateSession(s); err != nil {
		return false, wrapStorage(err, fmt.Sprintf("archive session %s", sessionID))
	}
	return true, nil
}

// requireActive is a guard shared by the Coordinator before delegating a
// mutation to VoteEngine/ItineraryBook/CommentLog.
func requireActive(s *Session) error {
	switch s.Status {
	case StatusFinalized, StatusArchived:
		return newErr(KindFinalized, "session %s is not active", s.ID).withDetails("session_id", s.ID, "status", s.Status)
	}
	return nil
}
