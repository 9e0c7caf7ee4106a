// coordinator.go
package groupcore

import (
	"context"
	"time"
)

// Coordinator is the single public entry point. Every mutating operation
// acquires the per-session lock, rechecks the lifecycle gate, delegates to
// the owning component, records an audit entry, and hands the emitted
// event to BroadcastHub after the lock is released.
type Coordinator struct {
	registry  *SessionRegistry
	votes     *VoteEngine
	itinerary *ItineraryBook
	comments  *CommentLog
	hub       *BroadcastHub
	summary   *SummaryBuilder
	sync      *StateSync
	clock     Clock
	locks     *sessionLocks
}

// NewCoordinator composes the core from its components. This is the single
// composition root the whole module is built from.
func NewCoordinator(store Store, clock Clock, ids IDGenerator, tokens TokenGenerator, hub *BroadcastHub, shareURLBase string) *Coordinator {
	registry := NewSessionRegistry(store, clock, ids, tokens)
	votes := NewVoteEngine(store, clock, ids)
	itinerary := NewItineraryBook(store, clock, ids)
	comments := NewCommentLog(store, clock, ids)
	return &Coordinator{
		registry:  registry,
		votes:     votes,
		itinerary: itinerary,
		comments:  comments,
		hub:       hub,
		summary:   NewSummaryBuilder(clock, shareURLBase),
		sync:      NewStateSync(registry, votes, itinerary, comments),
		clock:     clock,
		locks:     newSessionLocks(),
	}
}

// --- lifecycle ---

// CreateSession has no existing session to lock; it only ever creates one.
func (c *Coordinator) CreateSession(ctx context.Context, organizerID, name string, expiryHours int) (*Session, string, error) {
	s, token, err := c.registry.CreateSession(organizerID, name, expiryHours)
	if err != nil {
		return nil, "", err
	}
	RecordAudit(ctx, AuditLevelInfo, s.ID, organizerID, "registry", "create_session", "session created", map[string]any{"name": name, "expiry_hours": expiryHours})
	return s, token, nil
}

// GetSession is a read and needs no lock.
func (c *Coordinator) GetSession(id string) (*Session, error) {
	return c.registry.GetSession(id)
}

// JoinSession resolves the session behind token, then performs the actual
// join under that session's lock so it is linearized with every other
// mutation on the same session.
func (c *Coordinator) JoinSession(ctx context.Context, token, displayName, participantID string) (*Participant, error) {
	s, err := c.registry.GetSessionByToken(token)
	if err != nil {
		return nil, err
	}

	var participant *Participant
	var joinErr error
	_ = c.locks.withLock(s.ID, func() error {
		participant, joinErr = c.registry.JoinSession(token, displayName, participantID)
		return nil
	})
	if joinErr != nil {
		return nil, joinErr
	}
	RecordAudit(ctx, AuditLevelInfo, s.ID, participant.ID, "registry", "join_session", "participant joined", map[string]any{"display_name": displayName})
	c.hub.Broadcast(s.ID, Event{
		EventType:     EventParticipantJoined,
		SessionID:     s.ID,
		Timestamp:     c.clock.Now(),
		Data:          participant,
		ParticipantID: participant.ID,
	})
	return participant, nil
}

// RevokeInvite has its own policy (organizer-only, no Active requirement).
func (c *Coordinator) RevokeInvite(ctx context.Context, sessionID, callerID string) error {
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		err = c.registry.RevokeInvite(sessionID, callerID)
		return nil
	})
	if err != nil {
		return err
	}
	RecordAudit(ctx, AuditLevelWarn, sessionID, callerID, "registry", "revoke_invite", "invite revoked", nil)
	return nil
}

// FinalizeSession transitions the session, then composes and returns the
// sealed SessionSummary.
func (c *Coordinator) FinalizeSession(ctx context.Context, sessionID, callerID string) (*SessionSummary, error) {
	var summary *SessionSummary
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.FinalizeSession(sessionID, callerID)
		if err != nil {
			return nil
		}
		var participants []Participant
		participants, err = c.registry.store.GetParticipants(sessionID)
		if err != nil {
			err = wrapStorage(err, "get participants")
			return nil
		}
		var itinerary []ItineraryItem
		itinerary, err = c.itinerary.GetItinerary(sessionID)
		if err != nil {
			return nil
		}
		built := c.summary.Build(s, participants, itinerary)
		summary = &built
		return nil
	})
	if err != nil {
		return nil, err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, callerID, "registry", "finalize_session", "session finalized", map[string]any{"share_url": summary.ShareURL})
	c.hub.Broadcast(sessionID, Event{
		EventType: EventSessionFinalized,
		SessionID: sessionID,
		Timestamp: c.clock.Now(),
		Data:      summary,
	})
	return summary, nil
}

// ArchiveInactive is invoked by an external periodic caller; the
// Coordinator itself never schedules it. Each stale candidate is
// re-checked and archived under its own session lock, exactly like every
// other mutating operation, so the sweep can never race a concurrent
// mutation on the same session.
func (c *Coordinator) ArchiveInactive(ctx context.Context, cutoffAge time.Duration) (int, error) {
	cutoff := c.clock.Now().Add(-cutoffAge)
	candidates, err := c.registry.listStaleSessions(cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sessionID := range candidates {
		var archived bool
		var archErr error
		_ = c.locks.withLock(sessionID, func() error {
			archived, archErr = c.registry.archiveIfStale(sessionID, cutoff)
			return nil
		})
		if archErr != nil {
			return count, archErr
		}
		if archived {
			count++
		}
	}
	if count > 0 {
		RecordAudit(ctx, AuditLevelInfo, "", "", "registry", "archive_inactive", "inactive sessions archived", map[string]any{"count": count})
	}
	return count, nil
}

// --- venues & votes ---

func (c *Coordinator) AddVenue(ctx context.Context, sessionID, placeID, name, address, suggestedBy string, rating *float64, priceLevel *int, photoURL *string) (*VenueOption, error) {
	var venue *VenueOption
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.GetSession(sessionID)
		if err != nil {
			return nil
		}
		if err = requireActive(s); err != nil {
			return nil
		}
		venue, err = c.votes.AddVenue(sessionID, placeID, name, address, suggestedBy, rating, priceLevel, photoURL)
		return nil
	})
	if err != nil {
		return nil, err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, suggestedBy, "votes", "add_venue", "venue suggested", map[string]any{"place_id": placeID, "name": name})
	c.hub.Broadcast(sessionID, Event{
		EventType: EventVenueAdded,
		SessionID: sessionID,
		Timestamp: c.clock.Now(),
		Data:      venue,
	})
	return venue, nil
}

// GetVenues is a read and needs no lock.
func (c *Coordinator) GetVenues(sessionID string) ([]VenueOption, error) {
	return c.votes.GetVenues(sessionID)
}

func (c *Coordinator) CastVote(ctx context.Context, sessionID, venueID, participantID string, voteType VoteType) (*Vote, error) {
	var vote *Vote
	var tally Tally
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.GetSession(sessionID)
		if err != nil {
			return nil
		}
		if err = requireActive(s); err != nil {
			return nil
		}
		vote, err = c.votes.CastVote(sessionID, venueID, participantID, voteType)
		if err != nil {
			return nil
		}
		tally, err = c.votes.Tally(sessionID, venueID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, participantID, "votes", "cast_vote", "vote cast", map[string]any{"venue_id": venueID, "vote_type": voteType})
	c.hub.Broadcast(sessionID, Event{
		EventType:     EventVoteCast,
		SessionID:     sessionID,
		Timestamp:     c.clock.Now(),
		Data:          map[string]any{"vote": vote, "tally": tally},
		ParticipantID: participantID,
	})
	return vote, nil
}

// Tally and RankVenues are reads and need no lock.
func (c *Coordinator) Tally(sessionID, venueID string) (Tally, error) {
	return c.votes.Tally(sessionID, venueID)
}

func (c *Coordinator) RankVenues(sessionID string) ([]RankedVenue, error) {
	return c.votes.RankVenues(sessionID)
}

// --- itinerary ---

func (c *Coordinator) AddToItinerary(ctx context.Context, sessionID, venueID string, scheduledTime time.Time, addedBy string) (*ItineraryItem, error) {
	var item *ItineraryItem
	var full []ItineraryItem
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.GetSession(sessionID)
		if err != nil {
			return nil
		}
		if err = requireActive(s); err != nil {
			return nil
		}
		item, err = c.itinerary.AddToItinerary(sessionID, venueID, scheduledTime, addedBy)
		if err != nil {
			return nil
		}
		full, err = c.itinerary.GetItinerary(sessionID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, addedBy, "itinerary", "add_item", "itinerary item added", map[string]any{"venue_id": venueID, "scheduled_time": scheduledTime})
	c.hub.Broadcast(sessionID, Event{
		EventType: EventItineraryItemAdded,
		SessionID: sessionID,
		Timestamp: c.clock.Now(),
		Data:      map[string]any{"item": item, "itinerary": full},
	})
	return item, nil
}

func (c *Coordinator) RemoveFromItinerary(ctx context.Context, sessionID, itemID, callerID string) error {
	var full []ItineraryItem
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.GetSession(sessionID)
		if err != nil {
			return nil
		}
		if err = requireActive(s); err != nil {
			return nil
		}
		err = c.itinerary.RemoveFromItinerary(sessionID, itemID)
		if err != nil {
			return nil
		}
		full, err = c.itinerary.GetItinerary(sessionID)
		return nil
	})
	if err != nil {
		return err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, callerID, "itinerary", "remove_item", "itinerary item removed", map[string]any{"item_id": itemID})
	c.hub.Broadcast(sessionID, Event{
		EventType: EventItineraryItemRemoved,
		SessionID: sessionID,
		Timestamp: c.clock.Now(),
		Data:      map[string]any{"item_id": itemID, "itinerary": full},
	})
	return nil
}

// GetItinerary is a read and needs no lock.
func (c *Coordinator) GetItinerary(sessionID string) ([]ItineraryItem, error) {
	return c.itinerary.GetItinerary(sessionID)
}

func (c *Coordinator) Reorder(ctx context.Context, sessionID string, itemIDs []string, callerID string) ([]ItineraryItem, error) {
	var ordered []ItineraryItem
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.GetSession(sessionID)
		if err != nil {
			return nil
		}
		if err = requireActive(s); err != nil {
			return nil
		}
		ordered, err = c.itinerary.Reorder(sessionID, itemIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, callerID, "itinerary", "reorder", "itinerary reordered", map[string]any{"item_count": len(ordered)})
	c.hub.Broadcast(sessionID, Event{
		EventType: EventItineraryItemAdded,
		SessionID: sessionID,
		Timestamp: c.clock.Now(),
		Data:      map[string]any{"itinerary": ordered},
	})
	return ordered, nil
}

// --- comments ---

func (c *Coordinator) AddComment(ctx context.Context, sessionID, venueID, participantID, text string) (*Comment, error) {
	var comment *Comment
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		var s *Session
		s, err = c.registry.GetSession(sessionID)
		if err != nil {
			return nil
		}
		if err = requireActive(s); err != nil {
			return nil
		}
		if _, err = c.votes.getVenue(sessionID, venueID); err != nil {
			return nil
		}
		comment, err = c.comments.AddComment(sessionID, venueID, participantID, text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	RecordAudit(ctx, AuditLevelInfo, sessionID, participantID, "comments", "add_comment", "comment added", map[string]any{"venue_id": venueID})
	c.hub.Broadcast(sessionID, Event{
		EventType:     EventCommentAdded,
		SessionID:     sessionID,
		Timestamp:     c.clock.Now(),
		Data:          comment,
		ParticipantID: participantID,
	})
	return comment, nil
}

// GetComments and GetParticipantComments are reads and need no lock.
func (c *Coordinator) GetComments(sessionID, venueID string) ([]Comment, error) {
	return c.comments.GetComments(sessionID, venueID)
}

func (c *Coordinator) GetParticipantComments(sessionID, participantID string) ([]Comment, error) {
	return c.comments.GetParticipantComments(sessionID, participantID)
}

// --- realtime ---

// Connect registers sink for participantID in sessionID, then synchronously
// composes and delivers a StateSync snapshot, observing the per-session
// lock so the snapshot reflects no partial write.
func (c *Coordinator) Connect(sessionID, participantID string, sink Sink) error {
	c.hub.Connect(sessionID, participantID, sink)
	var snapshot SessionState
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		snapshot, err = c.sync.Compose(sessionID)
		return nil
	})
	if err != nil {
		return err
	}
	c.hub.SyncState(sessionID, participantID, snapshot)
	return nil
}

// Disconnect removes participantID's connection from sessionID.
func (c *Coordinator) Disconnect(sessionID, participantID string) {
	c.hub.Disconnect(sessionID, participantID)
}

// SessionState composes the current full-session snapshot directly,
// without involving BroadcastHub; useful for HTTP polling clients.
func (c *Coordinator) SessionState(sessionID string) (SessionState, error) {
	var snapshot SessionState
	var err error
	_ = c.locks.withLock(sessionID, func() error {
		snapshot, err = c.sync.Compose(sessionID)
		return nil
	})
	return snapshot, err
}
