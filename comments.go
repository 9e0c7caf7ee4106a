// comments.go
package groupcore

import (
	"sort"
	"unicode/utf8"
)

const maxCommentLen = 500

// CommentLog is the append-only, per-venue comment log.
// Comments are never updated or deleted by the core.
type CommentLog struct {
	store Store
	clock Clock
	ids   IDGenerator
}

// NewCommentLog builds a CommentLog over the given collaborators.
func NewCommentLog(store Store, clock Clock, ids IDGenerator) *CommentLog {
	return &CommentLog{store: store, clock: clock, ids: ids}
}

// AddComment appends a comment to a venue's log.
func (l *CommentLog) AddComment(sessionID, venueID, participantID, text string) (*Comment, error) {
	if len(text) == 0 {
		return nil, newErr(KindValidation, "comment text must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > maxCommentLen {
		return nil, newErr(KindTooLong, "comment text exceeds %d characters", maxCommentLen).
			withDetails("limit", maxCommentLen, "length", n)
	}
	c := &Comment{
		ID:            l.ids.NewID(),
		SessionID:     sessionID,
		VenueID:       venueID,
		ParticipantID: participantID,
		Text:          text,
		CreatedAt:     l.clock.Now(),
	}
	if err := l.store.AddComment(c); err != nil {
		return nil, wrapStorage(err, "add comment")
	}
	return c, nil
}

// GetComments returns a venue's comments in ascending created_at order.
func (l *CommentLog) GetComments(sessionID, venueID string) ([]Comment, error) {
	comments, err := l.store.GetComments(sessionID, venueID)
	if err != nil {
		return nil, wrapStorage(err, "get comments")
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// GetParticipantComments returns all of a participant's comments across
// every venue in a session, chronological.
func (l *CommentLog) GetParticipantComments(sessionID, participantID string) ([]Comment, error) {
	comments, err := l.store.GetParticipantComments(sessionID, participantID)
	if err != nil {
		return nil, wrapStorage(err, "get participant comments")
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}
