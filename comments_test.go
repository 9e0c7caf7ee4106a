package groupcore

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCommentLog() *CommentLog {
	store := NewMemStore()
	clock := NewFixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ids := &SequentialIDGenerator{Prefix: "comment"}
	return NewCommentLog(store, clock, ids)
}

func TestAddCommentRejectsEmptyText(t *testing.T) {
	l := newTestCommentLog()
	_, err := l.AddComment("s1", "v1", "p1", "")
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
}

func TestAddCommentRejectsTooLongText(t *testing.T) {
	l := newTestCommentLog()
	_, err := l.AddComment("s1", "v1", "p1", strings.Repeat("x", maxCommentLen+1))
	require.Error(t, err)
	require.Equal(t, KindTooLong, KindOf(err))
}

func TestGetCommentsOrderedByCreatedAt(t *testing.T) {
	l := newTestCommentLog()
	_, err := l.AddComment("s1", "v1", "p1", "first")
	require.NoError(t, err)
	_, err = l.AddComment("s1", "v1", "p2", "second")
	require.NoError(t, err)

	comments, err := l.GetComments("s1", "v1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "first", comments[0].Text)
	require.Equal(t, "second", comments[1].Text)
}

func TestGetParticipantCommentsFiltersAcrossVenues(t *testing.T) {
	l := newTestCommentLog()
	_, err := l.AddComment("s1", "v1", "p1", "on v1")
	require.NoError(t, err)
	_, err = l.AddComment("s1", "v2", "p1", "on v2")
	require.NoError(t, err)
	_, err = l.AddComment("s1", "v1", "p2", "someone else")
	require.NoError(t, err)

	mine, err := l.GetParticipantComments("s1", "p1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
}
