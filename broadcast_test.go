package groupcore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu       sync.Mutex
	received []Event
	fail     bool
}

func (s *fakeSink) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSinkFailed
	}
	s.received = append(s.received, ev)
	return nil
}

func (s *fakeSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.received...)
}

var errSinkFailed = &Error{Kind: KindInternal, Message: "fake sink failure"}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestBroadcastDeliversToConnectedSink(t *testing.T) {
	hub := NewBroadcastHub()
	sink := &fakeSink{}
	hub.Connect("s1", "p1", sink)
	require.Equal(t, 1, hub.ConnectionCount("s1"))

	hub.Broadcast("s1", Event{EventType: EventVenueAdded, SessionID: "s1"})
	waitFor(t, time.Second, func() bool { return len(sink.events()) == 1 })
}

func TestBroadcastSkipsOtherSessions(t *testing.T) {
	hub := NewBroadcastHub()
	sink := &fakeSink{}
	hub.Connect("s1", "p1", sink)

	hub.Broadcast("s2", Event{EventType: EventVenueAdded, SessionID: "s2"})
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, sink.events())
}

func TestConnectEvictsPriorConnectionForSameParticipant(t *testing.T) {
	hub := NewBroadcastHub()
	first := &fakeSink{}
	hub.Connect("s1", "p1", first)
	second := &fakeSink{}
	hub.Connect("s1", "p1", second)

	require.Equal(t, 1, hub.ConnectionCount("s1"))

	hub.Broadcast("s1", Event{EventType: EventVenueAdded, SessionID: "s1"})
	waitFor(t, time.Second, func() bool { return len(second.events()) == 1 })
	require.Empty(t, first.events())
}

func TestDisconnectRemovesSink(t *testing.T) {
	hub := NewBroadcastHub()
	sink := &fakeSink{}
	hub.Connect("s1", "p1", sink)
	hub.Disconnect("s1", "p1")
	require.Equal(t, 0, hub.ConnectionCount("s1"))
}

func TestSyncStateDropsSilentlyWhenSinkGone(t *testing.T) {
	hub := NewBroadcastHub()
	// No panic, no error path: SyncState for a participant with no
	// connection is a documented no-op.
	hub.SyncState("s1", "ghost", SessionState{SessionID: "s1"})
}
