// broadcast.go
package groupcore

import (
	"sync"
	"time"
)

// EventType is the closed set of typed events the BroadcastHub fans out.
type EventType string

const (
	EventParticipantJoined    EventType = "ParticipantJoined"
	EventVenueAdded           EventType = "VenueAdded"
	EventVoteCast             EventType = "VoteCast"
	EventItineraryItemAdded   EventType = "ItineraryItemAdded"
	EventItineraryItemRemoved EventType = "ItineraryItemRemoved"
	EventCommentAdded         EventType = "CommentAdded"
	EventSessionFinalized     EventType = "SessionFinalized"
	EventStateSync            EventType = "StateSync"
)

// Event is a typed, per-session message delivered to one or more sinks.
type Event struct {
	EventType     EventType `json:"event_type"`
	SessionID     string    `json:"session_id"`
	Timestamp     time.Time `json:"timestamp"`
	Data          any       `json:"data"`
	ParticipantID string    `json:"participant_id,omitempty"`
}

// Sink is a push-only delivery target for exactly one participant's
// connection. wsSink bridges this to a real websocket transport; Send must
// not block indefinitely — BroadcastHub already serializes calls to it
// per-sink via its own queue, so a Sink only needs to get bytes onto the
// wire (or fail).
type Sink interface {
	Send(Event) error
}

// sinkQueueSize bounds how many undelivered events a single sink can have
// buffered before BroadcastHub considers it unhealthy and evicts it.
const sinkQueueSize = 256

type connection struct {
	sink  Sink
	queue chan Event
	done  chan struct{}
}

// BroadcastHub maintains, per session, a set of active connections keyed
// by participant id, and fans events out to them with per-sink isolation
// and per-sink FIFO ordering.
type BroadcastHub struct {
	mu    sync.RWMutex
	conns map[string]map[string]*connection
}

// NewBroadcastHub constructs an empty hub.
func NewBroadcastHub() *BroadcastHub {
	return &BroadcastHub{conns: make(map[string]map[string]*connection)}
}

// Connect registers sink as the active connection for (sessionID,
// participantID). A prior sink for the same pair is evicted and closed
// first, so there is always at most one active connection per participant.
func (h *BroadcastHub) Connect(sessionID, participantID string, sink Sink) {
	conn := &connection{sink: sink, queue: make(chan Event, sinkQueueSize), done: make(chan struct{})}

	h.mu.Lock()
	set, ok := h.conns[sessionID]
	if !ok {
		set = make(map[string]*connection)
		h.conns[sessionID] = set
	}
	if old, exists := set[participantID]; exists {
		h.evictLocked(old)
	}
	set[participantID] = conn
	h.mu.Unlock()

	go conn.run()
}

func (c *connection) run() {
	for {
		select {
		case ev, ok := <-c.queue:
			if !ok {
				return
			}
			if err := c.sink.Send(ev); err != nil {
				Logger().Warn("broadcast_sink_send_failed", "event_type", ev.EventType, "session_id", ev.SessionID, "err", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// evictLocked stops and removes a connection's worker. Caller must hold h.mu.
func (h *BroadcastHub) evictLocked(c *connection) {
	close(c.done)
}

// Disconnect removes and closes the connection for (sessionID, participantID).
func (h *BroadcastHub) Disconnect(sessionID, participantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[sessionID]
	if !ok {
		return
	}
	if conn, exists := set[participantID]; exists {
		h.evictLocked(conn)
		delete(set, participantID)
	}
	if len(set) == 0 {
		delete(h.conns, sessionID)
	}
}

// Broadcast delivers event to every currently connected participant in
// sessionID. A slow or closed sink is evicted and never blocks delivery to
// others; per-sink ordering is preserved because each sink has its own
// queue and single consuming goroutine.
func (h *BroadcastHub) Broadcast(sessionID string, event Event) {
	h.mu.RLock()
	set := h.conns[sessionID]
	conns := make([]*connection, 0, len(set))
	for _, c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		select {
		case c.queue <- event:
		default:
			Logger().Warn("broadcast_queue_full_evicting_sink", "session_id", sessionID, "event_type", event.EventType)
			go h.evictOverflowing(sessionID, c)
		}
	}
}

// evictOverflowing removes a connection whose queue was full at the moment
// of a Broadcast call. It looks the connection up by identity rather than
// by participant id, since the participant may have reconnected with a
// fresh connection in the meantime.
func (h *BroadcastHub) evictOverflowing(sessionID string, stale *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[sessionID]
	if !ok {
		return
	}
	for pid, c := range set {
		if c == stale {
			h.evictLocked(c)
			delete(set, pid)
			break
		}
	}
	if len(set) == 0 {
		delete(h.conns, sessionID)
	}
}

// SyncState delivers a targeted StateSync event to one participant's sink.
// If the target sink is gone, the sync is dropped silently.
func (h *BroadcastHub) SyncState(sessionID, participantID string, snapshot SessionState) {
	h.mu.RLock()
	var conn *connection
	if set, ok := h.conns[sessionID]; ok {
		conn = set[participantID]
	}
	h.mu.RUnlock()
	if conn == nil {
		return
	}
	event := Event{
		EventType:     EventStateSync,
		SessionID:     sessionID,
		Timestamp:     time.Now(),
		Data:          snapshot,
		ParticipantID: participantID,
	}
	select {
	case conn.queue <- event:
	default:
		Logger().Warn("state_sync_dropped_queue_full", "session_id", sessionID, "participant_id", participantID)
	}
}

// ConnectionCount reports how many sinks are active for a session, mostly
// useful for tests and metrics.
func (h *BroadcastHub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}
