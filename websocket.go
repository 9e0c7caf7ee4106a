// websocket.go
package groupcore

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSink adapts a single gorilla/websocket connection to the Sink
// interface BroadcastHub delivers Events to. Send is only ever called from
// the connection's own dedicated goroutine, and pingLoop writes pings with
// WriteControl (safe to call concurrently with other writes), so Send needs
// no locking of its own beyond the write deadline.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// pingLoop keeps the connection alive and closes it once a ping write
// fails, which in turn unblocks the read loop in ServeSessionWS and
// triggers Disconnect.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// ServeSessionWS upgrades the request to a WebSocket and wires it into
// coordinator's BroadcastHub for the named session/participant. The client
// is expected to have already called JoinSession over HTTP and to pass the
// returned participant_id here as a query parameter.
func ServeSessionWS(coordinator *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		sessionID := vars["session_id"]
		participantID := r.URL.Query().Get("participant_id")
		if sessionID == "" || participantID == "" {
			http.Error(w, "session_id and participant_id are required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Logger().Warn("ws_upgrade_failed", "err", err, "session_id", sessionID)
			return
		}

		if err := coordinator.Connect(sessionID, participantID, &wsSink{conn: conn}); err != nil {
			Logger().Warn("ws_connect_failed", "err", err, "session_id", sessionID, "participant_id", participantID)
			_ = conn.Close()
			return
		}

		done := make(chan struct{})
		go pingLoop(conn, done)

		conn.SetReadLimit(wsMaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		close(done)
		coordinator.Disconnect(sessionID, participantID)
		_ = conn.Close()
	}
}
