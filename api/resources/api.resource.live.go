// FilePath: api/resources/api.resource.live.go
package resources

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/devicesync"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveHandlers pushes the dashboard state to browsers over WebSocket:
// one full payload on connect, then one per state change, coalesced
// through a single-slot signal channel so a slow client only ever
// skips intermediate states, never blocks the syncer.
type LiveHandlers struct {
	sync *devicesync.Syncer
}

func (h *LiveHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Live] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	listenerID := nuts.NID("ws", 12)
	changed := make(chan struct{}, 1)
	h.sync.OnChange(listenerID, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer h.sync.RemoveOnChange(listenerID)

	// Drain client frames so pings and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeState(conn); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-changed:
			if err := h.writeState(conn); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandlers) writeState(conn *websocket.Conn) error {
	state := h.sync.Snapshot()
	payload := buildDashboardResponse(state, time.Now())
	return conn.WriteJSON(payload)
}
