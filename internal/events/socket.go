package events

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wireEvent is the JSON shape pushed to connected pages.
type wireEvent struct {
	Event  string `json:"event"`
	Detail any    `json:"detail,omitempty"`
}

// SocketBridge forwards dispatched events to a single WebSocket connection.
type SocketBridge struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Forward implements Bridge.
func (b *SocketBridge) Forward(name string, detail any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteJSON(wireEvent{Event: name, Detail: detail})
}

// ServeWS upgrades the request and streams every dispatched event to the
// page until the connection closes. Incoming messages are treated as
// template-originated dispatches (templates may fire catalogue events
// directly).
func ServeWS(hub *Hub, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnw("websocket upgrade", "error", err)
			return
		}
		defer conn.Close()

		bridge := &SocketBridge{conn: conn}
		hub.AddBridge(bridge)
		defer hub.RemoveBridge(bridge)

		for {
			var in wireEvent
			if err := conn.ReadJSON(&in); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debugw("websocket read", "error", err)
				}
				return
			}
			if in.Event == "" {
				continue
			}
			hub.Dispatch(in.Event, in.Detail)
		}
	}
}
