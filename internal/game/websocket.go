package game

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the request and runs the connection's read loop
// until the client goes away. Every inbound frame is a typed envelope; a
// frame that fails to decode is answered with an error event and skipped,
// never fatal to the connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HandleWebSocket] upgrade failed: %v", err)
		return
	}

	conn := websockets.NewConn(sock)
	log.Printf("[HandleWebSocket] conn=%s connected from %s", conn.ID, r.RemoteAddr)

	defer func() {
		h.Disconnect(conn)
		conn.Close()
		log.Printf("[HandleWebSocket] conn=%s disconnected", conn.ID)
	}()

	ctx := r.Context()
	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[HandleWebSocket] conn=%s read error: %v", conn.ID, err)
			}
			return
		}
		h.dispatch(ctx, conn, raw)
	}
}

// dispatch routes one inbound frame to its handler.
func (h *Hub) dispatch(ctx context.Context, conn *websockets.Conn, raw []byte) {
	var msg internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("[dispatch] conn=%s: malformed frame: %v", conn.ID, err)
		h.sendError(conn, err)
		return
	}

	switch msg.Type {
	case "createRoom":
		var ev internal.RoomEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.CreateRoom(ctx, conn, ev)

	case "joinRoom":
		var ev internal.RoomEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.JoinRoom(ctx, conn, ev)

	case "rejoinRoom":
		var ev internal.RoomEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.RejoinRoom(ctx, conn, ev)

	case "leaveRoom":
		var ev internal.RoomEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.LeaveRoom(conn, ev)

	case "playerReady":
		var ev internal.RoomEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.Ready(conn, ev)

	case "playerUnready":
		var ev internal.RoomEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.Unready(conn, ev)

	case "selectProvince":
		var ev internal.ProvinceEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.Select(conn, ev)

	case "submitProvince":
		var ev internal.ProvinceEvent
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.Submit(conn, ev)

	case "requestRoomData":
		var ev internal.RoomDataRequest
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.RequestRoomData(conn, ev)

	case "requestContentState":
		var ev internal.RoomDataRequest
		if !h.decode(conn, msg, &ev) {
			return
		}
		h.RequestContentState(conn, ev)

	default:
		log.Printf("[dispatch] conn=%s: unknown event type %q", conn.ID, msg.Type)
	}
}

func (h *Hub) decode(conn *websockets.Conn, msg internal.Message[json.RawMessage], out any) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		log.Printf("[decode] conn=%s: bad %s payload: %v", conn.ID, msg.Type, err)
		h.sendError(conn, err)
		return false
	}
	return true
}
