package game

import (
	"log"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// =============================================================================
// NOTIFIER - FAN-OUT & SNAPSHOT SHAPING
// =============================================================================
//
// All wire payloads are shaped here; the registry, coordinator and resolver
// never format messages themselves. Broadcasts always run on snapshots taken
// under the hub lock, never with the lock held.

func (h *Hub) send(conn *websockets.Conn, eventType string, data any) {
	if err := conn.WriteJSON(internal.Message[any]{Type: eventType, Data: data}); err != nil {
		log.Printf("[send] conn=%s: failed to deliver %s: %v", conn.ID, eventType, err)
	}
}

func (h *Hub) sendError(conn *websockets.Conn, err error) {
	h.send(conn, "error", internal.ErrorPayload{
		Code:    internal.ErrorCode(err),
		Message: err.Error(),
	})
}

func (h *Hub) broadcast(code, eventType string, data any) {
	h.groups.Broadcast(code, internal.Message[any]{Type: eventType, Data: data})
}

// broadcastExcept skips the originating connection; used for live previews
// and opponent notifications.
func (h *Hub) broadcastExcept(code string, origin *websockets.Conn, eventType string, data any) {
	h.groups.BroadcastExcept(code, origin.ID, internal.Message[any]{Type: eventType, Data: data})
}

// broadcastRoomData pushes the current player roster to the whole room.
func (h *Hub) broadcastRoomData(code string) {
	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		return
	}
	payload := roomSnapshotLocked(room)
	h.mu.Unlock()

	h.broadcast(code, "roomData", payload)
}

// contentSnapshotLocked shapes the display-machine snapshot. Callers hold
// h.mu.
func contentSnapshotLocked(ds *internal.DisplayState) internal.ContentStatePayload {
	return internal.ContentStatePayload{
		Phase:        ds.Phase,
		CurrentIndex: ds.CurrentIndex,
		Countdown:    ds.Countdown,
		TotalItems:   ds.TotalItems,
		CurrentItem:  ds.CurrentItem(),
	}
}

// broadcastContentState pushes the current display snapshot to the room;
// fired on every tick and every externally forced transition.
func (h *Hub) broadcastContentState(code string) {
	h.mu.Lock()
	ds, ok := h.displays[code]
	if !ok {
		h.mu.Unlock()
		return
	}
	payload := contentSnapshotLocked(ds)
	h.mu.Unlock()

	h.broadcast(code, "contentStateUpdate", payload)
}
