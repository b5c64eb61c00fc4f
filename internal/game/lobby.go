package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// =============================================================================
// LOBBY - READY COORDINATION
// =============================================================================

// Ready marks the player ready and, once every seated player has acked,
// starts the match exactly once. Re-acking is idempotent; the ready
// snapshot is broadcast either way so late subscribers converge.
func (h *Hub) Ready(conn *websockets.Conn, ev internal.RoomEvent) {
	h.reconcile(ev.RoomID)

	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, ev.RoomID))
		return
	}
	if !room.HasPlayer(ev.UserID) {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: %s in room %q", internal.ErrPlayerNotFound, ev.UserID, ev.RoomID))
		return
	}

	room.Ready[ev.UserID] = struct{}{}
	payload := internal.ReadyStatePayload{
		ReadyPlayers: room.ReadyList(),
		TotalPlayers: len(room.Players),
	}

	start := !room.Started &&
		len(room.Players) >= internal.MinPlayersToStart &&
		len(room.Ready) == len(room.Players)
	if start {
		room.Started = true
		// A previous match in this room may have left submissions behind.
		delete(h.submissions, ev.RoomID)
	}
	h.mu.Unlock()

	log.Printf("[Ready] room=%s: %s ready (%d/%d)", ev.RoomID, ev.UserID, len(payload.ReadyPlayers), payload.TotalPlayers)
	h.broadcast(ev.RoomID, "readyStateUpdate", payload)

	if start {
		log.Printf("[Ready] room=%s: all players ready, starting", ev.RoomID)
		h.broadcast(ev.RoomID, "gameStarted", internal.GameStartedPayload{RoomID: ev.RoomID})
		time.AfterFunc(h.timings.StartDelay, func() {
			h.StartDisplay(context.Background(), ev.RoomID)
		})
	}
}

// Unready withdraws a ready ack. It never un-starts a match: once Started
// is set the flow is committed and the shrinking ready set is advisory.
func (h *Hub) Unready(conn *websockets.Conn, ev internal.RoomEvent) {
	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, ev.RoomID))
		return
	}
	if !room.HasPlayer(ev.UserID) {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: %s in room %q", internal.ErrPlayerNotFound, ev.UserID, ev.RoomID))
		return
	}

	delete(room.Ready, ev.UserID)
	payload := internal.ReadyStatePayload{
		ReadyPlayers: room.ReadyList(),
		TotalPlayers: len(room.Players),
	}
	h.mu.Unlock()

	log.Printf("[Unready] room=%s: %s no longer ready", ev.RoomID, ev.UserID)
	h.broadcast(ev.RoomID, "readyStateUpdate", payload)
}
