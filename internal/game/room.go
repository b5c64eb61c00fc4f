package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// =============================================================================
// ROOM REGISTRY & PRESENCE
// =============================================================================

// reconcile removes players whose recorded connection is no longer joined to
// the room's broadcast group, healing state left behind by missed disconnect
// events. It runs at the start of join/rejoin/ready handling only - the
// events where stale entries would corrupt capacity or start checks.
func (h *Hub) reconcile(code string) {
	members := h.groups.Members(code)

	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		return
	}

	var stale []string
	for userID, p := range room.Players {
		if _, live := members[p.ConnID]; !live {
			stale = append(stale, userID)
		}
	}
	for _, userID := range stale {
		h.dropPlayerLocked(room, userID)
	}
	empty := len(room.Players) == 0
	if empty {
		h.teardownLocked(code)
	}
	h.mu.Unlock()

	if len(stale) > 0 {
		log.Printf("[reconcile] room=%s: removed stale players %v (room empty: %t)", code, stale, empty)
	}
}

// dropPlayerLocked removes one player and their per-round state. Callers
// hold h.mu and handle the empty-room cascade themselves.
func (h *Hub) dropPlayerLocked(room *internal.Room, userID string) {
	delete(room.Players, userID)
	delete(room.Ready, userID)
	if subs := h.submissions[room.Code]; subs != nil {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(h.submissions, room.Code)
		}
	}
}

// CreateRoom registers a new room with the caller as first player. The
// durable record is written first; if it already exists the handler falls
// through to join-existing semantics rather than failing.
func (h *Hub) CreateRoom(ctx context.Context, conn *websockets.Conn, ev internal.RoomEvent) {
	h.mu.Lock()
	if room, ok := h.rooms[ev.RoomID]; ok && len(room.Players) > 0 {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomExists, ev.RoomID))
		return
	}
	h.mu.Unlock()

	storeID, err := h.store.CreateRoom(ctx, ev.RoomID, internal.RoomModePlayerVsPlayer, internal.RoomStatusWaiting)
	if err != nil && !errors.Is(err, internal.ErrRoomExists) {
		log.Printf("[CreateRoom] room=%s: store create failed: %v", ev.RoomID, err)
		h.sendError(conn, err)
		return
	}
	if err := h.store.UpsertParticipant(ctx, storeID, ev.UserID); err != nil {
		log.Printf("[CreateRoom] room=%s: participant upsert failed: %v", ev.RoomID, err)
		h.sendError(conn, err)
		return
	}

	// The store calls suspended us; another event may have touched this
	// room meanwhile. Re-validate against current memory state.
	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		room = internal.NewRoom(ev.RoomID)
		h.rooms[ev.RoomID] = room
	}
	var health int
	if p, ok := room.Players[ev.UserID]; ok {
		p.Rebind(conn.ID)
		health = p.Health
	} else {
		if len(room.Players) >= internal.MaxPlayersPerRoom {
			h.mu.Unlock()
			h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomFull, ev.RoomID))
			return
		}
		room.Players[ev.UserID] = internal.NewPlayer(ev.UserID, conn.ID)
		health = internal.StartingHealth
	}
	payload := roomSnapshotLocked(room)
	h.mu.Unlock()

	h.groups.Join(ev.RoomID, conn)
	log.Printf("[CreateRoom] room=%s: created by %s", ev.RoomID, ev.UserID)

	h.send(conn, "roomCreated", internal.JoinAckPayload{RoomID: ev.RoomID, UserID: ev.UserID, Health: health})
	h.send(conn, "roomData", payload)
}

// JoinRoom admits a player into an existing room, reconstructing it from
// the store when memory has no trace of it. A join by a player already in
// the room is a reconnect and rebinds their connection.
func (h *Hub) JoinRoom(ctx context.Context, conn *websockets.Conn, ev internal.RoomEvent) {
	h.reconcile(ev.RoomID)

	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		if _, err := h.store.FindRoomByCode(ctx, ev.RoomID); err != nil {
			log.Printf("[JoinRoom] room=%s: not reconstructable: %v", ev.RoomID, err)
			h.sendError(conn, err)
			return
		}
		// Re-validate: the lookup suspended us and the room may exist in
		// memory by now. Participants are not rehydrated - they rejoin.
		h.mu.Lock()
		room, ok = h.rooms[ev.RoomID]
		if !ok {
			room = internal.NewRoom(ev.RoomID)
			h.rooms[ev.RoomID] = room
			log.Printf("[JoinRoom] room=%s: reconstructed from store", ev.RoomID)
		}
	}

	rejoined := false
	var health int
	if p, ok := room.Players[ev.UserID]; ok {
		p.Rebind(conn.ID)
		health = p.Health
		rejoined = true
	} else {
		if len(room.Players) >= internal.MaxPlayersPerRoom {
			h.mu.Unlock()
			h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomFull, ev.RoomID))
			return
		}
		room.Players[ev.UserID] = internal.NewPlayer(ev.UserID, conn.ID)
		health = internal.StartingHealth
	}
	h.mu.Unlock()

	h.groups.Join(ev.RoomID, conn)
	h.send(conn, "joinedRoom", internal.JoinAckPayload{RoomID: ev.RoomID, UserID: ev.UserID, Health: health})

	if rejoined {
		log.Printf("[JoinRoom] room=%s: %s reconnected on conn %s", ev.RoomID, ev.UserID, conn.ID)
	} else {
		log.Printf("[JoinRoom] room=%s: %s joined", ev.RoomID, ev.UserID)
		if err := h.persistMembership(ctx, ev.RoomID, ev.UserID); err != nil {
			log.Printf("[JoinRoom] room=%s: persisting %s failed: %v", ev.RoomID, ev.UserID, err)
			h.sendError(conn, err)
		}
	}

	h.broadcastRoomData(ev.RoomID)
}

// persistMembership records the player on the durable room, creating the
// record on demand for rooms that were never persisted.
func (h *Hub) persistMembership(ctx context.Context, code, userID string) error {
	gr, err := h.store.FindRoomByCode(ctx, code)
	if err != nil {
		return err
	}
	if gr.HasParticipant(userID) {
		return nil
	}
	return h.store.UpsertParticipant(ctx, gr.ID, userID)
}

// RejoinRoom readmits a known participant after a disconnect or process
// restart. Unlike JoinRoom it insists on durable membership when the room
// has to be reconstructed.
func (h *Hub) RejoinRoom(ctx context.Context, conn *websockets.Conn, ev internal.RoomEvent) {
	h.reconcile(ev.RoomID)

	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		gr, err := h.store.FindRoomByCode(ctx, ev.RoomID)
		if err != nil {
			log.Printf("[RejoinRoom] room=%s: not reconstructable: %v", ev.RoomID, err)
			h.sendError(conn, err)
			return
		}
		if !gr.HasParticipant(ev.UserID) {
			h.sendError(conn, fmt.Errorf("%w: %s in room %q", internal.ErrPlayerNotFound, ev.UserID, ev.RoomID))
			return
		}
		h.mu.Lock()
		room, ok = h.rooms[ev.RoomID]
		if !ok {
			room = internal.NewRoom(ev.RoomID)
			h.rooms[ev.RoomID] = room
			log.Printf("[RejoinRoom] room=%s: reconstructed from store", ev.RoomID)
		}
	}

	if p, ok := room.Players[ev.UserID]; ok {
		p.Rebind(conn.ID)
	} else {
		// Known only to the store: re-enter with fresh health. In-progress
		// round state never survives the process.
		room.Players[ev.UserID] = internal.NewPlayer(ev.UserID, conn.ID)
	}
	health := room.Players[ev.UserID].Health
	h.mu.Unlock()

	h.groups.Join(ev.RoomID, conn)
	log.Printf("[RejoinRoom] room=%s: %s rejoined on conn %s", ev.RoomID, ev.UserID, conn.ID)

	h.send(conn, "roomRejoined", internal.JoinAckPayload{RoomID: ev.RoomID, UserID: ev.UserID, Health: health})
	h.broadcastRoomData(ev.RoomID)
}

// LeaveRoom removes the player; emptying the room tears down all of its
// auxiliary state in the same step.
func (h *Hub) LeaveRoom(conn *websockets.Conn, ev internal.RoomEvent) {
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
	h.dropPlayerLocked(room, ev.UserID)
	if len(room.Players) == 0 {
		h.teardownLocked(ev.RoomID)
	}
	h.mu.Unlock()

	h.groups.Leave(ev.RoomID, conn)
	log.Printf("[LeaveRoom] room=%s: %s left", ev.RoomID, ev.UserID)

	h.broadcast(ev.RoomID, "playerLeft", internal.PlayerLeftPayload{UserID: ev.UserID, Reason: "left"})
	h.broadcastRoomData(ev.RoomID)
}

// Disconnect is the transport-level goodbye: the connection is removed from
// every broadcast group and any player bound to it is dropped from their
// room.
func (h *Hub) Disconnect(conn *websockets.Conn) {
	codes := h.groups.LeaveAll(conn)
	for _, code := range codes {
		h.mu.Lock()
		room, ok := h.rooms[code]
		if !ok {
			h.mu.Unlock()
			continue
		}
		var gone string
		for userID, p := range room.Players {
			if p.ConnID == conn.ID {
				gone = userID
				break
			}
		}
		if gone == "" {
			h.mu.Unlock()
			continue
		}
		h.dropPlayerLocked(room, gone)
		if len(room.Players) == 0 {
			h.teardownLocked(code)
		}
		h.mu.Unlock()

		log.Printf("[Disconnect] room=%s: removed %s (conn %s gone)", code, gone, conn.ID)
		h.broadcast(code, "playerLeft", internal.PlayerLeftPayload{UserID: gone, Reason: "disconnected"})
		h.broadcastRoomData(code)
	}
}

// RequestRoomData answers a roster query for one room.
func (h *Hub) RequestRoomData(conn *websockets.Conn, ev internal.RoomDataRequest) {
	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, ev.RoomID))
		return
	}
	payload := roomSnapshotLocked(room)
	h.mu.Unlock()

	h.send(conn, "roomData", payload)
}
