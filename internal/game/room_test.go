package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
)

func TestCreateRoomSeatsCreator(t *testing.T) {
	ha := newHarness(t)
	conn, sock := ha.connect()

	ha.hub.CreateRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "alice"})

	created, ok := sock.last("roomCreated")
	require.True(t, ok)
	ack := created.Data.(internal.JoinAckPayload)
	assert.Equal(t, "garuda", ack.RoomID)
	assert.Equal(t, "alice", ack.UserID)
	assert.Equal(t, internal.StartingHealth, ack.Health)

	data, ok := sock.last("roomData")
	require.True(t, ok)
	payload := data.Data.(internal.RoomDataPayload)
	assert.Equal(t, 1, payload.PlayerCount)
	assert.Contains(t, payload.Players, "alice")

	gr, err := ha.store.FindRoomByCode(context.Background(), "garuda")
	require.NoError(t, err)
	assert.True(t, gr.HasParticipant("alice"))
}

func TestCreateRoomOccupiedCodeConflicts(t *testing.T) {
	ha := newHarness(t)
	ha.seatTwo(t, "garuda")

	conn, sock := ha.connect()
	ha.hub.CreateRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "carol"})

	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "conflict", msg.Data.(internal.ErrorPayload).Code)
	assert.Zero(t, sock.count("roomCreated"))
}

func TestJoinRoomThirdPlayerRejected(t *testing.T) {
	ha := newHarness(t)
	_, _, _, sockB := ha.seatTwo(t, "garuda")

	conn, sock := ha.connect()
	ha.hub.JoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "carol"})

	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "capacity", msg.Data.(internal.ErrorPayload).Code)

	// The seated players never saw a roster change.
	data, ok := sockB.last("roomData")
	require.True(t, ok)
	assert.Equal(t, 2, data.Data.(internal.RoomDataPayload).PlayerCount)
	assert.NotContains(t, data.Data.(internal.RoomDataPayload).Players, "carol")
}

func TestCreateRoomStoreFailureSurfaced(t *testing.T) {
	ha := newHarness(t)
	ha.store.createErr = internal.ErrTransient

	conn, sock := ha.connect()
	ha.hub.CreateRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "alice"})

	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "transient", msg.Data.(internal.ErrorPayload).Code)

	// The failure never half-creates an in-memory room.
	ha.hub.mu.Lock()
	assert.Empty(t, ha.hub.rooms)
	ha.hub.mu.Unlock()
}

func TestJoinRoomStoreFailureSurfaced(t *testing.T) {
	ha := newHarness(t)
	ha.store.findErr = internal.ErrTransient

	conn, sock := ha.connect()
	ha.hub.JoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "alice"})

	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "transient", msg.Data.(internal.ErrorPayload).Code)
	assert.Zero(t, sock.count("joinedRoom"))
}

func TestJoinRoomUnknownCode(t *testing.T) {
	ha := newHarness(t)
	conn, sock := ha.connect()

	ha.hub.JoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "missing", UserID: "alice"})

	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "not_found", msg.Data.(internal.ErrorPayload).Code)
}

func TestJoinRoomReconnectKeepsHealth(t *testing.T) {
	ha := newHarness(t)
	ha.seatTwo(t, "garuda")
	ha.setPlayerHealth(t, "garuda", "bob", 1)

	// Same user, fresh connection: a reconnect, not a third seat.
	conn, sock := ha.connect()
	ha.hub.JoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "bob"})

	msg, ok := sock.last("joinedRoom")
	require.True(t, ok)
	assert.Equal(t, 1, msg.Data.(internal.JoinAckPayload).Health)

	ha.hub.mu.Lock()
	room := ha.hub.rooms["garuda"]
	assert.Len(t, room.Players, 2)
	assert.Equal(t, conn.ID, room.Players["bob"].ConnID)
	ha.hub.mu.Unlock()
}

func TestJoinRoomReconstructsFromStore(t *testing.T) {
	ha := newHarness(t)
	ha.store.seed("revived", "alice")

	conn, sock := ha.connect()
	ha.hub.JoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "revived", UserID: "bob"})

	msg, ok := sock.last("joinedRoom")
	require.True(t, ok)
	assert.Equal(t, internal.StartingHealth, msg.Data.(internal.JoinAckPayload).Health)

	data, ok := sock.last("roomData")
	require.True(t, ok)
	payload := data.Data.(internal.RoomDataPayload)
	// Durable participants are not rehydrated as live players.
	assert.Equal(t, 1, payload.PlayerCount)
	assert.Contains(t, payload.Players, "bob")
}

func TestRejoinRoomRequiresDurableMembership(t *testing.T) {
	ha := newHarness(t)
	ha.store.seed("revived", "alice")

	conn, sock := ha.connect()
	ha.hub.RejoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "revived", UserID: "mallory"})

	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "not_found", msg.Data.(internal.ErrorPayload).Code)
	assert.Zero(t, sock.count("roomRejoined"))

	ha.hub.RejoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "revived", UserID: "alice"})
	rejoined, ok := sock.last("roomRejoined")
	require.True(t, ok)
	assert.Equal(t, internal.StartingHealth, rejoined.Data.(internal.JoinAckPayload).Health)
}

func TestReconcileDropsStalePlayers(t *testing.T) {
	ha := newHarness(t)
	connA, _, _, _ := ha.seatTwo(t, "garuda")

	// Alice's connection vanishes from the broadcast group without a
	// disconnect event ever reaching the hub.
	ha.groups.Leave("garuda", connA)

	conn, sock := ha.connect()
	ha.hub.JoinRoom(context.Background(), conn, internal.RoomEvent{RoomID: "garuda", UserID: "carol"})

	require.Equal(t, 1, sock.count("joinedRoom"))
	data, ok := sock.last("roomData")
	require.True(t, ok)
	payload := data.Data.(internal.RoomDataPayload)
	assert.Equal(t, 2, payload.PlayerCount)
	assert.Contains(t, payload.Players, "bob")
	assert.Contains(t, payload.Players, "carol")
	assert.NotContains(t, payload.Players, "alice")
}

func TestLeaveRoomNotifiesAndTearsDownWhenEmpty(t *testing.T) {
	ha := newHarness(t)
	connA, _, connB, sockB := ha.seatTwo(t, "garuda")
	ha.forceDisplaying("garuda", quizItem("Banten"))

	ha.hub.LeaveRoom(connA, internal.RoomEvent{RoomID: "garuda", UserID: "alice"})

	left, ok := sockB.last("playerLeft")
	require.True(t, ok)
	assert.Equal(t, "alice", left.Data.(internal.PlayerLeftPayload).UserID)
	assert.Equal(t, "left", left.Data.(internal.PlayerLeftPayload).Reason)

	data, ok := sockB.last("roomData")
	require.True(t, ok)
	assert.Equal(t, 1, data.Data.(internal.RoomDataPayload).PlayerCount)

	ha.hub.LeaveRoom(connB, internal.RoomEvent{RoomID: "garuda", UserID: "bob"})

	ha.hub.mu.Lock()
	assert.Empty(t, ha.hub.rooms)
	assert.Empty(t, ha.hub.submissions)
	assert.Empty(t, ha.hub.displays)
	ha.hub.mu.Unlock()

	// The registry no longer answers for the code.
	conn, sock := ha.connect()
	ha.hub.RequestRoomData(conn, internal.RoomDataRequest{RoomID: "garuda"})
	msg, ok := sock.last("error")
	require.True(t, ok)
	assert.Equal(t, "not_found", msg.Data.(internal.ErrorPayload).Code)
}

func TestDisconnectRemovesBoundPlayer(t *testing.T) {
	ha := newHarness(t)
	connA, _, _, sockB := ha.seatTwo(t, "garuda")

	ha.hub.Disconnect(connA)

	left, ok := sockB.last("playerLeft")
	require.True(t, ok)
	assert.Equal(t, "alice", left.Data.(internal.PlayerLeftPayload).UserID)
	assert.Equal(t, "disconnected", left.Data.(internal.PlayerLeftPayload).Reason)

	data, ok := sockB.last("roomData")
	require.True(t, ok)
	assert.Equal(t, 1, data.Data.(internal.RoomDataPayload).PlayerCount)
}

func TestRequestRoomDataSnapshot(t *testing.T) {
	ha := newHarness(t)
	connA, sockA, _, _ := ha.seatTwo(t, "garuda")

	ha.hub.RequestRoomData(connA, internal.RoomDataRequest{RoomID: "garuda"})

	data, ok := sockA.last("roomData")
	require.True(t, ok)
	payload := data.Data.(internal.RoomDataPayload)
	assert.Equal(t, "garuda", payload.RoomID)
	assert.Equal(t, 2, payload.PlayerCount)
	assert.Equal(t, internal.StartingHealth, payload.Players["alice"].Health)
	assert.Equal(t, internal.StartingHealth, payload.Players["bob"].Health)
}
