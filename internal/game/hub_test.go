package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// fakeSocket records every envelope written to it.
type fakeSocket struct {
	mu     sync.Mutex
	events []internal.Message[any]
	closed bool
}

func (f *fakeSocket) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := v.(internal.Message[any]); ok {
		f.events = append(f.events, m)
	}
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.events {
		if m.Type == eventType {
			n++
		}
	}
	return n
}

// last returns the most recent event of the given type.
func (f *fakeSocket) last(eventType string) (internal.Message[any], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Type == eventType {
			return f.events[i], true
		}
	}
	return internal.Message[any]{}, false
}

// fakeStore keeps durable records in memory with the same conflict and
// not-found semantics as the postgres adapter.
type fakeStore struct {
	mu    sync.Mutex
	rooms map[string]*internal.GameRoom

	createErr error
	findErr   error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string]*internal.GameRoom)}
}

func (s *fakeStore) CreateRoom(_ context.Context, code, mode, status string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	if r, ok := s.rooms[code]; ok {
		return r.ID, fmt.Errorf("%w: code %q", internal.ErrRoomExists, code)
	}
	r := &internal.GameRoom{ID: uuid.NewString(), Code: code, Mode: mode, Status: status}
	s.rooms[code] = r
	return r.ID, nil
}

func (s *fakeStore) FindRoomByCode(_ context.Context, code string) (*internal.GameRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	r, ok := s.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, code)
	}
	cp := *r
	cp.Participants = append([]internal.Participant(nil), r.Participants...)
	return &cp, nil
}

func (s *fakeStore) UpsertParticipant(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, r := range s.rooms {
		if r.ID != roomID {
			continue
		}
		if r.HasParticipant(userID) {
			return nil
		}
		r.Participants = append(r.Participants, internal.Participant{
			ID:         uuid.NewString(),
			GameRoomID: roomID,
			UserID:     userID,
		})
		return nil
	}
	return fmt.Errorf("%w: id %q", internal.ErrRoomNotFound, roomID)
}

// seed installs a durable room with participants, as if written by a
// previous process.
func (s *fakeStore) seed(code string, userIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &internal.GameRoom{
		ID:     uuid.NewString(),
		Code:   code,
		Mode:   internal.RoomModePlayerVsPlayer,
		Status: internal.RoomStatusWaiting,
	}
	for _, id := range userIDs {
		r.Participants = append(r.Participants, internal.Participant{
			ID: uuid.NewString(), GameRoomID: r.ID, UserID: id,
		})
	}
	s.rooms[code] = r
}

// scriptedFetcher serves a fixed item list; seq values past the script fail.
type scriptedFetcher struct {
	mu    sync.Mutex
	items []internal.ContentItem
	calls int
}

func (f *scriptedFetcher) FetchItem(_ context.Context, seq int) (internal.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if seq > len(f.items) {
		return internal.ContentItem{}, fmt.Errorf("no item for call %d", seq)
	}
	return f.items[seq-1], nil
}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	hub     *Hub
	store   *fakeStore
	fetcher *scriptedFetcher
	groups  *websockets.Groups
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := newFakeStore()
	f := &scriptedFetcher{}
	g := websockets.NewGroups()
	h := NewHub(st, f, g)
	// The ticker is driven by hand in tests; scheduled delays are compressed.
	h.timings = Timings{
		Tick:           time.Hour,
		StartDelay:     time.Millisecond,
		FetchInterval:  time.Millisecond,
		ResolveDelay:   time.Millisecond,
		NextRoundDelay: time.Millisecond,
	}
	return &harness{hub: h, store: st, fetcher: f, groups: g}
}

func (ha *harness) connect() (*websockets.Conn, *fakeSocket) {
	sock := &fakeSocket{}
	return websockets.NewConn(sock), sock
}

// seatTwo runs alice through createRoom and bob through joinRoom.
func (ha *harness) seatTwo(t *testing.T, code string) (connA *websockets.Conn, sockA *fakeSocket, connB *websockets.Conn, sockB *fakeSocket) {
	t.Helper()
	ctx := context.Background()
	connA, sockA = ha.connect()
	connB, sockB = ha.connect()

	ha.hub.CreateRoom(ctx, connA, internal.RoomEvent{RoomID: code, UserID: "alice"})
	require.Equal(t, 1, sockA.count("roomCreated"))

	ha.hub.JoinRoom(ctx, connB, internal.RoomEvent{RoomID: code, UserID: "bob"})
	require.Equal(t, 1, sockB.count("joinedRoom"))
	return connA, sockA, connB, sockB
}

// forceDisplaying installs a running display machine showing items[0],
// bypassing the lobby and loading phases.
func (ha *harness) forceDisplaying(code string, items ...internal.ContentItem) {
	_, cancel := context.WithCancel(context.Background())
	ha.hub.mu.Lock()
	ha.hub.displays[code] = &internal.DisplayState{
		Phase:        internal.PhaseDisplaying,
		CurrentIndex: 0,
		Countdown:    internal.DisplayingTicks,
		TotalItems:   len(items),
		Items:        items,
		Cancel:       cancel,
	}
	ha.hub.mu.Unlock()
}

func (ha *harness) playerHealth(t *testing.T, code, userID string) int {
	t.Helper()
	ha.hub.mu.Lock()
	defer ha.hub.mu.Unlock()
	room, ok := ha.hub.rooms[code]
	require.True(t, ok, "room %s not in registry", code)
	p, ok := room.Players[userID]
	require.True(t, ok, "player %s not in room %s", userID, code)
	return p.Health
}

func (ha *harness) setPlayerHealth(t *testing.T, code, userID string, health int) {
	t.Helper()
	ha.hub.mu.Lock()
	defer ha.hub.mu.Unlock()
	ha.hub.rooms[code].Players[userID].Health = health
}

func waitForEvent(t *testing.T, s *fakeSocket, eventType string) internal.Message[any] {
	t.Helper()
	var got internal.Message[any]
	require.Eventually(t, func() bool {
		m, ok := s.last(eventType)
		if ok {
			got = m
		}
		return ok
	}, 2*time.Second, 2*time.Millisecond, "expected a %s event", eventType)
	return got
}

// waitForEventCount waits until the socket has seen the event n times,
// distinguishing a fresh occurrence from a stale earlier one.
func waitForEventCount(t *testing.T, s *fakeSocket, eventType string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.count(eventType) >= n
	}, 2*time.Second, 2*time.Millisecond, "expected %d %s events", n, eventType)
}

func quizItem(province string) internal.ContentItem {
	return internal.ContentItem{
		Province:         province,
		MediaType:        "image",
		MediaURL:         "https://cdn.example.com/" + province + ".jpg",
		CulturalCategory: "traditional_dance",
		Query:            province + " traditional dance",
		CulturalContext:  "A dance from " + province,
	}
}
