// Package game is the session core of the quiz: it owns the live rooms,
// admits and reconciles connections, runs the per-room content display
// machine, and resolves simultaneous answer submissions into damage.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// Store is the durable-record collaborator. All calls are suspension
// points: room state may change while one is in flight, so handlers
// re-validate after every call.
type Store interface {
	CreateRoom(ctx context.Context, code, mode, status string) (string, error)
	FindRoomByCode(ctx context.Context, code string) (*internal.GameRoom, error)
	UpsertParticipant(ctx context.Context, roomID, userID string) error
}

// ContentFetcher supplies quiz items one at a time. Failures are per-item
// and skippable.
type ContentFetcher interface {
	FetchItem(ctx context.Context, seq int) (internal.ContentItem, error)
}

// Timings collects every fixed delay in the session flow so tests can
// compress them. Production uses DefaultTimings.
type Timings struct {
	// Tick drives the display machine countdown.
	Tick time.Duration
	// StartDelay separates the gameStarted broadcast from the first
	// content snapshot.
	StartDelay time.Duration
	// FetchInterval paces the background item fetches.
	FetchInterval time.Duration
	// ResolveDelay separates bothSubmitted from showResults.
	ResolveDelay time.Duration
	// NextRoundDelay separates showResults from nextRound.
	NextRoundDelay time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Tick:           time.Second,
		StartDelay:     500 * time.Millisecond,
		FetchInterval:  2 * time.Second,
		ResolveDelay:   1500 * time.Millisecond,
		NextRoundDelay: 2 * time.Second,
	}
}

// Hub holds all process-scoped session state, keyed by room code. One mutex
// serializes every mutation, standing in for the event-loop serialization
// the protocol was designed around: at most one handler body mutates a
// room's state at a time, and anything that released the lock mid-handler
// (store call, content fetch, scheduled delay) must look the room up again
// before touching it.
type Hub struct {
	mu          sync.Mutex
	rooms       map[string]*internal.Room
	submissions map[string]map[string]internal.Submission
	displays    map[string]*internal.DisplayState

	store   Store
	fetcher ContentFetcher
	groups  *websockets.Groups
	timings Timings
}

func NewHub(store Store, fetcher ContentFetcher, groups *websockets.Groups) *Hub {
	return &Hub{
		rooms:       make(map[string]*internal.Room),
		submissions: make(map[string]map[string]internal.Submission),
		displays:    make(map[string]*internal.DisplayState),
		store:       store,
		fetcher:     fetcher,
		groups:      groups,
		timings:     DefaultTimings(),
	}
}

// teardownLocked removes the room and every piece of auxiliary state in one
// step: ready set (carried on the room), submissions, display state and its
// ticker. Callers hold h.mu.
func (h *Hub) teardownLocked(code string) {
	delete(h.rooms, code)
	delete(h.submissions, code)
	if ds, ok := h.displays[code]; ok {
		if ds.Cancel != nil {
			ds.Cancel()
		}
		delete(h.displays, code)
	}
}

// roomSnapshotLocked shapes the clean roomData payload. Callers hold h.mu.
func roomSnapshotLocked(room *internal.Room) internal.RoomDataPayload {
	players := make(map[string]internal.PlayerSnapshot, len(room.Players))
	for id, p := range room.Players {
		players[id] = p.Snapshot()
	}
	return internal.RoomDataPayload{
		RoomID:      room.Code,
		Players:     players,
		PlayerCount: len(room.Players),
	}
}
