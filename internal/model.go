package internal

import (
	"context"
	"time"
)

const (
	MaxPlayersPerRoom = 2
	MinPlayersToStart = 2
	StartingHealth    = 3
	MaxContentItems   = 10

	// Phase budgets, in one-second ticks.
	InitialLoadingTicks = 10
	DisplayingTicks     = 30
	InterLoadingTicks   = 15
)

type DisplayPhase string

const (
	PhaseInitialLoading DisplayPhase = "initial_loading"
	PhaseDisplaying     DisplayPhase = "displaying"
	PhaseInterLoading   DisplayPhase = "inter_loading"
	PhaseCompleted      DisplayPhase = "completed"
	PhaseError          DisplayPhase = "error"
)

const (
	RoomModePlayerVsPlayer = "player_vs_player"
	RoomStatusWaiting      = "waiting"
)

type Player struct {
	UserID string `json:"userId"`
	// ConnID is the current transport connection. It changes on reconnect;
	// UserID never does.
	ConnID string `json:"socketId"`
	Health int    `json:"health"`
}

type Room struct {
	Code    string
	Players map[string]*Player

	// Ready acknowledgements gating match start.
	Ready map[string]struct{}
	// Started guards the content flow against firing more than once.
	Started bool
}

// ContentItem is one quiz prompt served during a displaying phase.
type ContentItem struct {
	Province         string `json:"province"`
	MediaType        string `json:"media_type"`
	MediaURL         string `json:"media_url"`
	CulturalCategory string `json:"cultural_category"`
	Query            string `json:"query"`
	CulturalContext  string `json:"cultural_context,omitempty"`
}

// DisplayState is the per-room content display machine. Items grows in the
// background while the countdown runs; CurrentIndex is -1 until the first
// item is shown.
type DisplayState struct {
	Phase        DisplayPhase
	CurrentIndex int
	Countdown    int
	TotalItems   int
	Items        []ContentItem

	// Cancel stops the room's ticker and fetch loop.
	Cancel context.CancelFunc
}

// CurrentItem returns the item on display, or nil before display begins.
func (d *DisplayState) CurrentItem() *ContentItem {
	if d.CurrentIndex < 0 || d.CurrentIndex >= len(d.Items) {
		return nil
	}
	item := d.Items[d.CurrentIndex]
	return &item
}

type Submission struct {
	Province    string
	SubmittedAt time.Time
}

// GameRoom and Participant are the durable records behind a room. Live round
// state never touches the store; these exist so a room can be reconstructed
// lazily after a restart or on a cold join.
type GameRoom struct {
	ID           string
	Code         string
	Mode         string
	Status       string
	Participants []Participant
}

type Participant struct {
	ID         string
	GameRoomID string
	UserID     string
}

func (g *GameRoom) HasParticipant(userID string) bool {
	for _, p := range g.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
