package internal

// Message is the wire envelope for every socket event, inbound and outbound.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// =============================================================================
// INBOUND PAYLOADS
// =============================================================================

type RoomEvent struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type ProvinceEvent struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Province string `json:"province"`
}

type RoomDataRequest struct {
	RoomID string `json:"roomId"`
}

// =============================================================================
// OUTBOUND PAYLOADS
// =============================================================================

type PlayerSnapshot struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
	Health   int    `json:"health"`
}

type RoomDataPayload struct {
	RoomID      string                    `json:"roomId"`
	Players     map[string]PlayerSnapshot `json:"players"`
	PlayerCount int                       `json:"playerCount"`
}

// JoinAckPayload acknowledges roomCreated, joinedRoom and roomRejoined.
type JoinAckPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Health int    `json:"health"`
}

type ReadyStatePayload struct {
	ReadyPlayers []string `json:"readyPlayers"`
	TotalPlayers int      `json:"totalPlayers"`
}

type GameStartedPayload struct {
	RoomID string `json:"roomId"`
}

type ContentStatePayload struct {
	Phase        DisplayPhase `json:"phase"`
	CurrentIndex int          `json:"currentIndex"`
	Countdown    int          `json:"countdown"`
	TotalItems   int          `json:"totalItems"`
	CurrentItem  *ContentItem `json:"currentItem,omitempty"`
}

type ProvinceSelectedPayload struct {
	UserID   string `json:"userId"`
	Province string `json:"province"`
}

type OpponentSubmittedPayload struct {
	UserID   string `json:"userId"`
	Province string `json:"province"`
}

type BothSubmittedPayload struct {
	Message         string `json:"message"`
	SubmissionCount int    `json:"submissionCount"`
	TotalPlayers    int    `json:"totalPlayers"`
}

type PlayerResult struct {
	UserID    string `json:"userId"`
	Province  string `json:"province"`
	IsCorrect bool   `json:"isCorrect"`
	Health    int    `json:"health"`
}

type ShowResultsPayload struct {
	Results       []PlayerResult `json:"results"`
	CorrectAnswer string         `json:"correctAnswer"`
	ContentItem   ContentItem    `json:"contentItem"`
}

type NextRoundPayload struct {
	Players []PlayerSnapshot `json:"players"`
}

// GameOverPayload names the surviving player, or no one when both reached
// zero in the same round.
type GameOverPayload struct {
	Winner  string           `json:"winner"`
	Players []PlayerSnapshot `json:"players"`
}

type PlayerLeftPayload struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
