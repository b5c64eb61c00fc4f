package internal

import "errors"

// Every failure in the session layer is recoverable at the room level; these
// sentinels classify them for the wire. Wrap with fmt.Errorf("...: %w", err)
// to add context without losing the class.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("user not part of room")
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomFull       = errors.New("room is full")
	ErrInvalidPhase   = errors.New("submissions are only accepted while an item is displayed")
	ErrTransient      = errors.New("temporary backend failure")
)

// ErrorCode maps an error to the stable code carried on error events, so
// clients can distinguish a dead room from a full one without string
// matching.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrPlayerNotFound):
		return "not_found"
	case errors.Is(err, ErrRoomExists):
		return "conflict"
	case errors.Is(err, ErrRoomFull):
		return "capacity"
	case errors.Is(err, ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}
