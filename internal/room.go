package internal

import "sort"

func NewRoom(code string) *Room {
	return &Room{
		Code:    code,
		Players: make(map[string]*Player),
		Ready:   make(map[string]struct{}),
	}
}

func (r *Room) PlayerCount() int {
	return len(r.Players)
}

func (r *Room) HasPlayer(userID string) bool {
	_, ok := r.Players[userID]
	return ok
}

// ReadyList returns the acknowledged player IDs in stable order.
func (r *Room) ReadyList() []string {
	ids := make([]string, 0, len(r.Ready))
	for id := range r.Ready {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PlayerSnapshots returns all players in stable (userId) order.
func (r *Room) PlayerSnapshots() []PlayerSnapshot {
	snaps := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.Players {
		snaps = append(snaps, p.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].UserID < snaps[j].UserID })
	return snaps
}
