package internal

func NewPlayer(userID, connID string) *Player {
	return &Player{
		UserID: userID,
		ConnID: connID,
		Health: StartingHealth,
	}
}

// Rebind points an existing player at a new transport connection. Identity
// and health survive; only the socket changes.
func (p *Player) Rebind(connID string) {
	p.ConnID = connID
}

func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		SocketID: p.ConnID,
		UserID:   p.UserID,
		Health:   p.Health,
	}
}
