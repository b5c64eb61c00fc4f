package websockets

import (
	"sync"

	"github.com/google/uuid"
)

// Socket is the subset of *websocket.Conn the session layer writes through.
// Narrowing the surface keeps the hub testable without a live upgrade.
type Socket interface {
	WriteJSON(v any) error
	Close() error
}

// Conn wraps one client connection with a stable identifier and a write
// mutex. gorilla/websocket allows at most one concurrent writer, and both
// handlers and the per-room ticker write to the same socket.
type Conn struct {
	ID string

	mu   sync.Mutex
	sock Socket
}

func NewConn(sock Socket) *Conn {
	return &Conn{ID: uuid.NewString(), sock: sock}
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.sock.Close()
}

// Groups tracks which connections are joined to which room's broadcast
// group, mirroring what a socket adapter would expose. Membership here is
// the ground truth the presence reconciler checks recorded connection IDs
// against.
type Groups struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Conn
}

func NewGroups() *Groups {
	return &Groups{groups: make(map[string]map[string]*Conn)}
}

func (g *Groups) Join(code string, c *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groups[code] == nil {
		g.groups[code] = make(map[string]*Conn)
	}
	g.groups[code][c.ID] = c
}

func (g *Groups) Leave(code string, c *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.groups[code], c.ID)
	if len(g.groups[code]) == 0 {
		delete(g.groups, code)
	}
}

// LeaveAll removes the connection from every group and returns the codes it
// was joined to, so disconnect handling knows which rooms to clean.
func (g *Groups) LeaveAll(c *Conn) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var codes []string
	for code, members := range g.groups {
		if _, ok := members[c.ID]; !ok {
			continue
		}
		delete(members, c.ID)
		if len(members) == 0 {
			delete(g.groups, code)
		}
		codes = append(codes, code)
	}
	return codes
}

// Members returns the set of connection IDs currently joined to the group.
func (g *Groups) Members(code string) map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make(map[string]struct{}, len(g.groups[code]))
	for id := range g.groups[code] {
		ids[id] = struct{}{}
	}
	return ids
}

// snapshot copies the member list so sends happen without the lock held.
func (g *Groups) snapshot(code string) []*Conn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	conns := make([]*Conn, 0, len(g.groups[code]))
	for _, c := range g.groups[code] {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast delivers the payload to every connection in the group. Write
// failures are the read loop's problem; a dead socket surfaces there as a
// read error and is cleaned up through the normal disconnect path.
func (g *Groups) Broadcast(code string, v any) {
	for _, c := range g.snapshot(code) {
		_ = c.WriteJSON(v)
	}
}

// BroadcastExcept delivers to everyone in the group but the origin.
func (g *Groups) BroadcastExcept(code string, exceptConnID string, v any) {
	for _, c := range g.snapshot(code) {
		if c.ID == exceptConnID {
			continue
		}
		_ = c.WriteJSON(v)
	}
}
