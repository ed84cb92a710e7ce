package game

import "sync"

// Conn is a live client connection as seen by the coordinator.
type Conn interface {
	ID() string
	Send(frame []byte) error
}

// Session is what this process knows about one of its connections.
type Session struct {
	Conn     Conn
	RoomID   string
	PlayerID string
	ClientID string
}

// Directory maps local connections to the room and player they act as.
type Directory interface {
	Register(conn Conn)
	Unregister(connID string)
	Bind(connID, roomID, playerID, clientID string)
	Unbind(connID string)
	Lookup(connID string) (Session, bool)
	PlayerSession(roomID, playerID string) (Session, bool)
	InRoom(roomID string) []Session
	All() []Session
}

type localDirectory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	// roomID -> playerID -> connID
	rooms map[string]map[string]string
}

func NewDirectory() Directory {
	return &localDirectory{
		sessions: map[string]*Session{},
		rooms:    map[string]map[string]string{},
	}
}

func (d *localDirectory) Register(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[conn.ID()]; ok {
		return
	}
	d.sessions[conn.ID()] = &Session{Conn: conn}
}

func (d *localDirectory) Unregister(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unbindLocked(connID)
	delete(d.sessions, connID)
}

func (d *localDirectory) Bind(connID, roomID, playerID, clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[connID]
	if !ok {
		return
	}
	d.unbindLocked(connID)
	s.RoomID, s.PlayerID, s.ClientID = roomID, playerID, clientID
	players, ok := d.rooms[roomID]
	if !ok {
		players = map[string]string{}
		d.rooms[roomID] = players
	}
	players[playerID] = connID
}

func (d *localDirectory) Unbind(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unbindLocked(connID)
}

func (d *localDirectory) unbindLocked(connID string) {
	s, ok := d.sessions[connID]
	if !ok || s.RoomID == "" {
		return
	}
	if players, ok := d.rooms[s.RoomID]; ok {
		if players[s.PlayerID] == connID {
			delete(players, s.PlayerID)
		}
		if len(players) == 0 {
			delete(d.rooms, s.RoomID)
		}
	}
	s.RoomID, s.PlayerID, s.ClientID = "", "", ""
}

func (d *localDirectory) Lookup(connID string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

func (d *localDirectory) PlayerSession(roomID, playerID string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	connID, ok := d.rooms[roomID][playerID]
	if !ok {
		return Session{}, false
	}
	return *d.sessions[connID], true
}

func (d *localDirectory) InRoom(roomID string) []Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Session, 0, len(d.rooms[roomID]))
	for _, connID := range d.rooms[roomID] {
		out = append(out, *d.sessions[connID])
	}
	return out
}

func (d *localDirectory) All() []Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, *s)
	}
	return out
}
