// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/wordserver/network"
)

// Session is one live connection. UserID/Username/RoomID are set when the
// connection binds to a room and cleared on unbind.
type Session struct {
	ID         string
	Conn       network.Connection
	UserID     string
	Username   string
	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

// Binding is the (user, room) pair a connection was attached to.
type Binding struct {
	UserID   string
	Username string
	RoomID   string
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) Send(event string, data []byte) error {
	s.Touch()
	return s.Conn.Send(event, data)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) IdleSince() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.LastActive
}

func (s *Session) Binding() Binding {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return Binding{UserID: s.UserID, Username: s.Username, RoomID: s.RoomID}
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks live sessions and their room bindings.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// Bind attaches a session to (user, room), overwriting any prior binding
// for that session.
func (m *Manager) Bind(sessionID, userID, username, roomID string) (*Session, bool) {
	m.mutex.RLock()
	session, exists := m.sessions[sessionID]
	m.mutex.RUnlock()
	if !exists {
		return nil, false
	}

	session.mutex.Lock()
	session.UserID = userID
	session.Username = username
	session.RoomID = roomID
	session.mutex.Unlock()
	return session, true
}

// Unbind clears a session's binding and returns what it was. The second
// return is false when the session was never bound.
func (m *Manager) Unbind(sessionID string) (Binding, bool) {
	m.mutex.RLock()
	session, exists := m.sessions[sessionID]
	m.mutex.RUnlock()
	if !exists {
		return Binding{}, false
	}

	session.mutex.Lock()
	prior := Binding{UserID: session.UserID, Username: session.Username, RoomID: session.RoomID}
	session.UserID = ""
	session.Username = ""
	session.RoomID = ""
	session.mutex.Unlock()

	if prior.RoomID == "" {
		return Binding{}, false
	}
	return prior, true
}

func (m *Manager) GetByUserID(userID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Binding().UserID == userID {
			result = append(result, session)
		}
	}
	return result
}

// Count returns the number of live sessions. Feeds the online players gauge.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// IdleSessions returns sessions whose last activity is older than cutoff.
func (m *Manager) IdleSessions(cutoff time.Time) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.IdleSince().Before(cutoff) {
			result = append(result, session)
		}
	}
	return result
}
