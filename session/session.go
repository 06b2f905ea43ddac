// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/planetserver/network"
)

// Session 一条连接的服务端身份。Session.ID 同时就是房间内的 Player ID。
type Session struct {
	ID           string
	Conn         network.Connection
	RoomID       string
	roomJoinedAt time.Time
	CreatedAt    time.Time
	LastActive   time.Time
	mutex        sync.RWMutex
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

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

// Enqueue 非阻塞发送，广播路径专用
func (s *Session) Enqueue(msgID uint16, data []byte) bool {
	return s.Conn.Enqueue(msgID, data)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) SetRoom(roomID string) {
	s.mutex.Lock()
	s.RoomID = roomID
	if roomID != "" {
		s.roomJoinedAt = time.Now()
	}
	s.mutex.Unlock()
}

// RoomJoinedAt 最近一次加入房间的时刻，没加入过为零值
func (s *Session) RoomJoinedAt() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.roomJoinedAt
}

func (s *Session) GetRoom() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
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

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
