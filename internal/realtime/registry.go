package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Session — привязка живого соединения к черновику, в котором работает
// пользователь. По ней при обрыве соединения снимаются отметки
// присутствия.
type Session struct {
	UserID    uuid.UUID
	StoryID   uuid.UUID
	VersionID uuid.UUID
}

// SessionRegistry — потокобезопасный реестр connID -> Session.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]Session),
	}
}

// Set привязывает соединение к черновику. Повторный Set перезаписывает
// старую привязку (клиент перешел в другую историю в той же вкладке).
func (r *SessionRegistry) Set(connID string, session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = session
}

// Get возвращает привязку соединения.
func (r *SessionRegistry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[connID]
	return session, ok
}

// Delete снимает привязку и возвращает ее, если она была.
func (r *SessionRegistry) Delete(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return session, ok
}

// Len возвращает число привязанных соединений.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
