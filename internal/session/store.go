package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/salesmap-backend-go/internal/auth"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
)

// Store keeps live sessions in memory
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore(opts Options) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		now:      time.Now,
	}
}

// Create starts an unrestricted admin session with fresh view state
func (st *Store) Create(username string) *Session {
	return st.CreateFor(auth.Principal{Username: username, Role: auth.RoleAdmin})
}

// CreateFor starts a session carrying p's role and state scope
func (st *Store) CreateFor(p auth.Principal) *Session {
	s := newSession(uuid.NewString(), p, st.opts, st.clock)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{"session": s.ID, "user": p.Username, "role": p.Role}).Debug("session created")
	return s
}

// Get looks up a live session
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete tears a session down
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	return nil
}

func (st *Store) clock() time.Time { return st.now() }

// Len is the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Expire removes sessions idle for longer than ttl
func (st *Store) Expire(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.RLock()
	stale := make(map[string]*Session)
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			stale[id] = s
		}
	}
	st.mu.RUnlock()

	n := 0
	for id, s := range stale {
		if st.expireIfIdle(id, s, cutoff) {
			n++
		}
	}
	return n
}

// expireIfIdle tears s down only if it is still idle past cutoff; a session
// touched since it was collected survives
func (st *Store) expireIfIdle(id string, s *Session, cutoff time.Time) bool {
	if !s.closeIfIdle(cutoff) {
		return false
	}
	st.mu.Lock()
	if st.sessions[id] == s {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
	logger.Log.WithField("session", id).Debug("session expired")
	return true
}
