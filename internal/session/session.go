// Package session holds uploaded tariffs between requests. A session is
// created by a successful upload, its tariff is replaced by every new
// upload, and it ends when the user ends it or it stays idle for too
// long. Nothing is written to durable storage.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/cicconee/freight-app/internal/tariff"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has ended.
var ErrNotFound = errors.New("session not found")

// Session is one user's working state.
type Session struct {
	ID        string
	Tariff    *tariff.Tariff
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store keeps sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: map[string]*Session{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a new session holding t.
func (s *Store) Create(t *tariff.Tariff) Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Tariff:    t,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *sess
}

// Put replaces the tariff of session id with t. The previous tariff is
// discarded. If the session no longer exists a new one is created, so
// the returned ID may differ from id.
func (s *Store) Put(id string, t *tariff.Tariff) Session {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.Tariff = t
		sess.LastSeen = s.now()
		cp := *sess
		s.mu.Unlock()
		return cp
	}
	s.mu.Unlock()

	return s.Create(t)
}

// Get returns session id and marks it as seen.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess.LastSeen = s.now()

	return *sess, nil
}

// Delete ends session id. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)

	return ok
}

// Sweep ends every session that has not been seen for ttl and returns
// how many were ended.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}

	return n
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
