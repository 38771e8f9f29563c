package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown or evicted session ID.
var ErrNotFound = errors.New("session not found")

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Store is a thread-safe registry of sessions with idle TTL eviction.
// Evicted and deleted sessions are closed.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	factory  func() *Session
	log      *slog.Logger
	now      func() time.Time
}

func NewStore(ttl time.Duration, factory func() *Session, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		factory:  factory,
		log:      log,
		now:      time.Now,
	}
}

// Create starts a new session and returns its ID.
func (st *Store) Create() (string, *Session) {
	id := uuid.NewString()
	s := st.factory()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = &entry{session: s, lastUsed: st.now()}
	return id, s
}

// Get returns a session and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastUsed = st.now()
	return e.session, nil
}

// Delete removes and closes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	e, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	e.session.Close()
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup closes and removes sessions idle longer than the TTL.
func (st *Store) Cleanup() int {
	st.mu.Lock()
	now := st.now()
	var expired []*Session
	for id, e := range st.sessions {
		if now.Sub(e.lastUsed) > st.ttl {
			expired = append(expired, e.session)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		st.log.Info("evicted idle sessions", "count", len(expired))
	}
	return len(expired)
}

// CloseAll closes and removes every session.
func (st *Store) CloseAll() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*entry)
	st.mu.Unlock()

	for _, e := range all {
		e.session.Close()
	}
}

// Run calls Cleanup every interval until ctx is done, then closes every
// remaining session.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			st.CloseAll()
			return
		case <-ticker.C:
			st.Cleanup()
		}
	}
}
