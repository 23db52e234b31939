package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds live sessions and expires the ones idle longer than ttl.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: make(map[string]*Session), ttl: ttl, now: time.Now}
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		return nil, ErrNotFound
	}
	s.lastSeen = st.now()
	return s, nil
}

// GetOrCreate returns the live session for id, or a fresh one under a new ID.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if s, ok := st.sessions[id]; ok && !st.expired(s) {
		s.lastSeen = now
		return s
	}

	s := newSession(uuid.New().String(), now)
	st.sessions[s.ID] = s
	return s
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (st *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func (st *Store) expired(s *Session) bool {
	return st.ttl > 0 && st.now().Sub(s.lastSeen) > st.ttl
}
