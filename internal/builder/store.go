package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/iliyamo/box-builder/internal/model"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionChanged is returned by ClearIf when the session was updated
	// after the caller read it.
	ErrSessionChanged = errors.New("session changed")
)

// SessionStore keeps sessions in process memory. Sessions are not shared
// between server instances.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Create starts an empty session.
func (st *SessionStore) Create() Session {
	now := st.now().UTC()
	s := Session{
		ID:         uuid.NewString(),
		Placements: []model.Placement{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *SessionStore) Get(id string) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Update applies fn to the current state of session id and stores the
// result in one step, bumping its version. fn runs under the store lock, so
// it must not block; load anything it needs from the catalog beforehand.
// When fn fails the stored session is left as it was.
func (st *SessionStore) Update(id string, fn func(Session) (Session, error)) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	next.ID = cur.ID
	next.Version = cur.Version + 1
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = st.now().UTC()
	st.sessions[id] = next
	return next, nil
}

// ClearIf empties session id only while it is still at version. A session
// updated since the caller read it is left alone and ErrSessionChanged is
// returned.
func (st *SessionStore) ClearIf(id string, version uint64) (Session, error) {
	return st.Update(id, func(cur Session) (Session, error) {
		if cur.Version != version {
			return cur, fmt.Errorf("%w: at version %d, read at %d", ErrSessionChanged, cur.Version, version)
		}
		return cur.Clear(), nil
	})
}

// Delete abandons a session. It reports whether the session existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many were
// removed.
func (st *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := st.now().UTC().Add(-ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (st *SessionStore) RunSweeper(ctx context.Context, every, ttl time.Duration, logger *log.Logger) {
	if every <= 0 || ttl <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Sweep(ttl); n > 0 {
				logger.Debug("swept idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}
