package session

import (
	"sync"
	"time"

	"github.com/MrigankDubey/My-Second-app/internal/domain"
)

// entry pairs a session with its submit lock and the engine-side bookkeeping
// that does not belong in the domain record.
type entry struct {
	// mu serializes round mutations for this session. Different sessions
	// proceed fully in parallel.
	mu sync.Mutex

	s *domain.Session

	// attempted tracks which questions have been answered at least once in
	// this session, for first-attempt classification.
	attempted map[int64]struct{}
}

// Registry is the in-memory store of active sessions, keyed by session id.
// Sessions are not persisted: a crash loses in-flight round state only,
// recorded attempts stay durable.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

func (r *Registry) put(s *domain.Session) *entry {
	e := &entry{
		s:         s,
		attempted: make(map[int64]struct{}),
	}

	r.mu.Lock()
	r.entries[s.SessionID] = e
	r.mu.Unlock()

	return e
}

func (r *Registry) get(sessionID string) (*entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[sessionID]
	r.mu.RUnlock()

	return e, ok
}

// Len reports the number of sessions currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Sweep evicts sessions that have not been touched within maxIdle, covering
// both abandoned and finished sessions. Returns the number evicted.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.entries {
		if e.s.UpdateTime.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}

	return n
}
