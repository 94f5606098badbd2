package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a process-local map. Sessions expire after
// ttl of inactivity; a background sweep reclaims them.
//
// The expiry timestamp lives on the map entry, not the shared *Session, so
// the sweeper never reads a struct a handler goroutine may be mutating.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

type memoryEntry struct {
	sess     *Session
	lastSeen time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (m *MemoryStore) Get(_ context.Context, customerID string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[customerID]
	m.mu.RUnlock()

	if ok && time.Since(e.lastSeen) < m.ttl {
		return e.sess, nil
	}
	return New(customerID), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	s.Touch()
	m.mu.Lock()
	m.sessions[s.CustomerID] = memoryEntry{sess: s, lastSeen: s.LastActivity}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, customerID string) error {
	m.mu.Lock()
	delete(m.sessions, customerID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// ActiveCount returns the number of live sessions.
func (m *MemoryStore) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *MemoryStore) sweep() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
}
