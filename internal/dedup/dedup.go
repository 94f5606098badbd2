// Package dedup suppresses reprocessing of redelivered webhook messages.
// The messaging provider retries deliveries it considers unacknowledged; a
// given message id must trigger exactly one reply within the window.
package dedup

import (
	"sync"
	"time"
)

type Window struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

func NewWindow(ttl time.Duration) *Window {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	w := &Window{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go w.sweepLoop()
	return w
}

// FirstSeen records the message id and reports whether this is its first
// delivery inside the window.
func (w *Window) FirstSeen(messageID string) bool {
	if messageID == "" {
		return true
	}

	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	if at, ok := w.seen[messageID]; ok && now.Sub(at) < w.ttl {
		return false
	}
	w.seen[messageID] = now
	return true
}

func (w *Window) Close() {
	w.once.Do(func() { close(w.done) })
}

func (w *Window) sweepLoop() {
	ticker := time.NewTicker(w.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-w.ttl)
			w.mu.Lock()
			for id, at := range w.seen {
				if at.Before(cutoff) {
					delete(w.seen, id)
				}
			}
			w.mu.Unlock()
		}
	}
}
