package session

import "context"

// Store defines the interface for conversation session storage.
// This allows us to swap between in-memory, Redis, etc.
type Store interface {
	// Get loads the session for a customer, creating an empty one if absent.
	Get(ctx context.Context, customerID string) (*Session, error)

	// Save persists the session.
	Save(ctx context.Context, s *Session) error

	// Clear removes the session entirely.
	Clear(ctx context.Context, customerID string) error

	// Close releases store resources.
	Close() error
}
