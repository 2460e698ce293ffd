// Package lock serializes approve and reject on a staged registration.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrHeld is returned when another caller holds the key.
var ErrHeld = errors.New("lock is held")

// Release frees a held lock. Releasing an expired or stolen lock is a no-op.
type Release func(ctx context.Context) error

// InMemory is a single-process lock table with expiry.
type InMemory struct {
	mu      sync.Mutex
	held    map[string]time.Time
	nowFunc func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{held: make(map[string]time.Time), nowFunc: time.Now}
}

// Acquire takes key for at most ttl. Returns ErrHeld without waiting when the
// key is taken.
func (l *InMemory) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFunc()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, ErrHeld
	}
	expires := now.Add(ttl)
	l.held[key] = expires
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(expires) {
			delete(l.held, key)
		}
		return nil
	}, nil
}
