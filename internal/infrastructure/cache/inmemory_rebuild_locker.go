package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

// lease is a held rebuild lease with its owner token
type lease struct {
	token     string
	expiresAt time.Time
}

// InMemoryRebuildLocker implements snapshot.RebuildLocker with a process-local
// map. Leases are not shared across instances, so it only serves
// single-instance deployments and tests.
type InMemoryRebuildLocker struct {
	mu        sync.Mutex
	leases    map[string]lease
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRebuildLocker creates a new in-memory locker and starts the
// goroutine that drops expired leases.
func NewInMemoryRebuildLocker() *InMemoryRebuildLocker {
	l := &InMemoryRebuildLocker{
		leases:   make(map[string]lease),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Acquire takes the lease for key. An unexpired lease held by someone else
// yields snapshot.ErrRebuildInProgress.
func (l *InMemoryRebuildLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return nil, snapshot.ErrRebuildInProgress
	}

	token := uuid.NewString()
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// A lease that expired and was re-acquired belongs to the new holder.
		if held, ok := l.leases[key]; ok && held.token == token {
			delete(l.leases, key)
		}
		return nil
	}, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (l *InMemoryRebuildLocker) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

func (l *InMemoryRebuildLocker) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *InMemoryRebuildLocker) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, held := range l.leases {
		if !now.Before(held.expiresAt) {
			delete(l.leases, key)
		}
	}
}

// Size returns the number of tracked leases, expired ones included until the next cleanup
func (l *InMemoryRebuildLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.leases)
}

var _ snapshot.RebuildLocker = (*InMemoryRebuildLocker)(nil)
