package graph

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LocalLocker is an in-process Locker. Use leaselock.TenantLocker when more
// than one process mutates the same database.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tenantLock
}

type tenantLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[uuid.UUID]*tenantLock{}}
}

func (l *LocalLocker) WithTenantLock(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	tl, ok := l.locks[tenantID]
	if !ok {
		tl = &tenantLock{ch: make(chan struct{}, 1)}
		l.locks[tenantID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, tenantID)
		}
		l.mu.Unlock()
	}()

	select {
	case tl.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-tl.ch }()

	return fn(ctx)
}
