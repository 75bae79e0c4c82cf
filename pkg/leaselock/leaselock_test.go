package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	key string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

type heldLock struct {
	token   string
	expires time.Time
}

// fakeLocks mimics the app_locks statements against an in-memory table.
type fakeLocks struct {
	mu    sync.Mutex
	locks map[string]heldLock
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{locks: map[string]heldLock{}}
}

func (f *fakeLocks) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sql != releaseSQL {
		return pgconn.CommandTag{}, errors.New("unexpected exec")
	}
	key, token := args[0].(string), args[1].(string)
	if held, ok := f.locks[key]; ok && held.token == token {
		delete(f.locks, key)
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (f *fakeLocks) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, token, ttl := args[0].(string), args[1].(string), args[2].(int64)
	expires := time.Now().Add(time.Duration(ttl) * time.Millisecond)

	held, ok := f.locks[key]
	switch sql {
	case tryAcquireSQL:
		if ok && held.expires.After(time.Now()) && held.token != token {
			return fakeRow{err: pgx.ErrNoRows}
		}
		f.locks[key] = heldLock{token: token, expires: expires}
		return fakeRow{key: key}
	case renewSQL:
		if !ok || held.token != token {
			return fakeRow{err: pgx.ErrNoRows}
		}
		f.locks[key] = heldLock{token: token, expires: expires}
		return fakeRow{key: key}
	}
	return fakeRow{err: errors.New("unexpected query")}
}

func (f *fakeLocks) held(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.locks[key]
	return ok
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{}.normalize()
	if o.TTL != 5*time.Minute {
		t.Fatalf("expected default ttl, got %s", o.TTL)
	}
	if o.RenewEvery != o.TTL/2 {
		t.Fatalf("expected renew at half ttl, got %s", o.RenewEvery)
	}
	if o.WaitInterval != 250*time.Millisecond {
		t.Fatalf("expected default wait interval, got %s", o.WaitInterval)
	}

	o = Options{TTL: 10 * time.Second, RenewEvery: time.Minute, WaitJitter: -time.Second}.normalize()
	if o.RenewEvery != 5*time.Second {
		t.Fatalf("renew interval must stay below ttl, got %s", o.RenewEvery)
	}
	if o.WaitJitter != 0 {
		t.Fatalf("negative jitter must be clamped, got %s", o.WaitJitter)
	}
}

func TestAcquire_BusyWithoutWait(t *testing.T) {
	db := newFakeLocks()
	c := New(db)
	ctx := context.Background()

	lease, err := c.Acquire(ctx, "graph:t1", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := c.Acquire(ctx, "graph:t1", Options{TTL: time.Minute}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if db.held("graph:t1") {
		t.Fatal("lock row should be gone after release")
	}
	if lease.Context.Err() == nil {
		t.Fatal("lease context must be canceled after release")
	}
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	db := newFakeLocks()
	c := New(db)
	ctx := context.Background()

	first, err := c.Acquire(ctx, "graph:t1", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = first.Release(context.Background())
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	second, err := c.Acquire(waitCtx, "graph:t1", Options{TTL: time.Minute, Wait: true, WaitInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("waiting acquire: %v", err)
	}
	_ = second.Release(ctx)
}

func TestTenantLocker_SerializesSameTenant(t *testing.T) {
	db := newFakeLocks()
	locker := NewTenantLocker(New(db), "graph:", Options{TTL: time.Minute, Wait: true, WaitInterval: time.Millisecond})
	tenant := uuid.New()

	if got := locker.Key(tenant); got != "graph:"+tenant.String() {
		t.Fatalf("unexpected key %q", got)
	}

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithTenantLock(context.Background(), tenant, func(ctx context.Context) error {
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("with tenant lock: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder at a time, saw %d", maxSeen)
	}
	if db.held(locker.Key(tenant)) {
		t.Fatal("lock must be released after the last holder")
	}
}

func TestTenantLocker_RejectsNilTenant(t *testing.T) {
	locker := NewTenantLocker(New(newFakeLocks()), "graph:", Options{})
	err := locker.WithTenantLock(context.Background(), uuid.Nil, func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for nil tenant")
	}
}
