package cart

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingPersister struct {
	*MemoryPersister
	loads atomic.Int32
}

func (c *countingPersister) Load(ctx context.Context, key string) (string, bool, error) {
	c.loads.Add(1)
	return c.MemoryPersister.Load(ctx, key)
}

// contextPersister fails reads once the caller's context is done, the way the
// redis and database persisters do.
type contextPersister struct {
	*MemoryPersister
}

func (c contextPersister) Load(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	return c.MemoryPersister.Load(ctx, key)
}

func newTestRegistry(t *testing.T, p Persister) *Registry {
	t.Helper()
	reg, err := NewRegistry(RegistryParams{StorageKey: "mc-cart-v1", Persister: p, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func TestRegistrySharesStorePerSession(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, NewMemoryPersister())

	a1, err := reg.Get(ctx, "session-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	a2, _ := reg.Get(ctx, "session-a")
	b, _ := reg.Get(ctx, "session-b")

	if a1 != a2 {
		t.Fatal("same session must return the same store instance")
	}
	if a1 == b {
		t.Fatal("different sessions must not share a store")
	}
	if a1.Key() != "mc-cart-v1:session-a" {
		t.Fatalf("unexpected storage key %q", a1.Key())
	}

	a1.Add(ctx, ProductInput{ID: "p1", Price: 10}, 1)
	if a2.Count() != 1 || b.Count() != 0 {
		t.Fatal("mutations must be visible through the shared reference only")
	}
}

func TestRegistryHydratesOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	p := &countingPersister{MemoryPersister: NewMemoryPersister()}
	reg := newTestRegistry(t, p)

	var wg sync.WaitGroup
	stores := make([]*Store, 20)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.Get(ctx, "hot-session")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores[1:] {
		if s != stores[0] {
			t.Fatal("concurrent first requests must share one store")
		}
	}
	if got := p.loads.Load(); got != 1 {
		t.Fatalf("expected a single hydration, got %d", got)
	}
}

func TestRegistryForgetRehydrates(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, NewMemoryPersister())

	s1, _ := reg.Get(ctx, "s")
	s1.Add(ctx, ProductInput{ID: "p1", Price: 10}, 3)
	reg.Forget(" s ")
	if reg.Len() != 0 {
		t.Fatalf("expected registry to be empty, got %d", reg.Len())
	}

	s2, _ := reg.Get(ctx, "s")
	if s1 == s2 {
		t.Fatal("forget must drop the cached instance")
	}
	if s2.Count() != 3 {
		t.Fatalf("rehydrated store should read the persisted cart, got %d", s2.Count())
	}
}

func TestRegistryValidation(t *testing.T) {
	if _, err := NewRegistry(RegistryParams{Persister: NewMemoryPersister(), Logger: testLogger()}); err == nil {
		t.Fatal("expected error without storage key")
	}
	reg := newTestRegistry(t, NewMemoryPersister())
	if _, err := reg.Get(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank session")
	}
}

func TestRegistryHydrationIgnoresCallerCancellation(t *testing.T) {
	p := contextPersister{MemoryPersister: NewMemoryPersister()}
	_ = p.Save(context.Background(), "mc-cart-v1:s", `[{"id":"p1","unitPrice":10,"quantity":3}]`)
	reg := newTestRegistry(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, err := reg.Get(ctx, "s")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	store.Add(context.Background(), ProductInput{ID: "p2", Price: 5}, 1)
	if store.Count() != 4 {
		t.Fatalf("saved cart must survive a cancelled first request, got %+v", store.Items())
	}
}

func TestRegistryDoesNotCacheFailedHydration(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyPersister()
	_ = flaky.Save(ctx, "mc-cart-v1:s", `[{"id":"p1","unitPrice":10,"quantity":3}]`)
	flaky.failLoad = true
	reg := newTestRegistry(t, flaky)

	if _, err := reg.Get(ctx, "s"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed hydration must not be cached, registry holds %d", reg.Len())
	}

	flaky.mu.Lock()
	flaky.failLoad = false
	flaky.mu.Unlock()
	store, err := reg.Get(ctx, "s")
	if err != nil {
		t.Fatalf("get after recovery: %v", err)
	}
	if store.Count() != 3 {
		t.Fatalf("expected the saved cart once storage recovers, got %+v", store.Items())
	}
}

func TestRegistrySweepDropsIdleSessions(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg, err := NewRegistry(RegistryParams{
		StorageKey: "mc-cart-v1",
		Persister:  NewMemoryPersister(),
		IdleTTL:    10 * time.Minute,
		Logger:     testLogger(),
		Now:        func() time.Time { return clock },
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	for i := 0; i < 500; i++ {
		if _, err := reg.Get(ctx, "anon-"+strconv.Itoa(i)); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	kept, _ := reg.Get(ctx, "active")
	kept.Add(ctx, ProductInput{ID: "p1", Price: 10}, 2)

	clock = clock.Add(8 * time.Minute)
	if _, err := reg.Get(ctx, "active"); err != nil {
		t.Fatalf("get: %v", err)
	}
	clock = clock.Add(5 * time.Minute)

	if dropped := reg.Sweep(); dropped != 500 {
		t.Fatalf("expected 500 idle sessions dropped, got %d", dropped)
	}
	if reg.Len() != 1 {
		t.Fatalf("only the active session should remain, got %d", reg.Len())
	}
	again, _ := reg.Get(ctx, "active")
	if again != kept {
		t.Fatal("a recently used session must keep its store")
	}

	clock = clock.Add(time.Hour)
	reg.Sweep()
	rehydrated, _ := reg.Get(ctx, "active")
	if rehydrated == kept || rehydrated.Count() != 2 {
		t.Fatalf("evicted session should re-hydrate from storage, got count %d", rehydrated.Count())
	}
}
