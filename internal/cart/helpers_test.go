package cart

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

const testKey = "mc-cart-v1:test"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), StoreParams{
		Key:       testKey,
		Persister: p,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

// flakyPersister fails whichever operations are toggled on.
type flakyPersister struct {
	mu        sync.Mutex
	inner     *MemoryPersister
	failLoad  bool
	failSave  bool
	failDel   bool
	saveCalls int
}

func newFlakyPersister() *flakyPersister {
	return &flakyPersister{inner: NewMemoryPersister()}
}

func (f *flakyPersister) Load(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failLoad
	f.mu.Unlock()
	if fail {
		return "", false, errors.New("storage unavailable")
	}
	return f.inner.Load(ctx, key)
}

func (f *flakyPersister) Save(ctx context.Context, key, payload string) error {
	f.mu.Lock()
	f.saveCalls++
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return f.inner.Save(ctx, key, payload)
}

func (f *flakyPersister) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDel
	f.mu.Unlock()
	if fail {
		return errors.New("delete refused")
	}
	return f.inner.Delete(ctx, key)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
