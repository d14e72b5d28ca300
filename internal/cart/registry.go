package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/metrics"
)

// DefaultIdleTTL is how long an untouched session stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// Registry hands out one shared Store per storefront session. Every request of
// a session mutates the same instance, and each session is hydrated at most
// once even under concurrent first requests. Sessions idle for longer than the
// idle TTL are dropped by Sweep and re-hydrated from storage on their next Get.
type Registry struct {
	mu         sync.RWMutex
	stores     map[string]*entry
	group      singleflight.Group
	storageKey string
	persister  Persister
	idleTTL    time.Duration
	now        func() time.Time
	logg       *logger.Logger
	metrics    *metrics.CartMetrics
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

type RegistryParams struct {
	StorageKey string
	Persister  Persister
	IdleTTL    time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.CartMetrics
	Now        func() time.Time
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if strings.TrimSpace(params.StorageKey) == "" {
		return nil, errors.New("cart storage key required")
	}
	if params.Persister == nil {
		return nil, errors.New("cart persister required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	idleTTL := params.IdleTTL
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		stores:     make(map[string]*entry),
		storageKey: params.StorageKey,
		persister:  params.Persister,
		idleTTL:    idleTTL,
		now:        now,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// StorageKey namespaces the base key by session.
func StorageKey(base, sessionID string) string {
	return base + ":" + sessionID
}

// Get returns the session's Store, hydrating it on first use. Hydration runs
// detached from ctx cancellation so a client disconnect cannot turn into an
// empty cart. A storage read failure is returned and nothing is cached.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("cart session id required")
	}
	if store, ok := r.touch(sessionID); ok {
		return store, nil
	}

	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if store, ok := r.touch(sessionID); ok {
			return store, nil
		}
		created, err := NewStore(context.WithoutCancel(ctx), StoreParams{
			Key:       StorageKey(r.storageKey, sessionID),
			Persister: r.persister,
			Logger:    r.logg,
			Metrics:   r.metrics,
		})
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.stores[sessionID] = &entry{store: created, lastSeen: r.now()}
		r.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) touch(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

// Forget drops the in-memory Store for a session. The next Get re-hydrates
// from storage.
func (r *Registry) Forget(sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	r.mu.Lock()
	delete(r.stores, sessionID)
	r.mu.Unlock()
}

// Sweep drops every session not seen within the idle TTL and reports how many
// were dropped.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, e := range r.stores {
		if e.lastSeen.Before(cutoff) {
			delete(r.stores, id)
			dropped++
		}
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := r.Sweep(); dropped > 0 {
				r.logg.Info(r.logg.WithField(ctx, "sessions", dropped), "cart.sessions_evicted")
			}
		}
	}
}

// Len reports how many sessions are held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}
