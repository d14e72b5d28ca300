package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/metrics"
)

const (
	opAdd            = "add"
	opUpdateQuantity = "update_quantity"
	opRemove         = "remove"
	opClear          = "clear"
)

// Store is the authoritative cart for one storage key. Every mutation is
// applied in memory first and then written through to the Persister; a failed
// write never rolls the in-memory state back.
//
// A Store is safe for concurrent use. Calls are serialized, so the last call
// wins both in memory and in storage.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	key       string
	persister Persister
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

type StoreParams struct {
	Key       string
	Persister Persister
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
}

// ErrStorageUnavailable is returned by NewStore when the persister could not
// be read. The saved cart is unknown at that point, so no Store is built that
// could overwrite it.
var ErrStorageUnavailable = errors.New("cart storage unavailable")

// NewStore builds a Store and hydrates it from the persister. An absent key,
// invalid JSON or a non-array value start an empty cart.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Key == "" {
		return nil, errors.New("cart storage key required")
	}
	if params.Persister == nil {
		return nil, errors.New("cart persister required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	s := &Store{
		key:       params.Key,
		persister: params.Persister,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}
	items, err := s.hydrate(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) ([]LineItem, error) {
	ctx = s.logg.WithField(ctx, "cart_key", s.key)
	payload, found, err := s.persister.Load(ctx, s.key)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate_failed")
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !found {
		return []LineItem{}, nil
	}
	items, err := decodeItems(payload)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.hydrate_discarded")
		return []LineItem{}, nil
	}
	return items, nil
}

// decodeItems parses a stored snapshot. Elements that are not objects are
// dropped, the rest are normalized, and duplicate (id, variant) rows are merged
// so a hand-edited or legacy snapshot cannot break the merge invariant.
func decodeItems(payload string) ([]LineItem, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if raw == nil {
		return nil, errors.New("cart snapshot is not an array")
	}
	items := make([]LineItem, 0, len(raw))
	for _, elem := range raw {
		var obj map[string]any
		d := json.NewDecoder(bytes.NewReader(elem))
		d.UseNumber()
		if err := d.Decode(&obj); err != nil || obj == nil {
			continue
		}
		items = mergeItem(items, normalizeStored(obj))
	}
	return items, nil
}

func encodeItems(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// mergeItem adds incoming quantity to the row with the same (id, variant), or
// appends a new row.
func mergeItem(items []LineItem, incoming LineItem) []LineItem {
	for i := range items {
		if items[i].ID == incoming.ID && items[i].Variant == incoming.Variant {
			sum := items[i].Quantity + incoming.Quantity
			if sum > maxQuantity || sum < 1 {
				sum = maxQuantity
			}
			items[i].Quantity = sum
			return items
		}
	}
	return append(items, incoming)
}

// Add merges the product into the cart on (id, variant) with additive
// quantity, or appends it.
func (s *Store) Add(ctx context.Context, product ProductInput, qty any) AddResult {
	incoming, synthetic := NormalizeItem(product, qty)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = mergeItem(s.items, incoming)
	var merged LineItem
	for _, item := range s.items {
		if item.ID == incoming.ID && item.Variant == incoming.Variant {
			merged = item
			break
		}
	}
	snap := s.commitLocked(ctx, opAdd)
	return AddResult{Snapshot: snap, Item: merged, Trackable: !synthetic}
}

// UpdateQuantity sets the quantity of every row with the given id, whatever
// its variant. The quantity floors at 1.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty any) Snapshot {
	q := NormalizeQuantity(qty)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = q
		}
	}
	return s.commitLocked(ctx, opUpdateQuantity)
}

// Remove deletes every row with the given id. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return s.commitLocked(ctx, opRemove)
}

// Clear empties the cart and deletes the storage key outright.
func (s *Store) Clear(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

// Checkout hands fn a copy of the items while holding the cart, and clears it
// only if fn succeeds. Mutations issued while fn runs wait and land on the
// cleared cart, so nothing added meanwhile is lost or ordered twice.
func (s *Store) Checkout(ctx context.Context, fn func(items []LineItem) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	if err := fn(items); err != nil {
		return snapshotOf(s.items), err
	}
	return s.clearLocked(ctx), nil
}

func (s *Store) clearLocked(ctx context.Context) Snapshot {
	s.items = []LineItem{}
	s.metrics.IncOperation(opClear)
	snap := snapshotOf(s.items)
	if err := s.persister.Delete(ctx, s.key); err != nil {
		snap.PersistError = s.persistFailed(ctx, opClear, err)
	}
	return snap
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countOf(s.items)
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalOf(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.items)
}

// Key returns the storage key this store writes to.
func (s *Store) Key() string {
	return s.key
}

// commitLocked writes the current items through to storage. Callers hold s.mu.
func (s *Store) commitLocked(ctx context.Context, op string) Snapshot {
	s.metrics.IncOperation(op)
	snap := snapshotOf(s.items)
	payload, err := encodeItems(s.items)
	if err == nil {
		err = s.persister.Save(ctx, s.key, payload)
	}
	if err != nil {
		snap.PersistError = s.persistFailed(ctx, op, err)
	}
	return snap
}

func (s *Store) persistFailed(ctx context.Context, op string, err error) string {
	s.metrics.IncPersistFailure(op)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"cart_key": s.key,
		"op":       op,
	})
	s.logg.Error(ctx, "cart.persist_failed", err)
	return err.Error()
}
