package cart

import (
	"context"
	"errors"
	"time"

	"github.com/mcbeauty/storefront-backend/pkg/redis"
)

// kvStore is the slice of pkg/redis.Client the cart needs.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(storageKey, sessionID string) string
}

// RedisPersister stores snapshots under mc:cart:<key> with an optional TTL so
// abandoned carts expire on their own.
type RedisPersister struct {
	store kvStore
	ttl   time.Duration
}

func NewRedisPersister(store kvStore, ttl time.Duration) (*RedisPersister, error) {
	if store == nil {
		return nil, errors.New("redis store required")
	}
	if ttl < 0 {
		return nil, errors.New("cart ttl must be non-negative")
	}
	return &RedisPersister{store: store, ttl: ttl}, nil
}

func (p *RedisPersister) Load(ctx context.Context, key string) (string, bool, error) {
	v, err := p.store.Get(ctx, p.store.CartKey(key, ""))
	if err != nil {
		if redis.IsMissing(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (p *RedisPersister) Save(ctx context.Context, key string, payload string) error {
	return p.store.Set(ctx, p.store.CartKey(key, ""), payload, p.ttl)
}

func (p *RedisPersister) Delete(ctx context.Context, key string) error {
	return p.store.Del(ctx, p.store.CartKey(key, ""))
}
