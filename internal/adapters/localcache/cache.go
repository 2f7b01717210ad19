// Package localcache provides an in-process cache with the same interface
// as the Redis adapter, plus a Layered combinator that puts the in-process
// cache in front of a shared one.
package localcache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/observability"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

type Cache struct{ c *gocache.Cache }

func New(defaultTTL time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Values are stored as JSON so memory and Redis round-trip identically.
func (m *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(v.([]byte), dst)
}

func (m *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("memory", "set")
	m.c.Set(key, b, time.Duration(ttlSec)*time.Second)
	return nil
}

func (m *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	m.c.Delete(key)
	return nil
}

// Layered reads memory first, falls through to the shared cache and promotes
// hits into memory. Writes and deletes go to both layers.
type Layered struct {
	mem    domain.Cache
	shared domain.Cache
}

func NewLayered(mem, shared domain.Cache) *Layered {
	return &Layered{mem: mem, shared: shared}
}

func (l *Layered) Get(ctx context.Context, key string, dst any) (bool, error) {
	if ok, err := l.mem.Get(ctx, key, dst); err == nil && ok {
		return true, nil
	}
	ok, err := l.shared.Get(ctx, key, dst)
	if err != nil || !ok {
		return ok, err
	}
	// Promote; TTL here is the memory default horizon, not the shared TTL.
	_ = l.mem.Set(ctx, key, dst, 300)
	return true, nil
}

func (l *Layered) Set(ctx context.Context, key string, v any, ttlSec int) error {
	_ = l.mem.Set(ctx, key, v, ttlSec)
	return l.shared.Set(ctx, key, v, ttlSec)
}

func (l *Layered) Del(ctx context.Context, key string) error {
	_ = l.mem.Del(ctx, key)
	return l.shared.Del(ctx, key)
}
