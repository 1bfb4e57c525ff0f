// Package cache stores fetched building sets keyed by bbox.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"urban3d/internal/building"
)

var ErrMiss = errors.New("cache: miss")

// Entry is one cached fetch.
type Entry struct {
	Buildings []building.Building `json:"buildings"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Age reports how old e is at now.
func (e Entry) Age(now time.Time) time.Duration { return now.Sub(e.FetchedAt) }

// Store is a key/value store of entries. Get returns ErrMiss when nothing is
// stored or the entry has expired.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu  sync.RWMutex
	m   map[string]memItem
	now func() time.Time
}

type memItem struct {
	e       Entry
	expires time.Time
}

// NewMemory returns an empty store. now defaults to time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{m: make(map[string]memItem), now: now}
}

func (c *Memory) Get(_ context.Context, key string) (Entry, error) {
	c.mu.RLock()
	it, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, ErrMiss
	}
	if !it.expires.IsZero() && !c.now().Before(it.expires) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return Entry{}, ErrMiss
	}
	return it.e, nil
}

// Set stores e; a non-positive ttl never expires.
func (c *Memory) Set(_ context.Context, key string, e Entry, ttl time.Duration) error {
	it := memItem{e: e}
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = it
	c.mu.Unlock()
	return nil
}

func (c *Memory) Close() error { return nil }

func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
