// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache memoizes values that are expensive to produce, populating
// each key at most once while concurrent requests for it wait on the same
// load.
package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key.
type Loader[V any] func(ctx context.Context) (V, error)

// Cache holds populated values for the lifetime of the process.  Failed
// loads are not remembered, so a later Get retries.
type Cache[V any] struct {
	name string

	mu      sync.RWMutex
	entries map[string]V
	group   singleflight.Group
}

// New creates an empty cache.  The name is only used for logging.
func New[V any](name string) *Cache[V] {
	return &Cache[V]{
		name:    name,
		entries: make(map[string]V),
	}
}

// Get returns the cached value for key, calling load to populate it when
// absent.  Callers arriving while a load is in flight share its result.  The
// load runs detached from any single caller's cancellation, while each caller
// stops waiting when its own context is done.
func (c *Cache[V]) Get(ctx context.Context, key string, load Loader[V]) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	detached := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		v, err := load(detached)
		if err != nil {
			slog.Debug("cache load failed", "cache", c.name, "key", key, "error", err)
			return v, err
		}

		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()

		slog.Debug("cache populated", "cache", c.name, "key", key)

		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}

		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Peek returns the value for key without populating it.
func (c *Cache[V]) Peek(key string) (V, bool) {
	return c.lookup(key)
}

// Len is the number of populated keys.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]

	return v, ok
}
