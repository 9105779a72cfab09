package core

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// memo is a bounded, content-keyed memoization cache.
//
// Entries are evicted least-recently-used once size is reached. Concurrent
// misses on the same key run the compute function once. Errors are never
// cached. Values are shared between callers and must not be mutated.
type memo[V any] struct {
	entries *lru.Cache[string, V]
	group   singleflight.Group
}

func newMemo[V any](size int) (*memo[V], error) {
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &memo[V]{entries: entries}, nil
}

// Get returns a cached value without computing it.
func (m *memo[V]) Get(key string) (V, bool) {
	return m.entries.Get(key)
}

// Do returns the cached value for key, computing and storing it on a miss.
// hit reports whether the value came from the cache.
//
// The shared computation runs under ctx without its cancellation, so one
// caller giving up does not fail the others waiting on the same key. Each
// caller still returns ctx.Err() as soon as its own ctx ends.
func (m *memo[V]) Do(ctx context.Context, key string, compute func(context.Context) (V, error)) (v V, hit bool, err error) {
	if v, ok := m.entries.Get(key); ok {
		return v, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (interface{}, error) {
		if v, ok := m.entries.Get(key); ok {
			return v, nil
		}
		v, err := compute(shared)
		if err != nil {
			return nil, err
		}
		m.entries.Add(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}

// Len returns the number of cached entries.
func (m *memo[V]) Len() int {
	return m.entries.Len()
}

// contentKey hashes its parts into a cache key. Parts are length-prefixed so
// ("ab", "c") and ("a", "bc") differ.
func contentKey(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
