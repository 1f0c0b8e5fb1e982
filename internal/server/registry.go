package server

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/repowiki/internal/index"
)

// Registry holds built indexes for long-lived processes, keyed by a
// generated handle. It is LRU-bounded so a watch daemon rebuilding for
// days cannot grow without limit, and lock-gated because the watch loop
// and the request loop share it.
type Registry struct {
	mu     sync.RWMutex
	cache  *lru.Cache[string, *index.Index]
	recent string
}

// NewRegistry builds a registry bounded to size entries.
func NewRegistry(size int) (*Registry, error) {
	cache, err := lru.New[string, *index.Index](size)
	if err != nil {
		return nil, fmt.Errorf("create index registry: %w", err)
	}
	return &Registry{cache: cache}, nil
}

// Put stores ix under a fresh handle and marks it most recent. Handles
// are second-resolution timestamps; a collision within the same second
// gets a numeric suffix.
func (r *Registry) Put(ix *index.Index) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := time.Now().UTC().Format("idx_20060102_150405")
	handle := base
	for n := 2; r.cache.Contains(handle); n++ {
		handle = fmt.Sprintf("%s_%d", base, n)
	}
	r.cache.Add(handle, ix)
	r.recent = handle
	return handle
}

// Get looks up a handle. An empty handle resolves to the most recent
// index.
func (r *Registry) Get(handle string) (*index.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handle == "" {
		handle = r.recent
	}
	if handle == "" {
		return nil, false
	}
	return r.cache.Get(handle)
}

// Len reports the number of live indexes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Len()
}
