package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repowiki/internal/index"
)

func TestRegistryPutAndGet(t *testing.T) {
	r, err := NewRegistry(4)
	require.NoError(t, err)

	ix := &index.Index{ID: "a"}
	handle := r.Put(ix)
	assert.Regexp(t, `^idx_\d{8}_\d{6}$`, handle)

	got, ok := r.Get(handle)
	require.True(t, ok)
	assert.Same(t, ix, got)

	_, ok = r.Get("idx_19700101_000000")
	assert.False(t, ok)
}

func TestRegistryEmptyHandleResolvesMostRecent(t *testing.T) {
	r, err := NewRegistry(4)
	require.NoError(t, err)

	_, ok := r.Get("")
	assert.False(t, ok, "empty registry has no most recent index")

	r.Put(&index.Index{ID: "first"})
	latest := &index.Index{ID: "second"}
	r.Put(latest)

	got, ok := r.Get("")
	require.True(t, ok)
	assert.Same(t, latest, got)
}

func TestRegistryHandlesCollideWithinOneSecond(t *testing.T) {
	r, err := NewRegistry(8)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		h := r.Put(&index.Index{ID: fmt.Sprintf("ix-%d", i)})
		assert.False(t, seen[h], "duplicate handle %s", h)
		seen[h] = true
	}
}

func TestRegistryBounded(t *testing.T) {
	r, err := NewRegistry(2)
	require.NoError(t, err)

	h1 := r.Put(&index.Index{ID: "one"})
	r.Put(&index.Index{ID: "two"})
	r.Put(&index.Index{ID: "three"})

	assert.Equal(t, 2, r.Len())
	_, ok := r.Get(h1)
	assert.False(t, ok, "oldest entry must be evicted")
}
