package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache_GetPut(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)

	_, ok := c.Get("m", "hello")
	assert.False(t, ok)

	c.Put("m", "hello", []float32{1, 2, 3})
	got, ok := c.Get("m", "hello")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)

	_, ok = c.Get("other-model", "hello")
	assert.False(t, ok, "model is part of the key")
}

func TestEmbeddingCache_ReturnsCopies(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)
	v := []float32{1, 2}
	c.Put("m", "x", v)
	v[0] = 99

	got, _ := c.Get("m", "x")
	got[1] = 42

	again, _ := c.Get("m", "x")
	assert.Equal(t, []float32{1, 2}, again)
}

func TestEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)
	c.Put("m", "a", []float32{1})
	c.Put("m", "b", []float32{2})

	_, _ = c.Get("m", "a")
	c.Put("m", "c", []float32{3})

	_, okA := c.Get("m", "a")
	_, okB := c.Get("m", "b")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 2, c.Size())
}

func TestEmbeddingCache_Invalidate(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)
	c.Put("m", "a", []float32{1})
	c.Invalidate()

	_, ok := c.Get("m", "a")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestEmbeddingCache_UsableAfterInvalidate(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)
	c.Put("m", "a", []float32{1})
	c.Put("m", "b", []float32{2})
	c.Invalidate()

	c.Put("m", "c", []float32{3})
	c.Put("m", "d", []float32{4})
	got, ok := c.Get("m", "c")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, got)
	assert.Equal(t, 2, c.Size())

	c.Put("m", "e", []float32{5})
	_, ok = c.Get("m", "d")
	assert.False(t, ok, "eviction order restarts after invalidation")
	assert.Equal(t, 2, c.Size())
}

func TestEmbeddingCache_TTL(t *testing.T) {
	c := NewEmbeddingCache(10, time.Millisecond)
	c.Put("m", "a", []float32{1})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("m", "a")
	assert.False(t, ok)
}
