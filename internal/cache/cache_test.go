package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_ExpiryIsLazy(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewWithClock(clock)

	c.Set("k", []byte("v"), 30*time.Minute)

	clock.Advance(29 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry should still be live before TTL")

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, c.Len(), "expired entry stays until read")

	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must read as absent")
	assert.Equal(t, 0, c.Len(), "read of an expired entry evicts it")
}

func TestCache_SetRefreshesTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewWithClock(clock)

	c.Set("k", []byte("old"), time.Hour)
	clock.Advance(50 * time.Minute)
	c.Set("k", []byte("new"), time.Hour)
	clock.Advance(30 * time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestCache_ConcurrentDistinctKeys(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			c.Set(key, []byte(key), time.Minute)
			for j := 0; j < 100; j++ {
				got, ok := c.Get(key)
				if !ok || string(got) != key {
					t.Errorf("key %s corrupted", key)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
