package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func stringKey(k string) string { return k }

func TestCacheSetGet(t *testing.T) {
	c := New[string, int](Config{TTL: time.Minute}, stringKey)

	c.Set("feed:rss", 1)

	got, found := c.Get("feed:rss")
	require.True(t, found)
	require.Equal(t, 1, got)

	_, found = c.Get("feed:atom")
	require.False(t, found)
}

func TestCacheInvalidatePattern(t *testing.T) {
	c := New[string, string](Config{TTL: time.Minute}, stringKey)

	c.Set("feed:rss", "a")
	c.Set("feed:atom", "b")
	c.Set("other:rss", "c")

	c.InvalidatePattern("feed:")

	_, found := c.Get("feed:rss")
	require.False(t, found)
	_, found = c.Get("feed:atom")
	require.False(t, found)

	got, found := c.Get("other:rss")
	require.True(t, found)
	require.Equal(t, "c", got)
}

func TestCacheClear(t *testing.T) {
	c := New[string, string](Config{TTL: time.Minute}, stringKey)

	c.Set("feed:rss", "a")
	c.Clear()

	_, found := c.Get("feed:rss")
	require.False(t, found)
}
