package httpcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKey_SameInputsProduceSameKey(t *testing.T) {
	k1 := Key("GET", "http://x/feed", map[string]string{"Accept": "a"}, []string{"Accept"})
	k2 := Key("GET", "http://x/feed", map[string]string{"Accept": "a"}, []string{"Accept"})
	require.Equal(t, k1, k2)
}

func TestKey_DifferentKeyedHeaderChangesKey(t *testing.T) {
	k1 := Key("GET", "http://x/feed", map[string]string{"Accept": "a"}, []string{"Accept"})
	k2 := Key("GET", "http://x/feed", map[string]string{"Accept": "b"}, []string{"Accept"})
	require.NotEqual(t, k1, k2)
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	c := New(DefaultConfig())
	key := Key("GET", "http://x/feed", nil, nil)
	c.Put(key, &Entry{StatusCode: 200, Body: []byte("hello")})

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, "hello", string(got.Body))
}

func TestCache_DoesNotCacheNon200(t *testing.T) {
	c := New(DefaultConfig())
	key := Key("GET", "http://x/feed", nil, nil)
	c.Put(key, &Entry{StatusCode: 404, Body: []byte("nope")})

	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestCache_SkipsEntriesLargerThanMaxEntrySize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntrySize = 4
	c := New(cfg)
	key := Key("GET", "http://x/feed", nil, nil)
	c.Put(key, &Entry{StatusCode: 200, Body: []byte("toolarge")})

	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = time.Millisecond
	c := New(cfg)
	key := Key("GET", "http://x/feed", nil, nil)
	c.Put(key, &Entry{StatusCode: 200, Body: []byte("hi")})

	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsedWhenOverEntryLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	c := New(cfg)

	kA := Key("GET", "http://x/a", nil, nil)
	kB := Key("GET", "http://x/b", nil, nil)
	kC := Key("GET", "http://x/c", nil, nil)

	c.Put(kA, &Entry{StatusCode: 200, Body: []byte("a")})
	c.Put(kB, &Entry{StatusCode: 200, Body: []byte("b")})
	// touch A so B becomes the least recently used
	_, _ = c.Get(kA)
	c.Put(kC, &Entry{StatusCode: 200, Body: []byte("c")})

	_, okA := c.Get(kA)
	_, okB := c.Get(kB)
	_, okC := c.Get(kC)
	require.True(t, okA)
	require.False(t, okB)
	require.True(t, okC)
	require.Equal(t, 2, c.Entries())
}

func TestCache_EvictsWhenOverByteBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 100
	cfg.MaxBytes = 10
	c := New(cfg)

	kA := Key("GET", "http://x/a", nil, nil)
	kB := Key("GET", "http://x/b", nil, nil)

	c.Put(kA, &Entry{StatusCode: 200, Body: []byte("12345")})
	c.Put(kB, &Entry{StatusCode: 200, Body: []byte("67890")})
	c.Put(kB, &Entry{StatusCode: 200, Body: []byte("abcde")})

	require.LessOrEqual(t, c.Bytes(), int64(10))
}
