package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

type payload struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

func newTestCache(store Store) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(store, logger.Nop(), WithClock(clock.Now)), clock
}

func TestKey(t *testing.T) {
	assert.Equal(t, "find js_javascript", Key("  Find JS ", "JavaScript"))
	assert.Equal(t, "facebook/react", Key("facebook/react"))
}

func TestCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(NewMemoryStore())
	ctx := context.Background()

	in := payload{Names: []string{"a/b", "c/d"}, Count: 2}
	c.Put(ctx, Repos, "k", in)

	var out payload
	require.True(t, c.Get(ctx, Repos, "k", &out))
	assert.Equal(t, in, out)
}

func TestCache_ExpiresPerCategory(t *testing.T) {
	tests := []struct {
		cat Category
		ttl time.Duration
	}{
		{Repos, 1800 * time.Second},
		{Issues, 900 * time.Second},
		{Guides, 3600 * time.Second},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			c, clock := newTestCache(NewMemoryStore())
			ctx := context.Background()
			c.Put(ctx, tt.cat, "k", "v")

			var out string
			clock.Advance(tt.ttl - time.Second)
			assert.True(t, c.Get(ctx, tt.cat, "k", &out))

			clock.Advance(time.Second)
			assert.False(t, c.Get(ctx, tt.cat, "k", &out))
		})
	}
}

func TestCache_PutOverwritesAndRefreshes(t *testing.T) {
	c, clock := newTestCache(NewMemoryStore())
	ctx := context.Background()

	c.Put(ctx, Issues, "k", "old")
	clock.Advance(800 * time.Second)
	c.Put(ctx, Issues, "k", "new")
	clock.Advance(800 * time.Second)

	var out string
	require.True(t, c.Get(ctx, Issues, "k", &out))
	assert.Equal(t, "new", out)
}

func TestCache_CategoriesAreSeparate(t *testing.T) {
	c, _ := newTestCache(NewMemoryStore())
	ctx := context.Background()
	c.Put(ctx, Repos, "facebook/react", "repo")

	var out string
	assert.False(t, c.Get(ctx, Guides, "facebook/react", &out))
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("connection refused") }

func TestCache_StoreErrorIsMiss(t *testing.T) {
	c, _ := newTestCache(brokenStore{})
	ctx := context.Background()

	c.Put(ctx, Repos, "k", "v")
	var out string
	assert.False(t, c.Get(ctx, Repos, "k", &out))
}

func TestCache_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "")
	c, clock := newTestCache(store)
	ctx := context.Background()

	c.Put(ctx, Guides, "facebook/react", payload{Count: 7})
	assert.True(t, mr.Exists("githelpdesk:guide:facebook/react"))
	assert.Equal(t, time.Duration(0), mr.TTL("githelpdesk:guide:facebook/react"))

	var out payload
	require.True(t, c.Get(ctx, Guides, "facebook/react", &out))
	assert.Equal(t, 7, out.Count)

	clock.Advance(time.Hour)
	assert.False(t, c.Get(ctx, Guides, "facebook/react", &out))
	require.NoError(t, store.Ping(ctx))
}

func TestRedisStore_Missing(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")

	_, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}
