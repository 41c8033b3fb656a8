package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripost/backend/internal/cache"
	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/places"
)

// ---- Mocks ----

type mockSuggester struct {
	SuggestFn func(ctx context.Context, q places.Query) ([]domain.Suggestion, error)
	calls     int
}

var _ places.Suggester = (*mockSuggester)(nil)

func (m *mockSuggester) Suggest(ctx context.Context, q places.Query) ([]domain.Suggestion, error) {
	m.calls++
	return m.SuggestFn(ctx, q)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]domain.Suggestion, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, []domain.Suggestion) error {
	return errors.New("connection refused")
}

var fushimi = []domain.Suggestion{
	{PlaceID: "ChIJIW0uPRUPAWARTm1M7fSDh3w", Description: "Fushimi Inari Taisha, Kyoto, Japan", MainText: "Fushimi Inari Taisha"},
}

func newRedisStore(t *testing.T, ttl time.Duration) (*cache.RedisSuggestStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.NewRedisSuggestStore(rdb, ttl), mr
}

// ---- RedisSuggestStore ----

func TestRedisSuggestStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "fushimi")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "fushimi", fushimi))
	got, ok, err := store.Get(ctx, "fushimi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fushimi, got)
}

func TestRedisSuggestStore_Expires(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "fushimi", fushimi))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "fushimi")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ---- LRUSuggestStore ----

func TestLRUSuggestStore_EvictsOldest(t *testing.T) {
	store := cache.NewLRUSuggestStore(1, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", fushimi))
	require.NoError(t, store.Set(ctx, "b", fushimi))

	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
	got, ok, _ := store.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, fushimi, got)
}

// ---- CachedSuggester ----

func TestCachedSuggester_Suggest_Caches(t *testing.T) {
	inner := &mockSuggester{SuggestFn: func(context.Context, places.Query) ([]domain.Suggestion, error) {
		return fushimi, nil
	}}
	c := &cache.CachedSuggester{Inner: inner, Store: cache.NewLRUSuggestStore(16, time.Minute)}
	ctx := context.Background()

	q := places.Query{Text: "Fushimi", Language: "ja", Region: "jp"}
	_, err := c.Suggest(ctx, q)
	require.NoError(t, err)
	got, err := c.Suggest(ctx, places.Query{Text: " fushimi ", Language: "ja", Region: "jp"})
	require.NoError(t, err)
	assert.Equal(t, fushimi, got)
	assert.Equal(t, 1, inner.calls)

	// a different language is a different key
	_, err = c.Suggest(ctx, places.Query{Text: "Fushimi", Language: "en", Region: "jp"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSuggester_Suggest_EmptyAndErrorsNotCached(t *testing.T) {
	var fail bool
	inner := &mockSuggester{SuggestFn: func(context.Context, places.Query) ([]domain.Suggestion, error) {
		if fail {
			return nil, domain.ErrQuotaExceeded
		}
		return nil, nil
	}}
	c := &cache.CachedSuggester{Inner: inner, Store: cache.NewLRUSuggestStore(16, time.Minute)}
	ctx := context.Background()
	q := places.Query{Text: "zzzz"}

	got, err := c.Suggest(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, got)

	fail = true
	_, err = c.Suggest(ctx, q)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSuggester_Suggest_StoreErrorsIgnored(t *testing.T) {
	inner := &mockSuggester{SuggestFn: func(context.Context, places.Query) ([]domain.Suggestion, error) {
		return fushimi, nil
	}}
	c := &cache.CachedSuggester{Inner: inner, Store: brokenStore{}}

	got, err := c.Suggest(context.Background(), places.Query{Text: "Fushimi"})
	require.NoError(t, err)
	assert.Equal(t, fushimi, got)
}

func TestCachedSuggester_Available(t *testing.T) {
	c := &cache.CachedSuggester{Inner: &mockSuggester{}, Store: brokenStore{}}
	assert.True(t, c.Available())
}
