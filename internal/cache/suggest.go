package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/places"
)

// DefaultSuggestTTL is how long suggestions for one query are reused.
const DefaultSuggestTTL = 10 * time.Minute

// SuggestStore holds suggestion lists by key.
type SuggestStore interface {
	Get(ctx context.Context, key string) ([]domain.Suggestion, bool, error)
	Set(ctx context.Context, key string, v []domain.Suggestion) error
}

// ---- Redis -----------------------------------------------------------------

// RedisSuggestStore keeps suggestions in Redis as JSON with a TTL.
type RedisSuggestStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisSuggestStore returns a store on rdb. ttl <= 0 uses DefaultSuggestTTL.
func NewRedisSuggestStore(rdb redis.Cmdable, ttl time.Duration) *RedisSuggestStore {
	if ttl <= 0 {
		ttl = DefaultSuggestTTL
	}
	return &RedisSuggestStore{rdb: rdb, ttl: ttl, prefix: "suggest:"}
}

func (s *RedisSuggestStore) Get(ctx context.Context, key string) ([]domain.Suggestion, bool, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache.RedisSuggestStore.Get: %w", err)
	}
	var out []domain.Suggestion
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, fmt.Errorf("cache.RedisSuggestStore.Get: decode: %w", err)
	}
	return out, true, nil
}

func (s *RedisSuggestStore) Set(ctx context.Context, key string, v []domain.Suggestion) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache.RedisSuggestStore.Set: encode: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache.RedisSuggestStore.Set: %w", err)
	}
	return nil
}

// ---- In-process ------------------------------------------------------------

// LRUSuggestStore keeps suggestions in a size-bounded in-process LRU whose
// entries expire after a TTL. Used when no Redis is configured.
type LRUSuggestStore struct {
	lru *expirable.LRU[string, []domain.Suggestion]
}

// NewLRUSuggestStore returns a store holding at most size keys.
func NewLRUSuggestStore(size int, ttl time.Duration) *LRUSuggestStore {
	if ttl <= 0 {
		ttl = DefaultSuggestTTL
	}
	return &LRUSuggestStore{lru: expirable.NewLRU[string, []domain.Suggestion](size, nil, ttl)}
}

func (s *LRUSuggestStore) Get(_ context.Context, key string) ([]domain.Suggestion, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *LRUSuggestStore) Set(_ context.Context, key string, v []domain.Suggestion) error {
	s.lru.Add(key, v)
	return nil
}

// ---- Decorator -------------------------------------------------------------

// CachedSuggester answers repeated queries from Store. Empty or failed
// answers are not stored, and store errors only cost a cache miss.
type CachedSuggester struct {
	Inner  places.Suggester
	Store  SuggestStore
	Logger *slog.Logger
}

// Available reports the inner suggester's availability.
func (c *CachedSuggester) Available() bool {
	if a, ok := c.Inner.(places.Availability); ok {
		return a.Available()
	}
	return c.Inner != nil
}

// Suggest implements places.Suggester.
func (c *CachedSuggester) Suggest(ctx context.Context, q places.Query) ([]domain.Suggestion, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	key := suggestKey(q)

	if v, ok, err := c.Store.Get(ctx, key); err != nil {
		log.WarnContext(ctx, "suggestion cache read failed", "error", err)
	} else if ok {
		return v, nil
	}

	out, err := c.Inner.Suggest(ctx, q)
	if err != nil || len(out) == 0 {
		return out, err
	}
	if err := c.Store.Set(ctx, key, out); err != nil {
		log.WarnContext(ctx, "suggestion cache write failed", "error", err)
	}
	return out, nil
}

func suggestKey(q places.Query) string {
	return strings.Join([]string{q.Language, q.Region, strings.Join(q.Types, ","), normalize(q.Text)}, "|")
}

var (
	_ SuggestStore        = (*RedisSuggestStore)(nil)
	_ SuggestStore        = (*LRUSuggestStore)(nil)
	_ places.Suggester    = (*CachedSuggester)(nil)
	_ places.Availability = (*CachedSuggester)(nil)
)
