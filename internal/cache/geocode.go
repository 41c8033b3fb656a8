// Package cache keeps provider answers around: geocoding results in SQLite
// and place suggestions in Redis or an in-process LRU.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/mapsync"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DefaultGeocodeMaxAge is how long a cached geocode answer is served.
const DefaultGeocodeMaxAge = 30 * 24 * time.Hour

// GeocodeCache is a mapsync.Geocoder that answers from a SQLite table and
// asks Inner on a miss. Concurrent misses for the same query share one
// upstream call. Only non-empty answers are stored.
type GeocodeCache struct {
	db     *sql.DB
	inner  mapsync.Geocoder
	maxAge time.Duration
	log    *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// GeocodeOption configures a GeocodeCache.
type GeocodeOption func(*GeocodeCache)

// WithMaxAge sets how long entries stay fresh.
func WithMaxAge(d time.Duration) GeocodeOption {
	return func(c *GeocodeCache) { c.maxAge = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GeocodeOption {
	return func(c *GeocodeCache) { c.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) GeocodeOption {
	return func(c *GeocodeCache) { c.now = now }
}

// OpenGeocodeCache opens (creating if needed) the SQLite database at path,
// migrates it and returns a cache in front of inner.
func OpenGeocodeCache(ctx context.Context, path string, inner mapsync.Geocoder, opts ...GeocodeOption) (*GeocodeCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache.OpenGeocodeCache: open: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache.OpenGeocodeCache: %w", err)
	}

	c := &GeocodeCache{
		db:     db,
		inner:  inner,
		maxAge: DefaultGeocodeMaxAge,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "cache.GeocodeCache")
	return c, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *GeocodeCache) Close() error {
	return c.db.Close()
}

// Geocode implements mapsync.Geocoder.
func (c *GeocodeCache) Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error) {
	key := normalize(address)

	cached, ok, err := c.get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "geocode cache read failed", "query", key, "error", err)
	}
	if ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := c.inner.Geocode(ctx, address)
		if err != nil {
			return nil, err
		}
		if len(res) > 0 {
			if err := c.put(ctx, key, res); err != nil {
				c.log.WarnContext(ctx, "geocode cache write failed", "query", key, "error", err)
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.GeocodeResult), nil
}

func (c *GeocodeCache) get(ctx context.Context, key string) ([]domain.GeocodeResult, bool, error) {
	var raw string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT results, fetched_at FROM geocode_cache WHERE query = ?`, key,
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select: %w", err)
	}
	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.maxAge {
		return nil, false, nil
	}

	var out []domain.GeocodeResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return out, true, nil
}

func (c *GeocodeCache) put(ctx context.Context, key string, res []domain.GeocodeResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (query, results, fetched_at) VALUES (?, ?, ?)`,
		key, string(b), c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// normalize folds case and whitespace so trivially different spellings of
// one query share an entry.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var _ mapsync.Geocoder = (*GeocodeCache)(nil)
