// Package nominatim geocodes addresses with an OpenStreetMap Nominatim
// server. It is the fallback geocoder when Google is unavailable.
package nominatim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muesli/gominatim"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/obs"
)

const (
	DefaultServer  = "https://nominatim.openstreetmap.org/"
	DefaultLimit   = 5
	DefaultRetries = 2
)

// Hit is one search result as returned by the server.
type Hit struct {
	DisplayName string
	Lat, Lon    string
}

// SearchFunc runs one search.
type SearchFunc func(q string, limit int) ([]Hit, error)

// Config configures a Geocoder.
type Config struct {
	Server  string
	Limit   int
	Retries uint64

	// Rate caps requests per second. The public server allows one.
	Rate rate.Limit

	// Search replaces the Nominatim call, for tests.
	Search SearchFunc

	Logger *slog.Logger
}

// Geocoder implements mapsync.Geocoder on Nominatim.
type Geocoder struct {
	cfg     Config
	search  SearchFunc
	limiter *rate.Limiter
	log     *slog.Logger
}

var setServer sync.Once

// New returns a Geocoder. The Nominatim client keeps its server in a
// package variable, so only the first Server configured takes effect.
func New(cfg Config) *Geocoder {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if !strings.HasSuffix(cfg.Server, "/") {
		cfg.Server += "/"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	search := cfg.Search
	if search == nil {
		server := cfg.Server
		setServer.Do(func() { gominatim.SetServer(server) })
		search = searchNominatim
	}
	return &Geocoder{
		cfg:     cfg,
		search:  search,
		limiter: rate.NewLimiter(cfg.Rate, 1),
		log:     log.With("component", "nominatim.Geocoder"),
	}
}

func searchNominatim(q string, limit int) ([]Hit, error) {
	qry := gominatim.SearchQuery{Q: q, Limit: limit}
	res, err := qry.Get()
	if err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(res))
	for _, r := range res {
		out = append(out, Hit{DisplayName: r.DisplayName, Lat: r.Lat, Lon: r.Lon})
	}
	return out, nil
}

// Geocode implements mapsync.Geocoder. Truncated responses are retried with
// backoff; hits with unparsable coordinates are skipped. Nominatim returns
// no viewport, so results carry none.
func (g *Geocoder) Geocode(ctx context.Context, address string) (_ []domain.GeocodeResult, err error) {
	defer obs.Time(ctx, g.log, "nominatim.Geocode")(&err)

	backoff := retry.WithMaxRetries(g.cfg.Retries, retry.NewExponential(150*time.Millisecond))
	var hits []Hit
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		h, err := g.searchCtx(ctx, address)
		if err != nil {
			if transient(err) {
				g.log.DebugContext(ctx, "transient nominatim error, retrying", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		hits = h
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("nominatim.Geocode: %w", err)
		}
		return nil, fmt.Errorf("nominatim.Geocode: %w: %w", domain.ErrProvider, err)
	}

	out := make([]domain.GeocodeResult, 0, len(hits))
	for _, h := range hits {
		lat, latErr := strconv.ParseFloat(h.Lat, 64)
		lng, lngErr := strconv.ParseFloat(h.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		out = append(out, domain.GeocodeResult{
			Location:         domain.LatLng{Lat: lat, Lng: lng},
			FormattedAddress: h.DisplayName,
		})
	}
	return out, nil
}

// searchCtx runs the context-less search so that ctx can still abandon it.
func (g *Geocoder) searchCtx(ctx context.Context, q string) ([]Hit, error) {
	type result struct {
		hits []Hit
		err  error
	}
	done := make(chan result, 1)
	go func() {
		h, err := g.search(q, g.cfg.Limit)
		done <- result{h, err}
	}()
	select {
	case r := <-done:
		return r.hits, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func transient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") || strings.Contains(msg, "EOF")
}
