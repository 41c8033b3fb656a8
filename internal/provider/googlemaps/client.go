// Package googlemaps adapts the Google Maps web services to the engine's
// capability interfaces: place suggestions (modern and legacy), place
// details, geocoding and walking directions.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/tripost/backend/internal/domain"
)

// Config configures a Client.
type Config struct {
	APIKey    string
	RateLimit int // requests per second
	Language  string
	Region    string

	// BaseURL overrides the API host, for tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Google Maps web services.
type Client struct {
	maps *maps.Client
	cfg  Config
	log  *slog.Logger
}

// New builds a Client. Without an API key the capabilities are unavailable
// and New returns an error wrapping domain.ErrUnavailable.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("googlemaps.New: %w: no API key configured", domain.ErrUnavailable)
	}
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RateLimit))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, maps.WithHTTPClient(cfg.HTTPClient))
	}
	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("googlemaps.New: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{maps: mc, cfg: cfg, log: log.With("component", "googlemaps.Client")}, nil
}

// Available reports whether the client can make calls.
func (c *Client) Available() bool {
	return c != nil && c.maps != nil
}

// Ping checks the key and connectivity with a small geocode request. It is
// the readiness probe of the map provider.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: "Tokyo", Region: c.cfg.Region})
	if err = translate("Ping", err); err != nil && !errors.Is(err, domain.ErrNoResults) {
		return err
	}
	return nil
}

// translate maps a client error onto the domain sentinels. The client
// reports API statuses as "maps: STATUS - message".
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("googlemaps.%s: %w", op, err)
	}

	status := ""
	if rest, ok := strings.CutPrefix(err.Error(), "maps: "); ok {
		status, _, _ = strings.Cut(rest, " - ")
	}

	var sentinel error
	switch status {
	case "ZERO_RESULTS", "NOT_FOUND":
		sentinel = domain.ErrNoResults
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "RESOURCE_EXHAUSTED":
		sentinel = domain.ErrQuotaExceeded
	case "REQUEST_DENIED":
		sentinel = domain.ErrUnavailable
	default:
		sentinel = domain.ErrProvider
	}
	return fmt.Errorf("googlemaps.%s: %w: %w", op, sentinel, err)
}

func toLatLng(p domain.LatLng) maps.LatLng {
	return maps.LatLng{Lat: p.Lat, Lng: p.Lng}
}

func fromLatLng(p maps.LatLng) domain.LatLng {
	return domain.LatLng{Lat: p.Lat, Lng: p.Lng}
}

func fromBounds(b maps.LatLngBounds) *domain.Bounds {
	if b.NorthEast == (maps.LatLng{}) && b.SouthWest == (maps.LatLng{}) {
		return nil
	}
	out := domain.BoundsOf(fromLatLng(b.NorthEast), fromLatLng(b.SouthWest))
	return &out
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
