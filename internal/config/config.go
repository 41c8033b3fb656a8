// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	Maps      MapsConfig
	Nominatim NominatimConfig
	Cache     CacheConfig
	Editor    EditorConfig
}

// MapsConfig configures the Google Maps provider. An empty APIKey leaves
// the provider unavailable and the engine runs without suggestions,
// routes or geocoding.
type MapsConfig struct {
	APIKey       string
	RateLimit    int // requests per second
	Language     string
	Region       string
	ReadyTimeout time.Duration
}

// NominatimConfig configures the fallback geocoder.
type NominatimConfig struct {
	Server string
}

// CacheConfig configures the geocode and suggestion caches.
type CacheConfig struct {
	GeocodePath string
	// RedisURL is optional; without it suggestions are cached in process.
	RedisURL   string
	SuggestTTL time.Duration
}

// EditorConfig tunes authoring sessions.
type EditorConfig struct {
	SuggestDebounce time.Duration
	BlurGrace       time.Duration
	IdleTimeout     time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	var p parser
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes: p.int64("MAX_BODY_BYTES", 1<<20),
		Maps: MapsConfig{
			APIKey:       os.Getenv("GOOGLE_MAPS_API_KEY"),
			RateLimit:    int(p.int64("GOOGLE_MAPS_RATE_LIMIT", 10)),
			Language:     getEnv("MAPS_LANGUAGE", "ja"),
			Region:       getEnv("MAPS_REGION", "jp"),
			ReadyTimeout: p.duration("MAP_READY_TIMEOUT", 8*time.Second),
		},
		Nominatim: NominatimConfig{
			Server: getEnv("NOMINATIM_SERVER", "https://nominatim.openstreetmap.org/"),
		},
		Cache: CacheConfig{
			GeocodePath: getEnv("GEOCODE_CACHE_PATH", "geocode-cache.db"),
			RedisURL:    os.Getenv("REDIS_URL"),
			SuggestTTL:  p.duration("SUGGEST_CACHE_TTL", 10*time.Minute),
		},
		Editor: EditorConfig{
			SuggestDebounce: p.duration("SUGGEST_DEBOUNCE", 250*time.Millisecond),
			BlurGrace:       p.duration("BLUR_GRACE", 150*time.Millisecond),
			IdleTimeout:     p.duration("EDITOR_IDLE_TIMEOUT", 30*time.Minute),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, "; "))
	}

	return cfg, nil
}

// parser collects every unparsable value so Load can report them together.
type parser struct {
	invalid []string
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q is not a positive duration", key, v))
		return fallback
	}
	return d
}

func (p *parser) int64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q is not a positive integer", key, v))
		return fallback
	}
	return n
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
