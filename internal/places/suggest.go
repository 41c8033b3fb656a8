// Package places turns free text typed into a day's place input into ranked
// suggestions, and a chosen suggestion into a named, positioned place.
package places

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tripost/backend/internal/domain"
)

// Query is a suggestion request.
type Query struct {
	Text     string
	Language string
	Region   string
	Types    []string
}

// Suggester returns ranked suggestions for a query.
type Suggester interface {
	Suggest(ctx context.Context, q Query) ([]domain.Suggestion, error)
}

// DetailsFetcher resolves a place ID to a name and coordinates.
type DetailsFetcher interface {
	Details(ctx context.Context, placeID, language string) (domain.Place, error)
}

// Availability is implemented by capabilities that can tell up front whether
// they are usable, e.g. because no API key is configured.
type Availability interface {
	Available() bool
}

func available(v any) bool {
	if v == nil {
		return false
	}
	if a, ok := v.(Availability); ok {
		return a.Available()
	}
	return true
}

// Fallback asks Primary first and Legacy when Primary is unavailable or
// fails. If neither produces an answer the result is an empty list and a nil
// error: a failed suggestion lookup only means the user types the name by hand.
type Fallback struct {
	Primary Suggester
	Legacy  Suggester

	// LegacyTypes replaces Query.Types for the legacy call when set, since
	// the two capabilities use different type vocabularies.
	LegacyTypes []string

	Logger *slog.Logger
}

// Suggest implements Suggester.
func (f *Fallback) Suggest(ctx context.Context, q Query) ([]domain.Suggestion, error) {
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	if available(f.Primary) {
		out, err := f.Primary.Suggest(ctx, q)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WarnContext(ctx, "primary suggestions failed, trying legacy", "error", err)
	}

	if available(f.Legacy) {
		lq := q
		if f.LegacyTypes != nil {
			lq.Types = f.LegacyTypes
		}
		out, err := f.Legacy.Suggest(ctx, lq)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrNoResults) {
			level = slog.LevelDebug
		}
		log.Log(ctx, level, "legacy suggestions failed", "error", err)
	}

	return []domain.Suggestion{}, nil
}
