// Package provider composes the capability adapters.
package provider

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/mapsync"
)

// GeocodeChain asks each geocoder in turn and returns the first non-empty
// answer. An empty answer moves on like an error does. When every geocoder
// fails the joined errors are returned; when some answered empty the result
// is empty with no error.
type GeocodeChain struct {
	Geocoders []mapsync.Geocoder
	Logger    *slog.Logger
}

// Geocode implements mapsync.Geocoder.
func (c GeocodeChain) Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	var errs []error
	answered := false
	for i, g := range c.Geocoders {
		if g == nil {
			continue
		}
		res, err := g.Geocode(ctx, address)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.WarnContext(ctx, "geocoder failed, trying next", "index", i, "error", err)
			errs = append(errs, err)
			continue
		}
		answered = true
		if len(res) > 0 {
			return res, nil
		}
	}
	if answered || len(errs) == 0 {
		return []domain.GeocodeResult{}, nil
	}
	return nil, errors.Join(errs...)
}

var _ mapsync.Geocoder = GeocodeChain{}
