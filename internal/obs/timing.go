// Package obs has small observability helpers shared by the provider
// adapters.
package obs

import (
	"context"
	"log/slog"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Time starts timing the operation name and returns a function that logs
// its duration and outcome. Use it as
//
//	defer obs.Time(ctx, log, "googlemaps.Directions")(&err)
func Time(ctx context.Context, log *slog.Logger, name string) func(errp *error) {
	start := time.Now()
	if log == nil {
		log = slog.Default()
	}

	return func(errp *error) {
		attrs := []any{
			"op", name,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			attrs = append(attrs, "request_id", reqID)
		}
		if errp != nil && *errp != nil {
			log.WarnContext(ctx, "capability call failed", append(attrs, "error", *errp)...)
			return
		}
		log.DebugContext(ctx, "capability call", attrs...)
	}
}
