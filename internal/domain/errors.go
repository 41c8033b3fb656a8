package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. a trip of zero days, an itinerary day outside the trip).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// Capability errors. Provider adapters translate their own status codes into
// these so the engine can classify failures with errors.Is without knowing
// which provider produced them. None of them ever reach the authoring flow:
// the component that receives one degrades and reports instead.
var (
	// ErrUnavailable means the capability is not configured or its client
	// could not be constructed.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrNoResults means the provider answered but found nothing.
	ErrNoResults = errors.New("no results")

	// ErrQuotaExceeded means the provider rejected the call for quota or rate reasons.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrProvider is a transient or unclassified provider failure.
	ErrProvider = errors.New("provider error")

	// ErrNotReady means the map provider did not become ready within the
	// bounded readiness wait.
	ErrNotReady = errors.New("map provider not ready")
)
