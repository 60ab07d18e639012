package analytics

import "errors"

var (
	// ErrInvalidDateRange is returned when end_date precedes start_date.
	// Handlers surface it as a client error.
	ErrInvalidDateRange = errors.New("end_date must not be before start_date")

	// ErrUpstreamUnavailable is returned when the record store cannot be
	// reached. Handlers surface it as a server error; no partial or stale
	// result is substituted.
	ErrUpstreamUnavailable = errors.New("record store unavailable")
)
