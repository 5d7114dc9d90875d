package pixel

import "errors"

// Common errors returned by the pixel package.
var (
	// ErrTooManyEvents indicates a single call carried more than MaxEvents events.
	ErrTooManyEvents = errors.New("too many events in one request")

	// ErrNoPixel indicates no pixel ID was configured.
	ErrNoPixel = errors.New("pixel ID is required")

	// ErrAAMUnavailable indicates the automatic matching configuration could not be read.
	ErrAAMUnavailable = errors.New("automatic advanced matching settings unavailable")
)
