package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrGenerationInFlight = errors.New("generation already in flight")
	ErrNotConfigured      = errors.New("not configured")
)
