package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIConfigured = errors.New("no API endpoint configured, use --api or 'gitlab login'")
	ErrEmptyToken      = errors.New("token must not be empty")
)

// Argument errors.
var (
	ErrInvalidID          = errors.New("invalid numeric id")
	ErrUnsupportedOutput  = errors.New("unsupported output format")
	ErrNothingToUpdate    = errors.New("nothing to update, pass at least one flag")
	ErrUnsupportedBackend = errors.New("unsupported cache backend")
)
