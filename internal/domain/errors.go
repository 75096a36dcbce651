package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPrompt   = errors.New("invalid prompt")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidState    = errors.New("invalid state")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrRateLimited     = errors.New("rate limited")
	ErrProviderFailure = errors.New("provider failure")
)
