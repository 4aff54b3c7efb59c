package boardex

import "github.com/kailas-cloud/boardex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrDocumentNotFound   = domain.ErrDocumentNotFound
	ErrUnavailable        = domain.ErrUnavailable
	ErrCancelled          = domain.ErrCancelled
	ErrResolutionActive   = domain.ErrResolutionActive
	ErrResolutionNotFound = domain.ErrResolutionNotFound
	ErrWriteFailed        = domain.ErrWriteFailed
	ErrReadonlyAxis       = domain.ErrReadonlyAxis
)
