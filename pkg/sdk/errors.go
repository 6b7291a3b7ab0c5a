package reconciler

import "github.com/kailas-cloud/reconciler/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrNotImplemented    = domain.ErrNotImplemented
	ErrUnknownEntityType = domain.ErrUnknownEntityType
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrInvalidProperty   = domain.ErrInvalidProperty
	ErrInvalidIdentifier = domain.ErrInvalidIdentifier
	ErrInvalidColumn     = domain.ErrInvalidColumn
	ErrChannel           = domain.ErrChannel
	ErrLLMResponse       = domain.ErrLLMResponse
	ErrLLMQuotaExceeded  = domain.ErrLLMQuotaExceeded
)

// IsCallerError reports whether err was caused by the query itself
// rather than by an evidence channel.
func IsCallerError(err error) bool {
	return domain.IsCallerError(err)
}
