package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrNotImplemented signals an operation the channel does not support.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownEntityType signals a query for an entity type with no registered strategy.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrInvalidQuery signals a malformed query envelope.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidProperty signals a query property that cannot be interpreted.
	ErrInvalidProperty = errors.New("invalid property")
	// ErrInvalidIdentifier signals an identifier (ISBN, DOI) that fails normalization.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidColumn signals a column mapping outside the allowed logical keys.
	ErrInvalidColumn = errors.New("invalid column mapping")

	// ErrChannel signals a failure inside an evidence channel (database, geocoder, LLM).
	ErrChannel = errors.New("channel failure")
	// ErrLLMResponse signals a structurally invalid LLM completion. It is a channel failure.
	ErrLLMResponse = fmt.Errorf("invalid llm response: %w", ErrChannel)
	// ErrLLMQuotaExceeded signals an exhausted LLM token budget.
	ErrLLMQuotaExceeded = errors.New("llm quota exceeded")
)

// IsCallerError reports whether err was caused by the request itself.
// Caller errors are never retried and abort the whole batch.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrUnknownEntityType) ||
		errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrInvalidProperty) ||
		errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrInvalidColumn)
}

// PropertyError wraps ErrInvalidProperty with the offending property id.
type PropertyError struct {
	Property string
	Reason   string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidProperty.Error(), e.Property, e.Reason)
}

func (e *PropertyError) Unwrap() error { return ErrInvalidProperty }

// NewPropertyError creates an invalid property error.
func NewPropertyError(property, reason string) error {
	return &PropertyError{Property: property, Reason: reason}
}
