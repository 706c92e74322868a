package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a rejected request (empty city, bad competitor list).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData signals that not enough labs returned data to compare.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoData signals that no canonical test could be priced.
	ErrNoData = errors.New("no comparison data")
	// ErrNotFound signals a missing stored record.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingAuth signals rejected embedding credentials.
	ErrEmbeddingAuth = errors.New("embedding provider rejected credentials")
)

// EmbeddingServiceError is a failure of the external embedding service.
// It is fatal for a comparison run and is never retried.
type EmbeddingServiceError struct {
	StatusCode int
	Message    string
	Auth       bool
	Cause      error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", ErrEmbeddingProviderError.Error(), e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrEmbeddingProviderError.Error(), e.Message)
}

// Unwrap exposes the provider sentinel, the auth sentinel (if any) and the upstream cause.
func (e *EmbeddingServiceError) Unwrap() []error {
	errs := []error{ErrEmbeddingProviderError}
	if e.Auth {
		errs = append(errs, ErrEmbeddingAuth)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewEmbeddingServiceError wraps an upstream failure.
func NewEmbeddingServiceError(status int, message string, auth bool, cause error) error {
	return &EmbeddingServiceError{StatusCode: status, Message: message, Auth: auth, Cause: cause}
}
