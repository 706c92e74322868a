package chi

import (
	"errors"
	"net/http"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

// ErrorCode is the machine-readable error kind in an ErrorResponse.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNotFound               ErrorCode = "not_found"
	CodeNoData                 ErrorCode = "no_data"
	CodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// EmbeddingKeyMessage is shown for any embedding provider failure.
const EmbeddingKeyMessage = "OpenAI API key error: Please check your API key and environment configuration."

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		// Validation messages are built from request data only, so they are safe to echo.
		func(w http.ResponseWriter, err error) bool {
			if !errors.Is(err, domain.ErrInvalidInput) {
				return false
			}
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return true
		},
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound, "not found"),
		sentinelHandler(domain.ErrNoData, http.StatusNotFound, CodeNoData, domain.ErrNoData.Error()),
		sentinelHandler(domain.ErrInsufficientData, http.StatusNotFound, CodeNoData, domain.ErrInsufficientData.Error()),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded, domain.ErrEmbeddingQuotaExceeded.Error()),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusInternalServerError, CodeEmbeddingProviderError, EmbeddingKeyMessage),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
