package chi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/domain"
)

// ErrorCode is the machine-readable error code returned to API clients.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeGeocodeFailed      ErrorCode = "geocode_failed"
	CodeVenueNotFound      ErrorCode = "venue_not_found"
	CodeCatalogUnavailable ErrorCode = "catalog_unavailable"
	CodeCatalogInvalid     ErrorCode = "catalog_invalid"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeUpstreamError      ErrorCode = "upstream_error"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	// Order matters: rate limiting wraps ErrUpstream too.
	return []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrGeocodeFailed, http.StatusUnprocessableEntity, CodeGeocodeFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeVenueNotFound),
		sentinelHandler(domain.ErrCatalogUnavailable, http.StatusServiceUnavailable, CodeCatalogUnavailable),
		sentinelHandler(domain.ErrDuplicateVenue, http.StatusUnprocessableEntity, CodeCatalogInvalid),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, CodeUpstreamError),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrGeocodeFailed,
		domain.ErrNotFound,
		domain.ErrCatalogUnavailable,
		domain.ErrDuplicateVenue,
		domain.ErrRateLimited,
		domain.ErrUpstream,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports the offending field; its reason is written for clients.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, ve.Field+" "+ve.Reason)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
