// Package api provides the HTTP handlers of the Chronoscope API and its
// standardized error format.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BioInfo/chronoscope/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure, such as an
	// out-of-range coordinate.
	ErrCodeValidation = "validation_error"

	// ErrCodeBadRequest indicates a malformed request body.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodePayloadTooLarge indicates the request body exceeded its limit.
	ErrCodePayloadTooLarge = "payload_too_large"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response and records code
// for the logging middleware.
//
//	WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "Image not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	if middleware.GetErrorCode(ctx) == "" {
		ctx = middleware.SetErrorCode(ctx, code)
	}
	middleware.UpdateResponseContext(w, ctx)

	data, err := json.Marshal(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// StatusCodeMapping returns the recommended HTTP status code for an error code.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeCode writes an error with the status mapped from code.
func writeCode(w http.ResponseWriter, r *http.Request, code, message string) {
	WriteError(w, r.Context(), StatusCodeMapping(code), code, message)
}

// writeInternal logs err and writes a generic 500.
func writeInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err, "request_id", middleware.GetRequestID(r.Context()))
	writeCode(w, r, ErrCodeInternal, "Internal server error")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// decodeJSON reads a JSON body of at most limit bytes into v. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeCode(w, r, ErrCodePayloadTooLarge, "Request body too large")
			return false
		}
		writeCode(w, r, ErrCodeBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}
