// Package handlers implements econfed's HTTP surface: one handler per
// endpoint, sharing the response envelope and error mapping defined here.
// WriteJSON/WriteSuccess/WriteError and the error-code-to-HTTP-status
// table are built around types.ErrorCode.
package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/econdata/econfed/api"
	"github.com/econdata/econfed/types"
)

// now is overridden in tests for deterministic timestamps.
var now = time.Now

// Response is an alias for api.Response — the canonical envelope.
type Response = api.Response

// ErrorInfo is an alias for api.ErrorInfo — the canonical error structure.
type ErrorInfo = api.ErrorInfo

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful envelope response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// WriteError writes an error envelope response from a *types.Error,
// logging the underlying cause.
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	status := err.HTTPStatusOrDefault()

	errorInfo := &ErrorInfo{
		Code:       string(err.Code),
		Message:    err.Message,
		Retryable:  err.Retryable,
		HTTPStatus: status,
	}

	if logger != nil {
		logger.Error("API error",
			zap.String("code", string(err.Code)),
			zap.String("message", err.Message),
			zap.Int("status", status),
			zap.Bool("retryable", err.Retryable),
			zap.Error(err.Cause),
		)
	}

	WriteJSON(w, status, Response{
		Success:   false,
		Error:     errorInfo,
		Timestamp: now(),
	})
}

// WriteErrorMessage writes an error envelope built from a raw code/message.
func WriteErrorMessage(w http.ResponseWriter, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	err := types.NewError(code, message).WithHTTPStatus(status)
	WriteError(w, err, logger)
}

// DecodeJSONBody decodes r's body into dst, rejecting unknown fields and
// bodies over 1 MiB, writing an INVALID_INPUT error response on failure.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if r.Body == nil {
		err := types.NewError(types.ErrInvalidInput, "request body is empty").WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, err, logger)
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		apiErr := types.NewError(types.ErrInvalidInput, "invalid JSON body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, logger)
		return apiErr
	}

	return nil
}

// ValidateContentType reports whether r's Content-Type is application/json,
// writing an error response if not.
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		apiErr := types.NewError(types.ErrInvalidInput, "Content-Type must be application/json").WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, logger)
		return false
	}
	return true
}
