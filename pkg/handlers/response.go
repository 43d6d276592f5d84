package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a service error onto the HTTP error taxonomy:
// invalid input 400, unknown connection 404, unreachable database 502 and
// everything else 500 with the driver message.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		status  int
		code    string
		message string
	)

	var invalid *apperrors.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		status, code, message = http.StatusBadRequest, "invalid_input", invalid.Message
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "Connection not found"
	case errors.Is(err, apperrors.ErrConnection):
		status, code, message = http.StatusBadGateway, "connection_error", logging.SanitizeError(err)
	case errors.Is(err, apperrors.ErrCredentialsKeyMismatch):
		status, code, message = http.StatusInternalServerError, "credentials_key_mismatch",
			"Stored connection string cannot be decrypted with the configured key"
	default:
		status, code, message = http.StatusInternalServerError, "query_failed", logging.SanitizeError(err)
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.String("error", logging.SanitizeError(err)))
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.String("error", message))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// decodeBody decodes the JSON request body into dst. On failure it writes a
// 400 invalid_request response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Debug("Invalid request body", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter, data any, logger *zap.Logger) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
