package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"qrguard/internal/service/prediction"
	"qrguard/internal/service/scan"
)

// MissingFileMessage is returned when the multipart upload has no file field.
const MissingFileMessage = "Missing multipart file field: file"

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, prediction.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, prediction.ErrEmptyPayload),
		errors.Is(err, scan.ErrInvalidImage),
		errors.Is(err, scan.ErrEmptyUpload):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// writeError reports err as {"error": ...} with its mapped status. Internal
// errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
		message = http.StatusText(status)
	}
	if status == http.StatusRequestEntityTooLarge {
		message = "Request body too large"
	}
	writeJSON(w, logger, status, dto.ErrorResponse{Error: message})
}
