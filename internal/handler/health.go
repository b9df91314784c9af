package handler

import (
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
)

// ModelStatus reports whether a classifier is available.
type ModelStatus interface {
	ModelLoaded() bool
}

// HealthHandler always answers 200 with the model availability.
func HealthHandler(status ModelStatus, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, dto.HealthResponse{OK: true, ModelLoaded: status.ModelLoaded()})
	}
}
