package handler

import (
	"net/http"
	"qrguard/internal/logger"
	"qrguard/internal/service/prediction"
)

// ModelInfoHandler describes the loaded classifier artifact.
func ModelInfoHandler(svc *prediction.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.Info()
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, info)
	}
}
