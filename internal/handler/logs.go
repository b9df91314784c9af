package handler

import (
	"net/http"
	"os"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
)

// ShowLogsHandler serves the log file named by the {level} path segment as text/plain.
func ShowLogsHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath, err := logger.FilePath(r.PathValue("level"))
		if err != nil {
			writeJSON(w, logger, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			writeJSON(w, logger, http.StatusNotFound, dto.ErrorResponse{Error: "Log file not found"})
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		http.ServeFile(w, r, filePath)
	}
}

// ClearLogsHandler truncates the log file named by the {level} path segment.
func ClearLogsHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level := r.PathValue("level")
		if err := logger.CleanLogs(level); err != nil {
			writeJSON(w, logger, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}
		logger.Info("Cleared %s log", level)
		w.WriteHeader(http.StatusNoContent)
	}
}
