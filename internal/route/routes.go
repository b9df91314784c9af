package route

import (
	"net/http"
	"qrguard/internal/config"
	"qrguard/internal/handler"
	"qrguard/internal/logger"
	"qrguard/internal/middleware"
	"qrguard/internal/repository"
	"qrguard/internal/service/prediction"
	"qrguard/internal/service/scan"
)

// SetupRoutes registers the API endpoints and wraps the mux with access
// logging, CORS and the request size limit. decodeRuns and trainingRuns may
// be nil when the ledger is disabled.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, predictor *prediction.Service, scanner *scan.Scanner,
	decodeRuns repository.DecodeRunRepository, trainingRuns repository.TrainingRunRepository) http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/health", handler.HealthHandler(predictor, logger))
	mux.HandleFunc("GET /api/model", handler.ModelInfoHandler(predictor, logger))
	mux.HandleFunc("POST /api/predict", handler.PredictHandler(predictor, logger))
	mux.HandleFunc("POST /api/scan-image", handler.ScanImageHandler(predictor, scanner, logger))
	mux.HandleFunc("GET /api/scan-stream", handler.ScanStreamHandler(scanner, cfg.MaxContentLength, logger))

	// Ledger
	mux.HandleFunc("GET /api/runs", handler.RunsHandler(decodeRuns, trainingRuns, logger))
	mux.HandleFunc("GET /api/runs/decode/{id}", handler.DecodeRunHandler(decodeRuns, logger))

	// Log endpoints
	mux.HandleFunc("GET /api/logs/{level}", handler.ShowLogsHandler(logger))
	mux.HandleFunc("DELETE /api/logs/{level}", handler.ClearLogsHandler(logger))

	// Apply middleware
	var h http.Handler = mux
	h = middleware.MaxBodyMiddleware(cfg.MaxContentLength)(h)
	h = middleware.CORSMiddleware(h)
	return middleware.LoggingMiddleware(logger)(h)
}
