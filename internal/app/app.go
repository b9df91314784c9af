package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"qrguard/internal/config"
	"qrguard/internal/logger"
	"qrguard/internal/repository"
	"qrguard/internal/repository/sqlite"
	"qrguard/internal/route"
	"qrguard/internal/service/prediction"
	"qrguard/internal/service/qr"
	"qrguard/internal/service/scan"
	"time"
)

// shutdownTimeout bounds how long in-flight requests may take after a stop signal.
const shutdownTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       *logger.Logger
	db           *sqlite.DB
	decoder      *qr.Decoder
	predictor    *prediction.Service
	scanner      *scan.Scanner
	decodeRuns   repository.DecodeRunRepository
	trainingRuns repository.TrainingRunRepository
}

// NewApp loads configuration, the classifier artifact and the optional run
// ledger. A missing model or ledger leaves the server running degraded.
func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log}

	if cfg.DatabasePath != "" {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			log.Warning("Run ledger unavailable: %v", err)
		} else {
			a.db = db
			a.decodeRuns = sqlite.NewDecodeRunRepository(db)
			a.trainingRuns = sqlite.NewTrainingRunRepository(db)
		}
	}

	a.predictor = prediction.NewService(cfg, log)
	a.decoder = qr.NewDecoder(log)
	a.scanner = scan.NewScanner(a.decoder, a.predictor, log)

	return a, nil
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler {
	return route.SetupRoutes(a.config, a.logger, a.predictor, a.scanner, a.decodeRuns, a.trainingRuns)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 QR Guard API\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 Model: %s (loaded: %t)\n", a.config.ModelPath, a.predictor.ModelLoaded())
	fmt.Printf("🎚  Threshold: %.2f\n", a.config.Threshold)
	fmt.Printf("📁 Logs: %s\n", a.config.LogDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the detector, the ledger and the log files.
func (a *App) Close() {
	if err := a.decoder.Close(); err != nil {
		a.logger.Warning("Failed to close QR decoder: %v", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warning("Failed to close database: %v", err)
		}
	}
	a.logger.Close()
}
