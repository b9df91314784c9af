package repository

import "qrguard/internal/model"

// DecodeRunRepository defines the interface for decode run ledger operations.
type DecodeRunRepository interface {
	// Create operations
	Insert(run *model.DecodeRun, failures []model.DecodeFailure) (int64, error)

	// Read operations
	GetByID(id int64) (*model.DecodeRun, error)
	GetRecent(limit int) ([]model.DecodeRun, error)
	GetFailures(runID int64) ([]model.DecodeFailure, error)
}

// TrainingRunRepository defines the interface for training run ledger operations.
type TrainingRunRepository interface {
	// Create operations
	Insert(run *model.TrainingRun) (int64, error)

	// Read operations
	GetLatest() (*model.TrainingRun, error)
	GetRecent(limit int) ([]model.TrainingRun, error)
}
