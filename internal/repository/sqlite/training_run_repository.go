package sqlite

import (
	"database/sql"
	"fmt"

	"qrguard/internal/model"
)

// TrainingRunRepository implements repository.TrainingRunRepository for SQLite.
type TrainingRunRepository struct {
	db *DB
}

// NewTrainingRunRepository creates a new SQLite training run repository.
func NewTrainingRunRepository(db *DB) *TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

// Insert adds a new training run record to the database.
func (r *TrainingRunRepository) Insert(run *model.TrainingRun) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO training_runs (created_at, data_path, model_path, train_size, test_size, roc_auc, accuracy, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.CreatedAt, run.DataPath, run.ModelPath, run.TrainSize, run.TestSize, run.ROCAUC, run.Accuracy, run.Report)
	if err != nil {
		return 0, fmt.Errorf("failed to insert training run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get training run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// GetLatest returns the most recent run, or nil if none was recorded.
func (r *TrainingRunRepository) GetLatest() (*model.TrainingRun, error) {
	runs, err := r.GetRecent(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// GetRecent returns up to limit runs, newest first.
func (r *TrainingRunRepository) GetRecent(limit int) ([]model.TrainingRun, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, created_at, data_path, model_path, train_size, test_size, roc_auc, accuracy, report
		FROM training_runs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []model.TrainingRun
	for rows.Next() {
		var run model.TrainingRun
		var report sql.NullString
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.DataPath, &run.ModelPath, &run.TrainSize,
			&run.TestSize, &run.ROCAUC, &run.Accuracy, &report); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		run.Report = report.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
