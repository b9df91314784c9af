package sqlite

import (
	"database/sql"
	"fmt"

	"qrguard/internal/model"
)

// DecodeRunRepository implements repository.DecodeRunRepository for SQLite.
type DecodeRunRepository struct {
	db *DB
}

// NewDecodeRunRepository creates a new SQLite decode run repository.
func NewDecodeRunRepository(db *DB) *DecodeRunRepository {
	return &DecodeRunRepository{db: db}
}

// Insert stores a run and its failed bitmaps in a single transaction.
func (r *DecodeRunRepository) Insert(run *model.DecodeRun, failures []model.DecodeFailure) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO decode_runs (started_at, finished_at, x_path, y_path, output_csv, attempted, decoded, dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt, run.FinishedAt, run.BitmapsPath, run.LabelsPath, run.OutputCSV, run.Attempted, run.Decoded, run.Dropped)
	if err != nil {
		return 0, fmt.Errorf("failed to insert decode run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get decode run id: %w", err)
	}

	if len(failures) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO decode_failures (run_id, bitmap_index, label) VALUES (?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range failures {
			if _, err := stmt.Exec(runID, f.BitmapIndex, f.Label); err != nil {
				return 0, fmt.Errorf("failed to insert decode failure: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit decode run: %w", err)
	}
	run.ID = runID
	return runID, nil
}

// GetByID retrieves a run by its ID, or nil if it does not exist.
func (r *DecodeRunRepository) GetByID(id int64) (*model.DecodeRun, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var run model.DecodeRun
	err := r.db.Conn().QueryRow(`
		SELECT id, started_at, finished_at, x_path, y_path, output_csv, attempted, decoded, dropped
		FROM decode_runs WHERE id = ?
	`, id).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.BitmapsPath, &run.LabelsPath,
		&run.OutputCSV, &run.Attempted, &run.Decoded, &run.Dropped)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decode run: %w", err)
	}

	return &run, nil
}

// GetRecent returns up to limit runs, newest first.
func (r *DecodeRunRepository) GetRecent(limit int) ([]model.DecodeRun, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, started_at, finished_at, x_path, y_path, output_csv, attempted, decoded, dropped
		FROM decode_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decode runs: %w", err)
	}
	defer rows.Close()

	var runs []model.DecodeRun
	for rows.Next() {
		var run model.DecodeRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.BitmapsPath, &run.LabelsPath,
			&run.OutputCSV, &run.Attempted, &run.Decoded, &run.Dropped); err != nil {
			return nil, fmt.Errorf("failed to scan decode run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetFailures returns the bitmaps a run could not decode, by index.
func (r *DecodeRunRepository) GetFailures(runID int64) ([]model.DecodeFailure, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT run_id, bitmap_index, label FROM decode_failures
		WHERE run_id = ? ORDER BY bitmap_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decode failures: %w", err)
	}
	defer rows.Close()

	var failures []model.DecodeFailure
	for rows.Next() {
		var f model.DecodeFailure
		if err := rows.Scan(&f.RunID, &f.BitmapIndex, &f.Label); err != nil {
			return nil, fmt.Errorf("failed to scan decode failure: %w", err)
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}
