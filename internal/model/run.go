package model

import "time"

// DecodeRun records one execution of the pickle-to-CSV pipeline.
type DecodeRun struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	BitmapsPath string    `json:"x_path"`
	LabelsPath  string    `json:"y_path"`
	OutputCSV   string    `json:"output_csv"`
	Attempted   int       `json:"attempted"`
	Decoded     int       `json:"decoded"`
	Dropped     int       `json:"dropped"`
}

// DecodeFailure is a bitmap that no sweep attempt could read.
type DecodeFailure struct {
	RunID       int64 `json:"run_id"`
	BitmapIndex int   `json:"bitmap_index"`
	Label       int   `json:"label"`
}

// TrainingRun records one execution of the training job.
type TrainingRun struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	DataPath  string    `json:"data_path"`
	ModelPath string    `json:"model_path"`
	TrainSize int       `json:"train_size"`
	TestSize  int       `json:"test_size"`
	ROCAUC    float64   `json:"roc_auc"`
	Accuracy  float64   `json:"accuracy"`
	Report    string    `json:"report"`
}
