package model

import "time"

// ModelInfo describes the classifier artifact the server loaded.
type ModelInfo struct {
	Path      string    `json:"path"`
	Features  int       `json:"n_features"`
	NgramMin  int       `json:"ngram_min"`
	NgramMax  int       `json:"ngram_max"`
	TrainedAt time.Time `json:"trained_at"`
	TrainSize int       `json:"train_size"`
	ROCAUC    float64   `json:"roc_auc"`
	Threshold float64   `json:"threshold"`
}
