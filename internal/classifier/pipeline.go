package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FormatVersion identifies the artifact layout written by Save.
const FormatVersion = 1

// Options configures a pipeline fit.
type Options struct {
	NgramMin int
	NgramMax int
	MinDF    int
	Logistic LogisticOptions
}

// DefaultOptions: char 3-5 grams seen in at least two documents feeding a
// class-balanced logistic regression.
func DefaultOptions() Options {
	return Options{NgramMin: 3, NgramMax: 5, MinDF: 2, Logistic: DefaultLogisticOptions()}
}

// Metadata describes how an artifact was produced.
type Metadata struct {
	TrainedAt time.Time `json:"trained_at"`
	TrainSize int       `json:"train_size"`
	TestSize  int       `json:"test_size"`
	ROCAUC    float64   `json:"roc_auc"`
}

// Pipeline is the fitted vectorizer plus linear model. It is read-only once
// fitted or loaded and safe for concurrent use.
type Pipeline struct {
	Version    int                 `json:"format_version"`
	Vectorizer *Vectorizer         `json:"vectorizer"`
	Model      *LogisticRegression `json:"model"`
	Metadata   Metadata            `json:"metadata"`
}

// Fit trains a new pipeline on docs with binary labels y.
func Fit(docs []string, y []int, opts Options) (*Pipeline, error) {
	vec := NewVectorizer(opts.NgramMin, opts.NgramMax, opts.MinDF)
	if err := vec.Fit(docs); err != nil {
		return nil, fmt.Errorf("failed to fit vectorizer: %w", err)
	}

	model, err := FitLogistic(vec.TransformAll(docs), y, vec.NumFeatures(), opts.Logistic)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Version:    FormatVersion,
		Vectorizer: vec,
		Model:      model,
		Metadata:   Metadata{TrainedAt: time.Now().UTC(), TrainSize: len(docs)},
	}, nil
}

// PredictProbability returns the probability that payload is malicious.
func (p *Pipeline) PredictProbability(payload string) float64 {
	return p.Model.ProbabilityOf(p.Vectorizer.Transform(payload))
}

// PredictAll scores every payload.
func (p *Pipeline) PredictAll(payloads []string) []float64 {
	out := make([]float64, len(payloads))
	for i, s := range payloads {
		out[i] = p.PredictProbability(s)
	}
	return out
}

// Save writes the pipeline as JSON, creating the parent directory.
func Save(p *Pipeline, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return f.Close()
}

// Load reads an artifact written by Save. A missing file yields an error
// satisfying errors.Is(err, os.ErrNotExist).
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	var p Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	if p.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported model format version %d", p.Version)
	}
	if p.Vectorizer == nil || p.Model == nil {
		return nil, errors.New("model artifact is incomplete")
	}
	if len(p.Vectorizer.IDF) != len(p.Model.Coef) || len(p.Vectorizer.Vocabulary) != len(p.Vectorizer.IDF) {
		return nil, fmt.Errorf("model artifact is inconsistent: %d terms, %d idf weights, %d coefficients",
			len(p.Vectorizer.Vocabulary), len(p.Vectorizer.IDF), len(p.Model.Coef))
	}
	for term, idx := range p.Vectorizer.Vocabulary {
		if idx < 0 || idx >= len(p.Vectorizer.IDF) {
			return nil, fmt.Errorf("model artifact term %q has out of range index %d", term, idx)
		}
	}
	return &p, nil
}
