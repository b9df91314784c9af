package training

import (
	"context"
	"errors"
	"fmt"
	"qrguard/internal/classifier"
	"qrguard/internal/config"
	"qrguard/internal/dataset"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"qrguard/internal/repository"
	"time"
)

const (
	// TestFraction is the share of rows held out for evaluation.
	TestFraction = 0.2
	// SplitSeed fixes the stratified shuffle.
	SplitSeed = 42
	// ReportCutoff is the probability used for the classification report.
	ReportCutoff = 0.5
)

// ErrInvalidLabel is returned when a dataset label is not 0 or 1.
var ErrInvalidLabel = errors.New("labels must be 0 or 1")

// Options selects the dataset, the artifact destination and the model settings.
type Options struct {
	DataPath    string
	ModelOutput string
	Classifier  classifier.Options
}

// OptionsFromConfig reads DATA_PATH and MODEL_OUT with the default classifier.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DataPath:    cfg.DataPath,
		ModelOutput: cfg.ModelOutput,
		Classifier:  classifier.DefaultOptions(),
	}
}

// Result is the outcome of a training run.
type Result struct {
	Pipeline  *classifier.Pipeline
	TrainSize int
	TestSize  int
	ROCAUC    float64
	Report    *classifier.Report
}

// Service fits and evaluates the payload classifier.
type Service struct {
	runs   repository.TrainingRunRepository
	logger *logger.Logger
}

// NewService creates the training job. runs may be nil to skip the ledger.
func NewService(runs repository.TrainingRunRepository, logger *logger.Logger) *Service {
	return &Service{runs: runs, logger: logger}
}

// Run trains on a stratified 80% of the dataset, evaluates on the rest and
// saves the fitted pipeline to opts.ModelOutput.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	rows, err := dataset.ReadCSV(opts.DataPath)
	if err != nil {
		return nil, err
	}
	total := len(rows)
	rows = dataset.CleanRows(rows)
	s.logger.Info("Loaded %d rows from %s (%d with a payload)", total, opts.DataPath, len(rows))

	docs := make([]string, len(rows))
	labels := make([]int, len(rows))
	for i, row := range rows {
		if row.Label != 0 && row.Label != 1 {
			return nil, fmt.Errorf("%w: row %d has label %d", ErrInvalidLabel, row.Index, row.Label)
		}
		docs[i], labels[i] = row.Payload, row.Label
	}

	trainIdx, testIdx, err := classifier.StratifiedSplit(labels, TestFraction, SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	trainDocs, trainLabels := pick(docs, labels, trainIdx)
	testDocs, testLabels := pick(docs, labels, testIdx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	pipeline, err := classifier.Fit(trainDocs, trainLabels, opts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}
	s.logger.Info("Fitted %d features on %d rows in %s", pipeline.Vectorizer.NumFeatures(), len(trainDocs), time.Since(start).Round(time.Millisecond))
	if fit := pipeline.Model.Fit; !fit.Converged() {
		s.logger.Warning("Logistic regression did not converge (status %s after %d iterations) %s", fit.Status, fit.Iterations, fit.Problem)
	}

	proba := pipeline.PredictAll(testDocs)
	auc, err := classifier.ROCAUC(testLabels, proba)
	if err != nil {
		return nil, fmt.Errorf("failed to score model: %w", err)
	}

	pred := make([]int, len(proba))
	for i, p := range proba {
		if p >= ReportCutoff {
			pred[i] = 1
		}
	}
	report, err := classifier.ClassificationReport(testLabels, pred)
	if err != nil {
		return nil, err
	}

	pipeline.Metadata.TestSize = len(testDocs)
	pipeline.Metadata.ROCAUC = auc
	if err := classifier.Save(pipeline, opts.ModelOutput); err != nil {
		return nil, err
	}

	s.logger.Info("ROC AUC: %.4f", auc)
	s.logger.Info("Classification report:\n%s", report)
	s.logger.Info("Saved model => %s", opts.ModelOutput)

	s.record(&model.TrainingRun{
		CreatedAt: pipeline.Metadata.TrainedAt,
		DataPath:  opts.DataPath,
		ModelPath: opts.ModelOutput,
		TrainSize: len(trainDocs),
		TestSize:  len(testDocs),
		ROCAUC:    auc,
		Accuracy:  report.Accuracy,
		Report:    report.String(),
	})

	return &Result{
		Pipeline:  pipeline,
		TrainSize: len(trainDocs),
		TestSize:  len(testDocs),
		ROCAUC:    auc,
		Report:    report,
	}, nil
}

func (s *Service) record(run *model.TrainingRun) {
	if s.runs == nil {
		return
	}
	if prev, err := s.runs.GetLatest(); err != nil {
		s.logger.Warning("Could not read previous training run: %v", err)
	} else if prev != nil {
		s.logger.Info("ROC AUC %.4f vs %.4f in run #%d (%+.4f)", run.ROCAUC, prev.ROCAUC, prev.ID, run.ROCAUC-prev.ROCAUC)
	}

	id, err := s.runs.Insert(run)
	if err != nil {
		s.logger.Warning("Could not record training run: %v", err)
		return
	}
	s.logger.Info("Recorded training run #%d", id)
}

func pick(docs []string, labels []int, idx []int) ([]string, []int) {
	outDocs := make([]string, len(idx))
	outLabels := make([]int, len(idx))
	for i, j := range idx {
		outDocs[i], outLabels[i] = docs[j], labels[j]
	}
	return outDocs, outLabels
}
