package prediction

import (
	"errors"
	"fmt"
	"os"
	"qrguard/internal/classifier"
	"qrguard/internal/config"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"strings"
)

var (
	// ErrModelUnavailable is returned when no classifier artifact was loaded.
	ErrModelUnavailable = errors.New("Model not found. Train it first and ensure MODEL_PATH is correct.")
	// ErrEmptyPayload is returned for blank payloads.
	ErrEmptyPayload = errors.New("payload is empty")
)

// Predictor scores a payload as P(malicious).
type Predictor interface {
	PredictProbability(payload string) float64
}

// Service applies the configured threshold to classifier scores.
type Service struct {
	predictor Predictor
	info      *model.ModelInfo
	threshold float64
	logger    *logger.Logger
}

// NewService loads the artifact at cfg.ModelPath. A missing or unreadable
// artifact leaves the service running without a model.
func NewService(cfg *config.Config, logger *logger.Logger) *Service {
	s := &Service{threshold: cfg.Threshold, logger: logger}

	pipeline, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warning("Model file not found: %s", cfg.ModelPath)
		} else {
			logger.Error("Could not load model: %v", err)
		}
		return s
	}

	s.predictor = pipeline
	s.info = &model.ModelInfo{
		Path:      cfg.ModelPath,
		Features:  pipeline.Vectorizer.NumFeatures(),
		NgramMin:  pipeline.Vectorizer.MinN,
		NgramMax:  pipeline.Vectorizer.MaxN,
		TrainedAt: pipeline.Metadata.TrainedAt,
		TrainSize: pipeline.Metadata.TrainSize,
		ROCAUC:    pipeline.Metadata.ROCAUC,
		Threshold: cfg.Threshold,
	}
	logger.Info("Model loaded from %s (%d features)", cfg.ModelPath, s.info.Features)
	return s
}

// New wraps an already loaded predictor; predictor may be nil.
func New(predictor Predictor, threshold float64, logger *logger.Logger) *Service {
	s := &Service{predictor: predictor, threshold: threshold, logger: logger}
	if predictor != nil {
		s.info = &model.ModelInfo{Threshold: threshold}
	}
	return s
}

// ModelLoaded reports whether predictions can be served.
func (s *Service) ModelLoaded() bool {
	return s.predictor != nil
}

// Threshold is the probability at or above which a payload is labelled 1.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Info describes the loaded artifact.
func (s *Service) Info() (model.ModelInfo, error) {
	if s.info == nil {
		return model.ModelInfo{}, ErrModelUnavailable
	}
	return *s.info, nil
}

// Predict scores the trimmed payload.
func (s *Service) Predict(payload string) (model.Prediction, error) {
	if s.predictor == nil {
		return model.Prediction{}, ErrModelUnavailable
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return model.Prediction{}, ErrEmptyPayload
	}

	prob := s.predictor.PredictProbability(payload)
	if prob < 0 || prob > 1 {
		return model.Prediction{}, fmt.Errorf("classifier returned probability %v outside [0,1]", prob)
	}

	label := 0
	if prob >= s.threshold {
		label = 1
	}
	return model.Prediction{Payload: payload, Probability: prob, Label: label, Threshold: s.threshold}, nil
}
