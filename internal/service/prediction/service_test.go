package prediction

import (
	"path/filepath"
	"testing"

	"qrguard/internal/classifier"
	"qrguard/internal/config"
	"qrguard/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPredictor struct {
	prob float64
	seen []string
}

func (p *fixedPredictor) PredictProbability(payload string) float64 {
	p.seen = append(p.seen, payload)
	return p.prob
}

func TestPredict_NoModel(t *testing.T) {
	s := New(nil, 0.5, logger.Discard())

	assert.False(t, s.ModelLoaded())
	_, err := s.Predict("http://example.com")
	assert.ErrorIs(t, err, ErrModelUnavailable)

	// Model availability is checked before the payload.
	_, err = s.Predict("   ")
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = s.Info()
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredict_EmptyPayload(t *testing.T) {
	p := &fixedPredictor{prob: 0.9}
	s := New(p, 0.5, logger.Discard())

	for _, payload := range []string{"", "   ", "\t\n"} {
		_, err := s.Predict(payload)
		assert.ErrorIs(t, err, ErrEmptyPayload)
	}
	assert.Empty(t, p.seen)
}

func TestPredict_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		prob      float64
		threshold float64
		wantLabel int
	}{
		{name: "below", prob: 0.49, threshold: 0.5, wantLabel: 0},
		{name: "equal is malicious", prob: 0.5, threshold: 0.5, wantLabel: 1},
		{name: "above", prob: 0.51, threshold: 0.5, wantLabel: 1},
		{name: "strict threshold", prob: 0.8, threshold: 0.9, wantLabel: 0},
		{name: "zero threshold", prob: 0, threshold: 0, wantLabel: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fixedPredictor{prob: tt.prob}, tt.threshold, logger.Discard())

			got, err := s.Predict("  http://example.com  ")
			require.NoError(t, err)
			assert.Equal(t, "http://example.com", got.Payload)
			assert.Equal(t, tt.prob, got.Probability)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.threshold, got.Threshold)
		})
	}
}

func TestPredict_PassesTrimmedPayload(t *testing.T) {
	p := &fixedPredictor{prob: 0.1}
	s := New(p, 0.5, logger.Discard())

	_, err := s.Predict("\n WIFI:S:home;; \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"WIFI:S:home;;"}, p.seen)
}

func TestNewService_MissingArtifact(t *testing.T) {
	cfg := &config.Config{ModelPath: filepath.Join(t.TempDir(), "absent.json"), Threshold: 0.5}

	s := NewService(cfg, logger.Discard())
	assert.False(t, s.ModelLoaded())
	assert.Equal(t, 0.5, s.Threshold())
}

func TestNewService_LoadsArtifact(t *testing.T) {
	var docs []string
	var labels []int
	for i := 0; i < 10; i++ {
		docs = append(docs, "https://shop.example.com/item/"+string(rune('a'+i)))
		labels = append(labels, 0)
		docs = append(docs, "http://free-prize.example.xyz/claim?id="+string(rune('a'+i)))
		labels = append(labels, 1)
	}
	pipeline, err := classifier.Fit(docs, labels, classifier.DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, classifier.Save(pipeline, path))

	s := NewService(&config.Config{ModelPath: path, Threshold: 0.5}, logger.Discard())
	require.True(t, s.ModelLoaded())

	info, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, 3, info.NgramMin)
	assert.Equal(t, 5, info.NgramMax)
	assert.Equal(t, pipeline.Vectorizer.NumFeatures(), info.Features)

	bad, err := s.Predict("http://free-prize.example.xyz/claim?id=z")
	require.NoError(t, err)
	good, err := s.Predict("https://shop.example.com/item/z")
	require.NoError(t, err)
	assert.Greater(t, bad.Probability, good.Probability)
}
