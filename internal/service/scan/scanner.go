package scan

import (
	"errors"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"qrguard/internal/service/prediction"
)

var (
	// ErrInvalidImage is returned when the upload cannot be read as an image.
	ErrInvalidImage = errors.New("Could not read image")
	// ErrEmptyUpload is returned for zero-length uploads.
	ErrEmptyUpload = errors.New("Empty upload")
)

// Decoder extracts QR symbols from encoded image bytes.
type Decoder interface {
	Decode(data []byte) ([]model.DecodedSymbol, error)
}

// Predictor scores one payload.
type Predictor interface {
	ModelLoaded() bool
	Predict(payload string) (model.Prediction, error)
}

// Scanner runs every symbol found in an image through the predictor.
type Scanner struct {
	decoder   Decoder
	predictor Predictor
	logger    *logger.Logger
}

// NewScanner wires a decoder to a predictor.
func NewScanner(decoder Decoder, predictor Predictor, logger *logger.Logger) *Scanner {
	return &Scanner{decoder: decoder, predictor: predictor, logger: logger}
}

// Scan decodes data and scores each symbol in decoder order. The predictor's
// availability is checked before decoding; the first prediction error aborts
// the scan without partial results.
func (s *Scanner) Scan(data []byte) ([]model.ScanResult, error) {
	if !s.predictor.ModelLoaded() {
		return nil, prediction.ErrModelUnavailable
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	symbols, err := s.decoder.Decode(data)
	if err != nil {
		s.logger.Warning("Failed to decode upload of %d bytes: %v", len(data), err)
		return nil, ErrInvalidImage
	}

	results := make([]model.ScanResult, 0, len(symbols))
	for _, sym := range symbols {
		pred, err := s.predictor.Predict(sym.Payload)
		if err != nil {
			return nil, err
		}
		results = append(results, model.ScanResult{Symbology: sym.Symbology, Prediction: pred})
	}
	return results, nil
}
