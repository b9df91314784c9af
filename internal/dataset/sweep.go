package dataset

import (
	"fmt"
	"image"
	"qrguard/internal/model"
	"strings"
)

// QuietZone is the white border added around every upscaled bitmap.
const QuietZone = 20

// Attempt is one (polarity, scale) configuration of the decode sweep.
type Attempt struct {
	Inverted bool
	Scale    int
}

func (a Attempt) String() string {
	polarity := "normal"
	if a.Inverted {
		polarity = "inverted"
	}
	return fmt.Sprintf("%s x%d", polarity, a.Scale)
}

// DefaultAttempts is tried in order: normal polarity at increasing scale,
// then inverted. Keep this order stable; it decides which read wins.
var DefaultAttempts = []Attempt{
	{Inverted: false, Scale: 6},
	{Inverted: false, Scale: 8},
	{Inverted: false, Scale: 10},
	{Inverted: true, Scale: 6},
	{Inverted: true, Scale: 8},
	{Inverted: true, Scale: 10},
}

// ImageDecoder reads barcodes from an in-memory image.
type ImageDecoder interface {
	DecodeImage(img image.Image) ([]model.DecodedSymbol, error)
}

// Sweeper recovers a payload from a bitmap by trying each attempt in turn.
type Sweeper struct {
	decoder  ImageDecoder
	attempts []Attempt
	border   int
}

// NewSweeper uses DefaultAttempts and QuietZone.
func NewSweeper(decoder ImageDecoder) *Sweeper {
	return &Sweeper{decoder: decoder, attempts: DefaultAttempts, border: QuietZone}
}

// Attempts returns the configured order.
func (s *Sweeper) Attempts() []Attempt {
	return s.attempts
}

// Recover returns the payload of the first attempt whose first symbol is
// non-empty. ok is false when every attempt fails.
func (s *Sweeper) Recover(b Bitmap) (payload string, used Attempt, ok bool, err error) {
	normal := b.Gray()
	var inverted *image.Gray

	for _, a := range s.attempts {
		base := normal
		if a.Inverted {
			if inverted == nil {
				inverted = Invert(normal)
			}
			base = inverted
		}

		img := Pad(Upscale(base, a.Scale), s.border, 255)
		symbols, err := s.decoder.DecodeImage(img)
		if err != nil {
			return "", a, false, fmt.Errorf("decode attempt %s: %w", a, err)
		}
		if len(symbols) == 0 {
			continue
		}
		if p := strings.TrimSpace(symbols[0].Payload); p != "" {
			return p, a, true, nil
		}
	}
	return "", Attempt{}, false, nil
}
