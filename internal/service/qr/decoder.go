package qr

import (
	"errors"
	"fmt"
	"image"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"strings"
	"sync"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"gocv.io/x/gocv"
	"golang.org/x/text/encoding/unicode"
)

// ErrInvalidImage is returned when the input bytes are not a decodable image.
var ErrInvalidImage = errors.New("could not read image")

var decodeHints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// Decoder finds and decodes QR codes. Every symbol in the image is read with
// the ZXing multi reader; OpenCV's detector is the single-symbol fallback when
// ZXing finds nothing.
type Decoder struct {
	detector gocv.QRCodeDetector
	mu       sync.Mutex
	logger   *logger.Logger
}

// NewDecoder allocates the native detector. Call Close when done.
func NewDecoder(logger *logger.Logger) *Decoder {
	return &Decoder{
		detector: gocv.NewQRCodeDetector(),
		logger:   logger,
	}
}

// Decode reads every QR code in an encoded image (PNG, JPEG, BMP, ...).
func (d *Decoder) Decode(data []byte) ([]model.DecodedSymbol, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrInvalidImage)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", ErrInvalidImage)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	symbols, err := readAll(img)
	if err != nil || len(symbols) > 0 {
		return symbols, err
	}
	return d.detectSingle(mat), nil
}

// DecodeImage reads every QR code in an in-memory image.
func (d *Decoder) DecodeImage(img image.Image) ([]model.DecodedSymbol, error) {
	symbols, err := readAll(img)
	if err != nil || len(symbols) > 0 {
		return symbols, err
	}

	var mat gocv.Mat
	if gray, ok := img.(*image.Gray); ok {
		mat, err = gocv.ImageGrayToMatGray(gray)
	} else {
		mat, err = gocv.ImageToMatRGB(img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	return d.detectSingle(mat), nil
}

// readAll runs the ZXing multi reader. An image without a readable code is
// not an error.
func readAll(img image.Image) ([]model.DecodedSymbol, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}

	results, err := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, decodeHints)
	if err != nil {
		var notFound gozxing.ReaderException
		if errors.As(err, &notFound) {
			return []model.DecodedSymbol{}, nil
		}
		return nil, fmt.Errorf("failed to read QR codes: %w", err)
	}

	symbols := make([]model.DecodedSymbol, 0, len(results))
	for _, r := range results {
		if s, ok := newSymbol(r.GetText()); ok {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

func (d *Decoder) detectSingle(mat gocv.Mat) []model.DecodedSymbol {
	d.mu.Lock()
	defer d.mu.Unlock()

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	if s, ok := newSymbol(d.detector.DetectAndDecode(mat, &points, &straight)); ok {
		return []model.DecodedSymbol{s}
	}
	return []model.DecodedSymbol{}
}

func newSymbol(raw string) (model.DecodedSymbol, bool) {
	payload := strings.TrimSpace(toUTF8(raw))
	if payload == "" {
		return model.DecodedSymbol{}, false
	}
	return model.DecodedSymbol{Payload: payload, Symbology: model.SymbologyQRCode}, true
}

// Close releases the native detector.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.detector.Close(); err != nil {
		d.logger.Warning("Failed to release QR detector: %v", err)
		return err
	}
	return nil
}

// toUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func toUTF8(raw string) string {
	s, err := unicode.UTF8.NewDecoder().String(raw)
	if err != nil {
		return strings.ToValidUTF8(raw, "\uFFFD")
	}
	return s
}
