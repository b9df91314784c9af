package qr

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"qrguard/internal/dataset"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"qrguard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d := NewDecoder(logger.Discard())
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDecode_PNG(t *testing.T) {
	d := newTestDecoder(t)

	symbols, err := d.Decode(testutil.QRPNG(t, "http://example.com"))
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, model.DecodedSymbol{Payload: "http://example.com", Symbology: model.SymbologyQRCode}, symbols[0])
}

func TestDecode_BlankImage(t *testing.T) {
	d := newTestDecoder(t)

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	symbols, err := d.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestDecode_NotAnImage(t *testing.T) {
	d := newTestDecoder(t)

	_, err := d.Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = d.Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeImage_SweptBitmap(t *testing.T) {
	d := newTestDecoder(t)

	raw := testutil.QRBitmap(t, "https://bad.example/login", 29)
	values := make([]float64, len(raw))
	for i, v := range raw {
		values[i] = float64(v)
	}

	payload, used, ok, err := dataset.NewSweeper(d).Recover(dataset.Bitmap{Width: 29, Height: 29, Values: values})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://bad.example/login", payload)
	assert.False(t, used.Inverted)
}

func TestDecodeImage_SeveralCodes(t *testing.T) {
	d := newTestDecoder(t)

	left, err := png.Decode(bytes.NewReader(testutil.QRPNG(t, "http://example.com")))
	require.NoError(t, err)
	right, err := png.Decode(bytes.NewReader(testutil.QRPNG(t, "https://bad.example/login")))
	require.NoError(t, err)

	w, h := left.Bounds().Dx(), left.Bounds().Dy()
	canvas := image.NewRGBA(image.Rect(0, 0, 2*w+40, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, w, h), left, left.Bounds().Min, draw.Src)
	draw.Draw(canvas, image.Rect(w+40, 0, 2*w+40, h), right, right.Bounds().Min, draw.Src)

	symbols, err := d.DecodeImage(canvas)
	require.NoError(t, err)
	payloads := make([]string, 0, len(symbols))
	for _, s := range symbols {
		payloads = append(payloads, s.Payload)
	}
	assert.ElementsMatch(t, []string{"http://example.com", "https://bad.example/login"}, payloads)
}

func TestDecodeImage_RGBA(t *testing.T) {
	d := newTestDecoder(t)

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.White)
		}
	}
	symbols, err := d.DecodeImage(img)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestToUTF8(t *testing.T) {
	assert.Equal(t, "caf\uFFFD", toUTF8("caf\xe9"))
	assert.Equal(t, "café", toUTF8("café"))
}
