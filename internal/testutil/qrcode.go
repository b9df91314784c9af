package testutil

import (
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

// QRBitmap renders payload as a 0/1 bitmap (0 = dark module) without a quiet
// zone, centred on a white size x size canvas.
func QRBitmap(t testing.TB, payload string, size int) []uint8 {
	t.Helper()
	q, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		t.Fatalf("Failed to encode %q: %v", payload, err)
	}
	q.DisableBorder = true
	modules := q.Bitmap()
	if len(modules) > size {
		t.Fatalf("QR for %q needs %d modules, canvas is %d", payload, len(modules), size)
	}

	out := make([]uint8, size*size)
	for i := range out {
		out[i] = 1
	}
	offset := (size - len(modules)) / 2
	for y, row := range modules {
		for x, dark := range row {
			if dark {
				out[(y+offset)*size+x+offset] = 0
			}
		}
	}
	return out
}

// QRPNG renders payload as a PNG image with the standard quiet zone.
func QRPNG(t testing.TB, payload string) []byte {
	t.Helper()
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		t.Fatalf("Failed to encode %q: %v", payload, err)
	}
	return png
}
