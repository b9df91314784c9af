package dataset

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Bitmap is one small grayscale QR rendering taken from the training arrays.
type Bitmap struct {
	Width  int
	Height int
	Values []float64 // row-major
}

// Gray converts values to 8-bit pixels as uint8(v)*255 with wrap-around, so
// 0/1 arrays become black/white.
func (b Bitmap) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i, v := range b.Values {
		img.Pix[i] = uint8(int64(v)) * 255
	}
	return img
}

// Invert flips every tone.
func Invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		dst.Pix[i] = 255 - p
	}
	return dst
}

// Upscale enlarges src by an integer factor with nearest-neighbour sampling.
func Upscale(src *image.Gray, factor int) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Pad surrounds src with a border of the given width and tone.
func Pad(src *image.Gray, border int, fill uint8) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()+2*border, b.Dy()+2*border))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.Gray{Y: fill}}, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(border, border, border+b.Dx(), border+b.Dy()), src, b.Min, draw.Src)
	return dst
}
