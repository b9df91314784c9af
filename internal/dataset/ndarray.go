package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrNotArray is returned when a pickle does not hold a numpy array.
	ErrNotArray = errors.New("expected a numpy array")
	// ErrShapeMismatch is returned when bitmaps and labels do not line up.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// DType describes a numeric numpy element type.
type DType struct {
	Kind      byte // 'b' bool, 'i' signed, 'u' unsigned, 'f' float
	ItemSize  int
	BigEndian bool
}

func parseDType(descr string) (*DType, error) {
	if descr == "" {
		return nil, errors.New("empty dtype descriptor")
	}
	d := &DType{}
	switch descr[0] {
	case '<', '|', '=':
		descr = descr[1:]
	case '>':
		d.BigEndian = true
		descr = descr[1:]
	}
	if len(descr) < 2 {
		return nil, fmt.Errorf("unsupported dtype %q", descr)
	}
	size, err := strconv.Atoi(descr[1:])
	if err != nil {
		return nil, fmt.Errorf("unsupported dtype %q", descr)
	}
	d.Kind, d.ItemSize = descr[0], size

	switch {
	case d.Kind == 'b' && size == 1:
	case (d.Kind == 'i' || d.Kind == 'u') && (size == 1 || size == 2 || size == 4 || size == 8):
	case d.Kind == 'f' && (size == 4 || size == 8):
	default:
		return nil, fmt.Errorf("unsupported dtype %q", descr)
	}
	return d, nil
}

func (d *DType) String() string {
	order := "<"
	if d.BigEndian {
		order = ">"
	}
	if d.ItemSize == 1 {
		order = "|"
	}
	return order + string(d.Kind) + strconv.Itoa(d.ItemSize)
}

func (d *DType) byteOrder() binary.ByteOrder {
	if d.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// decode converts raw element bytes to float64 values.
func (d *DType) decode(raw []byte) ([]float64, error) {
	if len(raw)%d.ItemSize != 0 {
		return nil, fmt.Errorf("%d bytes is not a multiple of item size %d", len(raw), d.ItemSize)
	}
	order := d.byteOrder()
	out := make([]float64, len(raw)/d.ItemSize)
	for i := range out {
		b := raw[i*d.ItemSize : (i+1)*d.ItemSize]
		switch d.Kind {
		case 'b':
			if b[0] != 0 {
				out[i] = 1
			}
		case 'u':
			out[i] = float64(readUint(b, order))
		case 'i':
			u := readUint(b, order)
			shift := 64 - 8*uint(d.ItemSize)
			out[i] = float64(int64(u<<shift) >> shift)
		case 'f':
			if d.ItemSize == 4 {
				out[i] = float64(math.Float32frombits(order.Uint32(b)))
			} else {
				out[i] = math.Float64frombits(order.Uint64(b))
			}
		}
	}
	return out, nil
}

func readUint(b []byte, order binary.ByteOrder) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	default:
		return order.Uint64(b)
	}
}

// NDArray is a dense numeric array restored from a numpy pickle. Data is
// stored row-major regardless of the source memory order.
type NDArray struct {
	Shape []int
	DType *DType
	Data  []float64
}

// Len is the size of the first dimension.
func (a *NDArray) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

func (a *NDArray) setData(shape []int, dtype *DType, fortran bool, raw []byte) error {
	values, err := dtype.decode(raw)
	if err != nil {
		return err
	}
	total := 1
	for _, dim := range shape {
		total *= dim
	}
	if total != len(values) {
		return fmt.Errorf("shape %v needs %d elements, buffer holds %d", shape, total, len(values))
	}
	if fortran && len(shape) > 1 {
		values = fortranToC(values, shape)
	}
	a.Shape, a.DType, a.Data = shape, dtype, values
	return nil
}

// fortranToC reorders column-major values into row-major order.
func fortranToC(values []float64, shape []int) []float64 {
	out := make([]float64, len(values))
	idx := make([]int, len(shape))
	for c := range out {
		// c enumerates row-major positions; compute the matching column-major offset.
		rem := c
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d] = rem % shape[d]
			rem /= shape[d]
		}
		f, stride := 0, 1
		for d := 0; d < len(shape); d++ {
			f += idx[d] * stride
			stride *= shape[d]
		}
		out[c] = values[f]
	}
	return out
}

// Bitmaps validates a (N,H,W) array and returns it as N images.
func (a *NDArray) Bitmaps() ([]Bitmap, error) {
	if len(a.Shape) != 3 {
		return nil, fmt.Errorf("%w: bitmaps must be 3-dimensional (N,H,W), got shape %v", ErrShapeMismatch, a.Shape)
	}
	n, h, w := a.Shape[0], a.Shape[1], a.Shape[2]
	out := make([]Bitmap, n)
	for i := range out {
		out[i] = Bitmap{Width: w, Height: h, Values: a.Data[i*h*w : (i+1)*h*w]}
	}
	return out, nil
}

// Labels validates a 1-D integer-valued array.
func (a *NDArray) Labels() ([]int, error) {
	if len(a.Shape) != 1 {
		return nil, fmt.Errorf("%w: labels must be 1-dimensional, got shape %v", ErrShapeMismatch, a.Shape)
	}
	out := make([]int, len(a.Data))
	for i, v := range a.Data {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("label %d is not an integer: %v", i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}
