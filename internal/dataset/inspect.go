package dataset

import (
	"fmt"
	"strings"
)

// previewLimit caps the characters printed for an unrecognised object.
const previewLimit = 500

// Summary is a human readable description of an unpickled object.
type Summary struct {
	Type    string
	Details []string
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== TYPE ===\n%s\n", s.Type)
	for _, d := range s.Details {
		b.WriteString(d)
		b.WriteString("\n")
	}
	return b.String()
}

// Summarize describes obj: shape, dtype and a value preview for arrays,
// length and first element for sequences, a truncated dump otherwise.
func Summarize(obj interface{}) Summary {
	switch v := obj.(type) {
	case *NDArray:
		s := Summary{Type: "numpy.ndarray"}
		s.Details = append(s.Details,
			fmt.Sprintf("shape: %v", v.Shape),
			fmt.Sprintf("dtype: %s", v.DType))
		if len(v.Shape) == 1 {
			n := min(len(v.Data), 10)
			s.Details = append(s.Details, fmt.Sprintf("first %d values: %v", n, v.Data[:n]))
		} else if len(v.Shape) == 3 && v.Len() > 0 {
			s.Details = append(s.Details, fmt.Sprintf("%d bitmaps of %dx%d", v.Shape[0], v.Shape[2], v.Shape[1]))
		}
		return s
	case *Object:
		return Summary{
			Type:    v.Class.Module + "." + v.Class.Name,
			Details: []string{fmt.Sprintf("constructor args: %d", len(v.Args))},
		}
	}

	if items, ok := asSlice(obj); ok {
		s := Summary{Type: Describe(obj), Details: []string{fmt.Sprintf("length: %d", len(items))}}
		if len(items) > 0 {
			s.Details = append(s.Details,
				fmt.Sprintf("first element type: %s", Describe(items[0])),
				fmt.Sprintf("first element preview: %s", preview(items[0])))
		}
		return s
	}

	return Summary{Type: Describe(obj), Details: []string{"preview: " + preview(obj)}}
}

func preview(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}
