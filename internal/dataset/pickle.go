package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"os"
	"reflect"

	"github.com/nlpodyssey/gopickle/pickle"
)

// LoadPickle unpickles the object stored at path. numpy arrays come back as
// *NDArray; any other class is returned as *Object so callers can report what
// they found.
func LoadPickle(path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pickle: %w", err)
	}
	defer f.Close()

	u := pickle.NewUnpickler(bufio.NewReader(f))
	u.FindClass = findClass
	obj, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to unpickle %s: %w", path, err)
	}
	return obj, nil
}

// LoadArray unpickles path and requires the result to be a numpy array.
func LoadArray(path string) (*NDArray, error) {
	obj, err := LoadPickle(path)
	if err != nil {
		return nil, err
	}
	arr, ok := obj.(*NDArray)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %s", ErrNotArray, path, Describe(obj))
	}
	if arr.DType == nil {
		return nil, fmt.Errorf("%w: %s holds an array without data", ErrNotArray, path)
	}
	return arr, nil
}

// Describe names the type of an unpickled object.
func Describe(obj interface{}) string {
	switch v := obj.(type) {
	case *NDArray:
		return fmt.Sprintf("numpy.ndarray shape=%v dtype=%s", v.Shape, v.DType)
	case *Object:
		return v.Class.Module + "." + v.Class.Name
	case nil:
		return "None"
	}
	if items, ok := asSlice(obj); ok {
		return fmt.Sprintf("%T len=%d", obj, len(items))
	}
	return fmt.Sprintf("%T", obj)
}

// Class is a placeholder for a Python class the loader does not model.
type Class struct {
	Module string
	Name   string
}

// Call instantiates the placeholder class.
func (c *Class) Call(args ...interface{}) (interface{}, error) {
	return &Object{Class: c, Args: args}, nil
}

// PyNew is used by the NEWOBJ opcode.
func (c *Class) PyNew(args ...interface{}) (interface{}, error) {
	return &Object{Class: c, Args: args}, nil
}

// Object is an instance of an unmodelled Python class.
type Object struct {
	Class *Class
	Args  []interface{}
	State interface{}
}

// PySetState keeps whatever state the pickle carries.
func (o *Object) PySetState(state interface{}) error {
	o.State = state
	return nil
}

type callable func(args ...interface{}) (interface{}, error)

func (f callable) Call(args ...interface{}) (interface{}, error) {
	return f(args...)
}

func findClass(module, name string) (interface{}, error) {
	switch module + "." + name {
	case "numpy.core.multiarray._reconstruct", "numpy._core.multiarray._reconstruct":
		return callable(func(args ...interface{}) (interface{}, error) {
			return &NDArray{}, nil
		}), nil
	case "numpy.ndarray":
		return &Class{Module: module, Name: name}, nil
	case "numpy.dtype":
		return callable(newDType), nil
	case "numpy.core.numeric._frombuffer", "numpy._core.numeric._frombuffer":
		return callable(fromBuffer), nil
	case "_codecs.encode":
		return callable(latin1Encode), nil
	}
	return &Class{Module: module, Name: name}, nil
}

// newDType handles numpy.dtype(descr, align, copy).
func newDType(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, errors.New("numpy.dtype called without arguments")
	}
	descr, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("numpy.dtype descriptor has type %T", args[0])
	}
	return parseDType(descr)
}

// PySetState applies the pickled dtype state; only the byte order matters here.
func (d *DType) PySetState(state interface{}) error {
	items, ok := asSlice(state)
	if !ok || len(items) < 2 {
		return fmt.Errorf("unexpected dtype state %T", state)
	}
	if order, ok := items[1].(string); ok {
		d.BigEndian = order == ">"
	}
	return nil
}

// PySetState restores an array from (version, shape, dtype, is_fortran, data).
func (a *NDArray) PySetState(state interface{}) error {
	items, ok := asSlice(state)
	if !ok {
		return fmt.Errorf("unexpected ndarray state %T", state)
	}
	if len(items) == 5 {
		items = items[1:]
	}
	if len(items) != 4 {
		return fmt.Errorf("unexpected ndarray state with %d fields", len(items))
	}

	shape, err := asShape(items[0])
	if err != nil {
		return err
	}
	dtype, ok := items[1].(*DType)
	if !ok {
		return fmt.Errorf("%w: unsupported element type %s", ErrNotArray, Describe(items[1]))
	}
	fortran, _ := items[2].(bool)
	raw, ok := asBytes(items[3])
	if !ok {
		return fmt.Errorf("%w: array data has type %T", ErrNotArray, items[3])
	}
	return a.setData(shape, dtype, fortran, raw)
}

// fromBuffer handles numpy's protocol 5 reduction _frombuffer(buf, dtype, shape, order).
func fromBuffer(args ...interface{}) (interface{}, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("_frombuffer expects 4 arguments, got %d", len(args))
	}
	raw, ok := asBytes(args[0])
	if !ok {
		return nil, fmt.Errorf("_frombuffer buffer has type %T", args[0])
	}
	dtype, ok := args[1].(*DType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported element type %s", ErrNotArray, Describe(args[1]))
	}
	shape, err := asShape(args[2])
	if err != nil {
		return nil, err
	}
	order, _ := args[3].(string)

	arr := &NDArray{}
	if err := arr.setData(shape, dtype, order == "F", raw); err != nil {
		return nil, err
	}
	return arr, nil
}

// latin1Encode handles _codecs.encode(text, "latin1"), which protocol 2
// pickles use for bytes objects.
func latin1Encode(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, errors.New("_codecs.encode called without arguments")
	}
	text, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("_codecs.encode argument has type %T", args[0])
	}
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return nil, fmt.Errorf("rune %U is outside latin1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

func asShape(v interface{}) ([]int, error) {
	if n, ok := asInt(v); ok {
		return []int{n}, nil
	}
	items, ok := asSlice(v)
	if !ok {
		return nil, fmt.Errorf("unexpected shape %T", v)
	}
	shape := make([]int, len(items))
	for i, item := range items {
		n, ok := asInt(item)
		if !ok || n < 0 {
			return nil, fmt.Errorf("invalid dimension %v", item)
		}
		shape[i] = n
	}
	return shape, nil
}

func asInt(v interface{}) (int, bool) {
	if b, ok := v.(*big.Int); ok {
		if !b.IsInt64() {
			return 0, false
		}
		return int(b.Int64()), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	}
	return 0, false
}

// asSlice unwraps pickled tuples and lists, whatever concrete slice type the
// unpickler uses for them.
func asSlice(v interface{}) ([]interface{}, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Interface {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asBytes accepts bytes, bytearray and Python 2 str payloads.
func asBytes(v interface{}) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return rv.Bytes(), true
	}
	return nil, false
}
