package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// NumpyPickle renders an ndarray the way numpy pickles it with protocol 3:
// _reconstruct(ndarray, (0,), b"b") followed by a BUILD with
// (1, shape, dtype, False, data). descr is the dtype string without byte
// order ("u1", "i8", "f4"); order is '<', '>' or '|'.
func NumpyPickle(shape []int, descr string, order byte, raw []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x80, 0x03})

	b.WriteString("cnumpy.core.multiarray\n_reconstruct\n")
	b.WriteString("cnumpy\nndarray\n")
	binInt(&b, 0)
	b.WriteByte(0x85) // TUPLE1
	shortBytes(&b, []byte("b"))
	b.WriteByte(0x87) // TUPLE3
	b.WriteByte('R')

	b.WriteByte('(')
	binInt(&b, 1)
	b.WriteByte('(')
	for _, dim := range shape {
		binInt(&b, dim)
	}
	b.WriteByte('t')

	b.WriteString("cnumpy\ndtype\n")
	unicodeString(&b, descr)
	b.WriteByte(0x89) // NEWFALSE
	b.WriteByte(0x88) // NEWTRUE
	b.WriteByte(0x87)
	b.WriteByte('R')
	b.WriteByte('(')
	binInt(&b, 3)
	unicodeString(&b, string(order))
	b.WriteString("NNN")
	binInt(&b, -1)
	binInt(&b, -1)
	binInt(&b, 0)
	b.WriteByte('t')
	b.WriteByte('b')

	b.WriteByte(0x89)
	shortBytes(&b, raw)
	b.WriteByte('t')
	b.WriteByte('b')
	b.WriteByte('.')
	return b.Bytes()
}

// ListPickle is a pickled Python list of small ints.
func ListPickle(values ...int) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x80, 0x03, ']', '('})
	for _, v := range values {
		binInt(&b, v)
	}
	b.WriteString("e.")
	return b.Bytes()
}

// Int64LE encodes values as little-endian int64, numpy's default label layout.
func Int64LE(values ...int) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(int64(v)))
	}
	return out
}

// WriteFile writes data under dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func binInt(b *bytes.Buffer, v int) {
	b.WriteByte('J')
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(v)))
	b.Write(buf[:])
}

func shortBytes(b *bytes.Buffer, data []byte) {
	if len(data) < 256 {
		b.WriteByte('C')
		b.WriteByte(byte(len(data)))
	} else {
		b.WriteByte('B')
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(len(data)))
		b.Write(buf[:])
	}
	b.Write(data)
}

func unicodeString(b *bytes.Buffer, s string) {
	b.WriteByte('X')
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(len(s)))
	b.Write(buf[:])
	b.WriteString(s)
}
