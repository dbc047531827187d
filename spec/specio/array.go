package specio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"
)

// Binary array container constants.
const (
	arrayMagic   uint32 = 0x53504341 // ASCII "SPCA"
	arrayVersion uint32 = 1
	headerSize          = 32
)

// Errors returned by the array container.
var (
	ErrBadMagic    = errors.New("specio: bad array magic")
	ErrBadVersion  = errors.New("specio: unsupported array version")
	ErrBadKind     = errors.New("specio: unknown element kind")
	ErrTruncated   = errors.New("specio: truncated array file")
	ErrWrongKind   = errors.New("specio: element kind mismatch")
	ErrRowRange    = errors.New("specio: row index out of range")
	ErrShape       = errors.New("specio: data length does not match shape")
	ErrRaggedInput = errors.New("specio: rows have unequal lengths")
)

// Kind identifies the element type of an array file.
type Kind uint32

const (
	// Float64 marks a real-valued array.
	Float64 Kind = 1

	// Complex128 marks a complex-valued array.
	Complex128 Kind = 2
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case Float64:
		return "float64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// Array is a 2-D numeric array backed either by process memory or by a
// read-only file mapping. Mapped arrays stay valid until Close.
//
// Row views into a mapped array alias the mapping and must not outlive it.
type Array struct {
	kind Kind
	rows int
	cols int

	f64  []float64
	c128 []complex128

	mapped *mappedFile
}

// Kind returns the element kind.
func (a *Array) Kind() Kind { return a.kind }

// Rows returns the number of rows.
func (a *Array) Rows() int { return a.rows }

// Cols returns the number of columns.
func (a *Array) Cols() int { return a.cols }

// Row returns a view of row i of a Float64 array.
func (a *Array) Row(i int) ([]float64, error) {
	if a.kind != Float64 {
		return nil, ErrWrongKind
	}
	if i < 0 || i >= a.rows {
		return nil, fmt.Errorf("%w: %d of %d", ErrRowRange, i, a.rows)
	}
	return a.f64[i*a.cols : (i+1)*a.cols], nil
}

// ComplexRow returns a view of row i of a Complex128 array.
func (a *Array) ComplexRow(i int) ([]complex128, error) {
	if a.kind != Complex128 {
		return nil, ErrWrongKind
	}
	if i < 0 || i >= a.rows {
		return nil, fmt.Errorf("%w: %d of %d", ErrRowRange, i, a.rows)
	}
	return a.c128[i*a.cols : (i+1)*a.cols], nil
}

// Warm touches every element of the array, forcing a mapped file fully into
// the OS page cache. The returned sum has no meaning beyond preventing the
// traversal from being optimized away.
func (a *Array) Warm() float64 {
	sum := 0.0
	switch a.kind {
	case Float64:
		for _, v := range a.f64 {
			sum += v
		}
	case Complex128:
		for _, v := range a.c128 {
			sum += real(v)
		}
	}
	return sum
}

// Close unmaps a file-backed array. In-memory arrays are unaffected.
func (a *Array) Close() error {
	if a.mapped == nil {
		return nil
	}
	a.f64 = nil
	a.c128 = nil
	m := a.mapped
	a.mapped = nil
	return m.Close()
}

// WriteFloat64 writes a real-valued array file. data is row-major with
// rows*cols elements. The file is written to a temporary name and renamed
// into place so readers never observe a partial artifact.
func WriteFloat64(path string, rows, cols int, data []float64) error {
	if len(data) != rows*cols {
		return fmt.Errorf("%w: %d elements for %dx%d", ErrShape, len(data), rows, cols)
	}
	var payload []byte
	if len(data) > 0 {
		payload = unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*8)
	}
	return writeArray(path, Float64, rows, cols, payload)
}

// WriteFloat64Rows writes a real-valued array file from per-row slices,
// which must all have equal length.
func WriteFloat64Rows(path string, rows [][]float64) error {
	if len(rows) == 0 {
		return writeArray(path, Float64, 0, 0, nil)
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return fmt.Errorf("%w: row %d has %d elements, want %d", ErrRaggedInput, i, len(r), cols)
		}
		flat = append(flat, r...)
	}
	return WriteFloat64(path, len(rows), cols, flat)
}

// WriteComplex128Rows writes a complex-valued array file from per-row
// slices, which must all have equal length.
func WriteComplex128Rows(path string, rows [][]complex128) error {
	if len(rows) == 0 {
		return writeArray(path, Complex128, 0, 0, nil)
	}
	cols := len(rows[0])
	flat := make([]complex128, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return fmt.Errorf("%w: row %d has %d elements, want %d", ErrRaggedInput, i, len(r), cols)
		}
		flat = append(flat, r...)
	}
	payload := unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), len(flat)*16)
	return writeArray(path, Complex128, len(rows), cols, payload)
}

func writeArray(path string, kind Kind, rows, cols int, payload []byte) error {
	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:4], arrayMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], arrayVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(kind))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(rows))
	binary.LittleEndian.PutUint64(hdr[24:32], uint64(cols))

	tmp, err := os.CreateTemp(filepath.Dir(path), ".specio-*")
	if err != nil {
		return fmt.Errorf("specio: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(hdr); err == nil && len(payload) > 0 {
		_, err = tmp.Write(payload)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("specio: write %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("specio: rename: %w", err)
	}
	return nil
}

// Open memory-maps an array file read-only. The mapping stays open until
// Close is called on the returned Array.
func Open(path string) (*Array, error) {
	mf, err := mmapReadOnly(path)
	if err != nil {
		return nil, err
	}
	a, err := fromBytes(mf.Bytes())
	if err != nil {
		_ = mf.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.mapped = mf
	return a, nil
}

func fromBytes(b []byte) (*Array, error) {
	if len(b) < headerSize {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(b[0:4]) != arrayMagic {
		return nil, ErrBadMagic
	}
	if binary.LittleEndian.Uint32(b[4:8]) != arrayVersion {
		return nil, ErrBadVersion
	}
	kind := Kind(binary.LittleEndian.Uint32(b[8:12]))
	rows := int(binary.LittleEndian.Uint64(b[16:24]))
	cols := int(binary.LittleEndian.Uint64(b[24:32]))
	n := rows * cols
	payload := b[headerSize:]

	a := &Array{kind: kind, rows: rows, cols: cols}
	switch kind {
	case Float64:
		if len(payload) < n*8 {
			return nil, ErrTruncated
		}
		if n > 0 {
			a.f64 = unsafe.Slice((*float64)(unsafe.Pointer(&payload[0])), n)
		}
	case Complex128:
		if len(payload) < n*16 {
			return nil, ErrTruncated
		}
		if n > 0 {
			a.c128 = unsafe.Slice((*complex128)(unsafe.Pointer(&payload[0])), n)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadKind, kind)
	}
	return a, nil
}
