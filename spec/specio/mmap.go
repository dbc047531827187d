package specio

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/exp/mmap"
)

// mappedFile is a read-only memory mapping of a whole file.
//
// Any slice carved out of Bytes becomes invalid after Close; the Array
// wrapper keeps the mapping alive for as long as rows may be in use.
type mappedFile struct {
	r    *mmap.ReaderAt
	data []byte
}

func (m *mappedFile) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

func (m *mappedFile) Close() error {
	if m == nil {
		return nil
	}
	m.data = nil
	if m.r != nil {
		err := m.r.Close()
		m.r = nil
		return err
	}
	return nil
}

func mmapReadOnly(path string) (*mappedFile, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("specio: mmap %s: %w", path, err)
	}
	data, err := readerAtBytes(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	if len(data) != r.Len() {
		_ = r.Close()
		return nil, fmt.Errorf("specio: mmap %s: mapping size %d, file size %d", path, len(data), r.Len())
	}
	return &mappedFile{r: r, data: data}, nil
}

// readerAtBytes extracts the mapped byte slice backing an mmap.ReaderAt.
// The x/exp/mmap API only exposes ReadAt, but zero-copy row views need the
// raw mapping, so this reaches the unexported data field directly and fails
// fast if the upstream layout ever changes.
func readerAtBytes(r *mmap.ReaderAt) ([]byte, error) {
	v := reflect.ValueOf(r)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, fmt.Errorf("specio: mmap: unexpected reader kind")
	}
	e := v.Elem()
	if e.Kind() != reflect.Struct {
		return nil, fmt.Errorf("specio: mmap: unexpected reader layout")
	}
	f := e.FieldByName("data")
	if !f.IsValid() || f.Kind() != reflect.Slice || f.Type().Elem().Kind() != reflect.Uint8 {
		return nil, fmt.Errorf("specio: mmap: unsupported x/exp/mmap version (missing data field)")
	}
	if !f.CanAddr() {
		return nil, fmt.Errorf("specio: mmap: cannot address reader data")
	}
	return *(*[]byte)(unsafe.Pointer(f.UnsafeAddr())), nil
}
