// Package tensorio reads and writes a flat binary tensor-file container used
// by the command-line tools. A file holds a single dense tensor:
//
//	offset 0: magic "LNT1" (uint32, little-endian)
//	offset 4: dtype (uint8), rank (uint8), reserved (uint16)
//	offset 8: rank × int64 dimension sizes, little-endian
//	then:     raw element payload, little-endian, row-major
//
// The 8-byte header plus 8-byte dims keep the payload aligned for direct
// typed reinterpretation.
package tensorio

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/lth/pure-go-layernorm/pkg/tensor"
)

// Magic identifies a tensor container file ("LNT1" in little-endian).
const Magic = 0x31544e4c

const headerSize = 8

// Load memory-maps a tensor file and returns its contents as a tensor. The
// returned tensor owns a copy of the payload; the mapping is released before
// returning.
func Load(path string) (*tensor.Tensor, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap file: %w", err)
	}
	defer r.Close()

	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("read mmap: %w", err)
	}

	return decode(data)
}

func decode(data []byte) (*tensor.Tensor, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("file too small for header: %d bytes", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != Magic {
		return nil, fmt.Errorf("bad magic 0x%08x", magic)
	}

	dtype := tensor.DType(data[4])
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("unknown dtype tag %d", data[4])
	}
	rank := int(data[5])

	dimsEnd := headerSize + rank*8
	if len(data) < dimsEnd {
		return nil, fmt.Errorf("file too small for %d dimensions", rank)
	}
	shape := make([]int, rank)
	n := 1
	for i := 0; i < rank; i++ {
		d := int64(binary.LittleEndian.Uint64(data[headerSize+i*8:]))
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d", d)
		}
		shape[i] = int(d)
		n *= shape[i]
	}

	payload := data[dimsEnd:]
	if len(payload) < n*dtype.Size() {
		return nil, fmt.Errorf("payload holds %d bytes, shape %v needs %d", len(payload), shape, n*dtype.Size())
	}

	switch dtype {
	case tensor.DTypeF32:
		elems := make([]float32, n)
		if n > 0 {
			copy(elems, unsafe.Slice((*float32)(unsafe.Pointer(&payload[0])), n))
		}
		return tensor.FromFloat32(shape, elems)
	case tensor.DTypeF64:
		elems := make([]float64, n)
		if n > 0 {
			copy(elems, unsafe.Slice((*float64)(unsafe.Pointer(&payload[0])), n))
		}
		return tensor.FromFloat64(shape, elems)
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
}

// Save writes a tensor to path in the container format.
func Save(path string, t *tensor.Tensor) error {
	header := make([]byte, headerSize+t.Rank()*8)
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	header[4] = byte(t.DType())
	header[5] = byte(t.Rank())
	for i, d := range t.Shape() {
		binary.LittleEndian.PutUint64(header[headerSize+i*8:], uint64(d))
	}

	var payload []byte
	n := t.NumElements()
	switch t.DType() {
	case tensor.DTypeF32:
		elems, err := t.Float32s()
		if err != nil {
			return err
		}
		if n > 0 {
			payload = unsafe.Slice((*byte)(unsafe.Pointer(&elems[0])), n*4)
		}
	case tensor.DTypeF64:
		elems, err := t.Float64s()
		if err != nil {
			return err
		}
		if n > 0 {
			payload = unsafe.Slice((*byte)(unsafe.Pointer(&elems[0])), n*8)
		}
	default:
		return fmt.Errorf("unsupported dtype %s", t.DType())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return fmt.Errorf("write payload: %w", err)
	}
	return f.Close()
}
