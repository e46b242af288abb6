// Package tensor provides dense multi-dimensional arrays with typed buffer access.
//
// A Tensor couples a shape with a flat row-major buffer of float32 or float64
// elements. Elements along trailing dimensions are contiguous, so any split of
// the shape yields contiguous rows.
package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major array of float32 or float64 elements.
type Tensor struct {
	dtype DType
	shape []int
	f32   []float32
	f64   []float64
}

// New allocates a zero-filled tensor of the given element type and shape.
func New(dtype DType, shape []int) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}

	t := &Tensor{dtype: dtype, shape: append([]int(nil), shape...)}
	switch dtype {
	case DTypeF32:
		t.f32 = make([]float32, n)
	case DTypeF64:
		t.f64 = make([]float64, n)
	default:
		return nil, fmt.Errorf("cannot allocate tensor of type %s", dtype)
	}
	return t, nil
}

// FromFloat32 wraps an existing float32 buffer as a tensor. The buffer is not
// copied; it must hold exactly one element per shape index.
func FromFloat32(shape []int, data []float32) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("shape %v requires %d elements, buffer has %d", shape, n, len(data))
	}
	return &Tensor{dtype: DTypeF32, shape: append([]int(nil), shape...), f32: data}, nil
}

// FromFloat64 wraps an existing float64 buffer as a tensor. The buffer is not
// copied; it must hold exactly one element per shape index.
func FromFloat64(shape []int, data []float64) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("shape %v requires %d elements, buffer has %d", shape, n, len(data))
	}
	return &Tensor{dtype: DTypeF64, shape: append([]int(nil), shape...), f64: data}, nil
}

// DType returns the element type.
func (t *Tensor) DType() DType {
	return t.dtype
}

// Shape returns the tensor shape. The returned slice is shared; callers must
// not modify it.
func (t *Tensor) Shape() []int {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns total number of elements
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.shape {
		n *= d
	}
	return n
}

// Float32s returns the backing buffer as []float32 (for F32 tensors).
func (t *Tensor) Float32s() ([]float32, error) {
	if t.dtype != DTypeF32 {
		return nil, fmt.Errorf("tensor is not F32: %s", t.dtype)
	}
	return t.f32, nil
}

// Float64s returns the backing buffer as []float64 (for F64 tensors).
func (t *Tensor) Float64s() ([]float64, error) {
	if t.dtype != DTypeF64 {
		return nil, fmt.Errorf("tensor is not F64: %s", t.dtype)
	}
	return t.f64, nil
}

// checkShape validates dimensions and returns the element count.
func checkShape(shape []int) (int, error) {
	n := 1
	for i, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("dimension %d is negative: %d", i, d)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}
		n *= d
	}
	return n, nil
}
