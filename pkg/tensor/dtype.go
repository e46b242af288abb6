package tensor

import "fmt"

// DType identifies the element type of a tensor buffer.
type DType uint8

const (
	DTypeInvalid DType = iota
	DTypeF32
	DTypeF64
)

// String returns the name of the data type
func (d DType) String() string {
	switch d {
	case DTypeF32:
		return "F32"
	case DTypeF64:
		return "F64"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

// Size returns the element size in bytes, or 0 for unknown types.
func (d DType) Size() int {
	switch d {
	case DTypeF32:
		return 4
	case DTypeF64:
		return 8
	default:
		return 0
	}
}
