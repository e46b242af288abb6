package layernorm

import "errors"

// Sentinel errors returned by Compute. All of them are detected before any
// parallel work starts; a non-nil error means no output was produced.
var (
	// ErrInvalidArgument covers out-of-range axes, zero-size normalization
	// rows, and scale/bias tensors that do not match the data.
	ErrInvalidArgument = errors.New("layernorm: invalid argument")

	// ErrUnsupportedType is returned for element types outside the supported
	// set (float32 always; float64 unless built with the nofloat64 tag).
	ErrUnsupportedType = errors.New("layernorm: unsupported element type")

	// ErrAllocationFailure is returned when an output or scratch buffer
	// request cannot be satisfied.
	ErrAllocationFailure = errors.New("layernorm: allocation failure")
)
