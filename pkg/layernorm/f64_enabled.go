//go:build !nofloat64

package layernorm

// float64Supported reports whether F64 inputs are accepted. Builds tagged
// nofloat64 restrict the operator to float32.
const float64Supported = true
