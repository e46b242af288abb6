package layernorm

// Options configures an Op. All fields are fixed at construction; an Op is
// immutable and safe for concurrent Compute calls once built.
type Options struct {
	// Axis is the dimension at which the input splits into independent
	// normalization rows: dimensions before Axis index the rows, dimensions
	// from Axis onward are normalized together. Negative values count from
	// the back, so the default -1 normalizes over the last dimension only.
	Axis int

	// Epsilon is added under the square root in the normalization
	// denominator to guard against division by zero on constant rows.
	// Stored as float32 regardless of the data type, matching the ONNX
	// attribute. Epsilon == 0 on a constant row produces ±Inf/NaN; choosing
	// a value large enough for the data's precision is the caller's job.
	Epsilon float32

	// Simplified selects RMS normalization: no mean subtraction, no bias,
	// and no Mean output (SimplifiedLayerNormalization semantics).
	Simplified bool

	// Workers is the worker pool size for the per-row parallel loop.
	// 0 (default) uses GOMAXPROCS; 1 disables the pool and runs serially.
	Workers int
}

// Option is a functional option for configuring an Op
type Option func(*Options)

// WithAxis sets the split axis
func WithAxis(axis int) Option {
	return func(o *Options) {
		o.Axis = axis
	}
}

// WithEpsilon sets the numerical stability constant
func WithEpsilon(eps float32) Option {
	return func(o *Options) {
		o.Epsilon = eps
	}
}

// WithSimplified selects RMS (simplified) normalization
func WithSimplified(simplified bool) Option {
	return func(o *Options) {
		o.Simplified = simplified
	}
}

// WithWorkers sets the worker pool size
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}
