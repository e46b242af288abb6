// Package layernorm implements the forward LayerNormalization operator over
// dense tensors, including the simplified (RMS) variant.
//
// The input splits at a configurable axis into norm_count independent rows of
// norm_size contiguous elements. Each row is normalized in two passes: one
// accumulation pass for the first and second moments, one writeback pass that
// scales (and optionally biases) the centered values. Rows are fanned out
// across a bounded worker pool and the call joins before returning. Besides
// the normalized tensor the operator can materialize the per-row mean and
// inverse standard deviation for downstream consumers.
package layernorm

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/lth/pure-go-layernorm/internal/kernels"
	"github.com/lth/pure-go-layernorm/internal/parallel"
	"github.com/lth/pure-go-layernorm/pkg/tensor"
)

// Outputs is a bitmask of the optional statistics outputs a caller wants
// materialized alongside the normalized tensor.
type Outputs uint8

const (
	// WantMean requests the per-row mean. Ignored in simplified mode, which
	// never produces a mean output.
	WantMean Outputs = 1 << iota

	// WantInvStdDev requests the per-row inverse standard deviation. The
	// kernel computes it either way; the flag only controls whether it is
	// returned instead of landing in scratch.
	WantInvStdDev
)

// minRowsPerTask is the smallest row chunk worth dispatching to the pool;
// below it the join overhead exceeds the row work.
const minRowsPerTask = 8

// Result holds the outputs of one Compute call. Output is always set; Mean
// and InvStdDev are nil unless requested (and, for Mean, not simplified).
type Result struct {
	Output    *tensor.Tensor
	Mean      *tensor.Tensor // reduced shape: input dims at/after axis set to 1
	InvStdDev *tensor.Tensor // reduced shape, 1/sqrt(var+eps) per row
}

// Op is a configured layer-normalization operator. Configuration is fixed at
// construction; one Op may serve concurrent Compute calls.
type Op struct {
	axis       int
	epsilon    float32
	simplified bool

	pool       *parallel.Pool
	workspaces sync.Pool
}

// New builds an operator. Defaults follow the ONNX attribute defaults:
// axis -1, epsilon 1e-5, full (non-simplified) normalization.
func New(opts ...Option) *Op {
	options := Options{
		Axis:    -1,
		Epsilon: 1e-5,
	}
	for _, opt := range opts {
		opt(&options)
	}

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	op := &Op{
		axis:       options.Axis,
		epsilon:    options.Epsilon,
		simplified: options.Simplified,
		pool:       parallel.New(workers),
	}
	op.workspaces.New = func() any { return new(workspace) }
	return op
}

// Close releases the worker pool. The Op must not be used afterwards.
func (op *Op) Close() {
	op.pool.Close()
}

// Simplified reports whether the Op runs RMS normalization.
func (op *Op) Simplified() bool { return op.simplified }

// Compute normalizes x row-wise and returns the outputs named in want.
//
// x must have rank >= 1 and element type float32 or float64; scale (required)
// and bias (optional, ignored when simplified) must have the same element
// type as x and exactly norm_size elements. Every failure is detected before
// any row work starts and no partial output is ever returned.
func (op *Op) Compute(x, scale, bias *tensor.Tensor, want Outputs) (*Result, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: data tensor is required", ErrInvalidArgument)
	}
	if scale == nil {
		return nil, fmt.Errorf("%w: scale tensor is required", ErrInvalidArgument)
	}

	switch x.DType() {
	case tensor.DTypeF32:
	case tensor.DTypeF64:
		if !float64Supported {
			return nil, fmt.Errorf("%w: F64 excluded from this build", ErrUnsupportedType)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, x.DType())
	}

	axis, err := resolveAxis(op.axis, x.Rank())
	if err != nil {
		return nil, err
	}
	p, err := planShapes(x.Shape(), axis)
	if err != nil {
		return nil, err
	}

	if op.simplified {
		// The reference drops bias entirely in simplified mode, even if the
		// caller supplied one.
		bias = nil
	}
	if scale.DType() != x.DType() {
		return nil, fmt.Errorf("%w: scale is %s, data is %s", ErrInvalidArgument, scale.DType(), x.DType())
	}
	if scale.NumElements() != p.normSize {
		return nil, fmt.Errorf("%w: scale has %d elements, normalization row has %d", ErrInvalidArgument, scale.NumElements(), p.normSize)
	}
	if bias != nil {
		if bias.DType() != x.DType() {
			return nil, fmt.Errorf("%w: bias is %s, data is %s", ErrInvalidArgument, bias.DType(), x.DType())
		}
		if bias.NumElements() != p.normSize {
			return nil, fmt.Errorf("%w: bias has %d elements, normalization row has %d", ErrInvalidArgument, bias.NumElements(), p.normSize)
		}
	}

	ws := op.workspaces.Get().(*workspace)
	defer op.workspaces.Put(ws)

	if x.DType() == tensor.DTypeF64 {
		return op.computeF64(x, scale, bias, p, want, ws)
	}
	return op.computeF32(x, scale, bias, p, want, ws)
}

func (op *Op) computeF32(x, scale, bias *tensor.Tensor, p plan, want Outputs, ws *workspace) (*Result, error) {
	xs, _ := x.Float32s()
	ss, _ := scale.Float32s()
	var bs []float32
	if bias != nil {
		bs, _ = bias.Float32s()
	}

	res := &Result{}
	out, err := tensor.New(tensor.DTypeF32, x.Shape())
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrAllocationFailure, err)
	}
	res.Output = out
	ys, _ := out.Float32s()

	var meanDst []float32
	if !op.simplified {
		if want&WantMean != 0 {
			mt, err := tensor.New(tensor.DTypeF32, p.statsShape)
			if err != nil {
				return nil, fmt.Errorf("%w: mean output: %v", ErrAllocationFailure, err)
			}
			res.Mean = mt
			meanDst, _ = mt.Float32s()
		} else {
			ws.mean32 = growF32(ws.mean32, p.normCount)
			meanDst = ws.mean32
		}
	}

	var invDst []float32
	if want&WantInvStdDev != 0 {
		it, err := tensor.New(tensor.DTypeF32, p.statsShape)
		if err != nil {
			return nil, fmt.Errorf("%w: inv_std_dev output: %v", ErrAllocationFailure, err)
		}
		res.InvStdDev = it
		invDst, _ = it.Float32s()
	} else {
		ws.inv32 = growF32(ws.inv32, p.normCount)
		invDst = ws.inv32
	}

	runRows(op.pool, p, xs, ss, bs, ys, meanDst, invDst, op.epsilon, op.simplified)
	return res, nil
}

func (op *Op) computeF64(x, scale, bias *tensor.Tensor, p plan, want Outputs, ws *workspace) (*Result, error) {
	xs, _ := x.Float64s()
	ss, _ := scale.Float64s()
	var bs []float64
	if bias != nil {
		bs, _ = bias.Float64s()
	}

	res := &Result{}
	out, err := tensor.New(tensor.DTypeF64, x.Shape())
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrAllocationFailure, err)
	}
	res.Output = out
	ys, _ := out.Float64s()

	var meanDst []float64
	if !op.simplified {
		if want&WantMean != 0 {
			mt, err := tensor.New(tensor.DTypeF64, p.statsShape)
			if err != nil {
				return nil, fmt.Errorf("%w: mean output: %v", ErrAllocationFailure, err)
			}
			res.Mean = mt
			meanDst, _ = mt.Float64s()
		} else {
			ws.mean64 = growF64(ws.mean64, p.normCount)
			meanDst = ws.mean64
		}
	}

	var invDst []float64
	if want&WantInvStdDev != 0 {
		it, err := tensor.New(tensor.DTypeF64, p.statsShape)
		if err != nil {
			return nil, fmt.Errorf("%w: inv_std_dev output: %v", ErrAllocationFailure, err)
		}
		res.InvStdDev = it
		invDst, _ = it.Float64s()
	} else {
		ws.inv64 = growF64(ws.inv64, p.normCount)
		invDst = ws.inv64
	}

	runRows(op.pool, p, xs, ss, bs, ys, meanDst, invDst, float64(op.epsilon), op.simplified)
	return res, nil
}

// runRows fans the per-row kernel across the pool. Each chunk owns a disjoint
// slice of the output and statistics buffers, so the join is the only
// synchronization needed.
func runRows[T kernels.Float](pool *parallel.Pool, p plan, x, scale, bias, out, meanDst, invDst []T, eps T, simplified bool) {
	parallel.For(pool, p.normCount, minRowsPerTask, func(start, end int) {
		var meanChunk []T
		if meanDst != nil {
			meanChunk = meanDst[start:end]
		}
		kernels.NormalizeRows(
			out[start*p.normSize:end*p.normSize],
			x[start*p.normSize:end*p.normSize],
			scale, bias, p.normSize, eps, simplified,
			meanChunk, invDst[start:end],
		)
	})
}

// workspace holds pooled scratch for statistics the caller did not claim.
// Buffers only grow; a workspace is reused across calls via sync.Pool.
type workspace struct {
	mean32, inv32 []float32
	mean64, inv64 []float64
}

func growF32(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

func growF64(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
