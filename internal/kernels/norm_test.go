package kernels

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeRowFull checks the reference scenario: row [1,2,3] has mean 2,
// biased variance 2/3, inv_std_dev ≈ 1.2247.
func TestNormalizeRowFull(t *testing.T) {
	src := []float32{1, 2, 3}
	scale := []float32{1, 1, 1}
	dst := make([]float32, 3)

	mean, invStd := NormalizeRow(dst, src, scale, nil, 1e-5, false)

	assert.InDelta(t, 2.0, mean, 1e-6, "row mean")
	assert.InDelta(t, 1.2247, invStd, 1e-3, "inverse standard deviation")
	assert.InDelta(t, -1.2247, dst[0], 1e-3)
	assert.InDelta(t, 0.0, dst[1], 1e-3)
	assert.InDelta(t, 1.2247, dst[2], 1e-3)
}

// TestNormalizeRowBias verifies the additive bias branch shifts the no-bias
// output exactly.
func TestNormalizeRowBias(t *testing.T) {
	src := []float32{1, 2, 3}
	scale := []float32{2, 2, 2}
	bias := []float32{10, 20, 30}

	plain := make([]float32, 3)
	shifted := make([]float32, 3)
	NormalizeRow(plain, src, scale, nil, 1e-5, false)
	NormalizeRow(shifted, src, scale, bias, 1e-5, false)

	for i := range plain {
		// Loose compare: the writeback may compile to a fused multiply-add,
		// which perturbs the last bit relative to plain[i]+bias[i].
		assert.InDelta(t, plain[i]+bias[i], shifted[i], 1e-6, "bias must be purely additive (i=%d)", i)
	}
}

// TestNormalizeRowSimplified checks RMS normalization: mean of squares for
// [1,2,3] is 14/3, inv_std_dev ≈ 0.4629, and no mean subtraction happens.
func TestNormalizeRowSimplified(t *testing.T) {
	src := []float32{1, 2, 3}
	scale := []float32{1, 1, 1}
	dst := make([]float32, 3)

	_, invStd := NormalizeRow(dst, src, scale, nil, 1e-5, true)

	assert.InDelta(t, 0.4629, invStd, 1e-3)
	assert.InDelta(t, 0.4629, dst[0], 1e-3)
	assert.InDelta(t, 0.9258, dst[1], 1e-3)
	assert.InDelta(t, 1.3887, dst[2], 1e-3)

	// A supplied bias must be ignored in simplified mode.
	withBias := make([]float32, 3)
	NormalizeRow(withBias, src, scale, []float32{5, 5, 5}, 1e-5, true)
	assert.Equal(t, dst, withBias)
}

// TestNormalizeRowFloat64 runs the float64 instantiation at tight tolerance.
func TestNormalizeRowFloat64(t *testing.T) {
	src := []float64{1, 2, 3}
	scale := []float64{1, 1, 1}
	dst := make([]float64, 3)

	mean, invStd := NormalizeRow(dst, src, scale, nil, 0, false)

	assert.InDelta(t, 2.0, mean, 1e-12)
	assert.InDelta(t, 1.0/math.Sqrt(2.0/3.0), invStd, 1e-12)
	assert.InDelta(t, -math.Sqrt(1.5), dst[0], 1e-12)
}

// TestNormalizeRowZeroEpsilonConstantRow documents that a constant row with
// epsilon 0 divides by zero: no clamping, NaN/Inf flow through.
func TestNormalizeRowZeroEpsilonConstantRow(t *testing.T) {
	src := []float32{5, 5, 5, 5}
	scale := []float32{1, 1, 1, 1}
	dst := make([]float32, 4)

	_, invStd := NormalizeRow(dst, src, scale, nil, 0, false)

	assert.True(t, math.IsInf(float64(invStd), 1), "1/0 must be +Inf, got %v", invStd)
	for i, v := range dst {
		assert.True(t, math.IsNaN(float64(v)), "dst[%d] = %v, want NaN (0/0)", i, v)
	}
}

// TestNormalizeRowsMatchesRowCalls checks the slab helper against individual
// row calls bit for bit.
func TestNormalizeRowsMatchesRowCalls(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const rows, rowSize = 5, 16

	src := make([]float32, rows*rowSize)
	for i := range src {
		src[i] = rng.Float32()*4 - 2
	}
	scale := make([]float32, rowSize)
	bias := make([]float32, rowSize)
	for i := range scale {
		scale[i] = rng.Float32() + 0.5
		bias[i] = rng.Float32() - 0.5
	}

	slab := make([]float32, rows*rowSize)
	slabMean := make([]float32, rows)
	slabInv := make([]float32, rows)
	NormalizeRows(slab, src, scale, bias, rowSize, 1e-5, false, slabMean, slabInv)

	for r := 0; r < rows; r++ {
		lo, hi := r*rowSize, (r+1)*rowSize
		rowDst := make([]float32, rowSize)
		mean, invStd := NormalizeRow(rowDst, src[lo:hi], scale, bias, 1e-5, false)

		require.Equal(t, rowDst, slab[lo:hi], "row %d output", r)
		require.Equal(t, mean, slabMean[r], "row %d mean", r)
		require.Equal(t, invStd, slabInv[r], "row %d inv_std_dev", r)
	}
}

// TestNormalizeRowsNilMeanOut covers the simplified path where no mean buffer
// is supplied.
func TestNormalizeRowsNilMeanOut(t *testing.T) {
	src := []float32{1, 2, 3, 4}
	scale := []float32{1, 1}
	dst := make([]float32, 4)
	inv := make([]float32, 2)

	NormalizeRows(dst, src, scale, nil, 2, 1e-5, true, nil, inv)

	assert.NotZero(t, inv[0])
	assert.NotZero(t, inv[1])
}

// TestNormalizeRowMoments verifies normalization removes the first two
// moments: with unit scale and no bias the output row has mean ~0 and biased
// variance ~1.
func TestNormalizeRowMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	const n = 256

	src := make([]float64, n)
	scale := make([]float64, n)
	for i := range src {
		src[i] = rng.NormFloat64()*3 + 7
		scale[i] = 1
	}
	dst := make([]float64, n)

	NormalizeRow(dst, src, scale, nil, 1e-9, false)

	var sum, sumSq float64
	for _, v := range dst {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	assert.InDelta(t, 0.0, mean, 1e-9)
	assert.InDelta(t, 1.0, variance, 1e-6)
}

func BenchmarkNormalizeRow(b *testing.B) {
	for _, size := range []int{64, 768, 4096} {
		src := make([]float32, size)
		scale := make([]float32, size)
		for i := range src {
			src[i] = float32(i%17) - 8
			scale[i] = 1
		}
		dst := make([]float32, size)

		b.Run(fmt.Sprintf("Size%d", size), func(b *testing.B) {
			b.SetBytes(int64(size * 4))
			for i := 0; i < b.N; i++ {
				NormalizeRow(dst, src, scale, nil, 1e-5, false)
			}
		})
	}
}
