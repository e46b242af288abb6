// Package kernels implements the scalar numeric cores shared by the public
// operators. Kernels are generic over the element type and operate on flat
// slices; shape handling and parallel dispatch live in the callers.
package kernels

import "math"

// Float is the set of element types the kernels are instantiated for.
type Float interface {
	~float32 | ~float64
}

// NormalizeRow layer-normalizes a single row of n = len(src) elements into dst.
//
//	mean   = sum(x) / n
//	denom  = sqrt(sum(x²)/n - mean² + eps)   (full)
//	denom  = sqrt(sum(x²)/n + eps)           (simplified / RMS)
//	dst[i] = (x[i] - mean) / denom * scale[i] [+ bias[i]]
//	dst[i] = x[i] / denom * scale[i]          (simplified)
//
// Accumulation runs in T at ascending index, with no wider accumulator, so
// repeated calls on identical input are bit-identical. The radicand
// sum(x²)/n - mean² is the biased variance and is deliberately not clamped at
// zero; eps is the only guard, and eps == 0 on a constant row yields ±Inf/NaN.
//
// bias is ignored when simplified is true and may be nil otherwise. Returns
// the row mean (not meaningful to callers in simplified mode) and 1/denom.
func NormalizeRow[T Float](dst, src, scale, bias []T, eps T, simplified bool) (mean, invStdDev T) {
	n := len(src)

	var sum, sumSq T
	for i := 0; i < n; i++ {
		sum += src[i]
		sumSq += src[i] * src[i]
	}

	mean = sum / T(n)
	var denom T
	if simplified {
		denom = T(math.Sqrt(float64(sumSq/T(n) + eps)))
	} else {
		denom = T(math.Sqrt(float64(sumSq/T(n) - mean*mean + eps)))
	}

	for i := 0; i < n; i++ {
		if simplified {
			dst[i] = src[i] / denom * scale[i]
		} else if bias == nil {
			dst[i] = (src[i] - mean) / denom * scale[i]
		} else {
			dst[i] = (src[i]-mean)/denom*scale[i] + bias[i]
		}
	}

	return mean, 1 / denom
}

// NormalizeRows applies NormalizeRow to every row of a [rows × rowSize] slab
// serially. meanOut and invStdDevOut receive one statistic per row; meanOut
// may be nil in simplified mode.
func NormalizeRows[T Float](dst, src, scale, bias []T, rowSize int, eps T, simplified bool, meanOut, invStdDevOut []T) {
	rows := len(src) / rowSize
	for r := 0; r < rows; r++ {
		lo, hi := r*rowSize, (r+1)*rowSize
		mean, invStd := NormalizeRow(dst[lo:hi], src[lo:hi], scale, bias, eps, simplified)
		if meanOut != nil {
			meanOut[r] = mean
		}
		invStdDevOut[r] = invStd
	}
}
