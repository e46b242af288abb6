package layernorm

import "fmt"

// resolveAxis normalizes a possibly negative axis index against rank.
func resolveAxis(axis, rank int) (int, error) {
	resolved := axis
	if resolved < 0 {
		resolved += rank
	}
	if resolved < 0 || resolved >= rank {
		return 0, fmt.Errorf("%w: axis %d out of range for rank %d", ErrInvalidArgument, axis, rank)
	}
	return resolved, nil
}

// plan describes how a shape splits at the resolved axis.
type plan struct {
	normCount  int   // independent rows: product of dims before axis
	normSize   int   // elements per row: product of dims from axis onward
	statsShape []int // input shape with every dim at or after axis set to 1
}

// planShapes computes the row split for the given input shape. normCount *
// normSize always equals the total element count. A zero-size row cannot be
// normalized (the mean divides by normSize) and is rejected up front.
func planShapes(shape []int, axis int) (plan, error) {
	p := plan{normCount: 1, normSize: 1, statsShape: make([]int, len(shape))}
	for i, d := range shape {
		if i < axis {
			p.normCount *= d
			p.statsShape[i] = d
		} else {
			p.normSize *= d
			p.statsShape[i] = 1
		}
	}
	if p.normSize == 0 {
		return plan{}, fmt.Errorf("%w: shape %v has a zero-size normalization row at axis %d", ErrInvalidArgument, shape, axis)
	}
	return p, nil
}
