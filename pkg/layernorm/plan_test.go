package layernorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAxis(t *testing.T) {
	tests := []struct {
		name    string
		axis    int
		rank    int
		want    int
		wantErr bool
	}{
		{name: "positive in range", axis: 1, rank: 3, want: 1},
		{name: "zero", axis: 0, rank: 1, want: 0},
		{name: "last valid", axis: 2, rank: 3, want: 2},
		{name: "negative one", axis: -1, rank: 3, want: 2},
		{name: "negative rank", axis: -3, rank: 3, want: 0},
		{name: "too negative", axis: -4, rank: 3, wantErr: true},
		{name: "too large", axis: 3, rank: 3, wantErr: true},
		{name: "rank zero", axis: -1, rank: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveAxis(tc.axis, tc.rank)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPlanShapes(t *testing.T) {
	tests := []struct {
		name       string
		shape      []int
		axis       int
		normCount  int
		normSize   int
		statsShape []int
	}{
		{name: "matrix last axis", shape: []int{2, 3}, axis: 1, normCount: 2, normSize: 3, statsShape: []int{2, 1}},
		{name: "axis zero whole tensor", shape: []int{2, 3}, axis: 0, normCount: 1, normSize: 6, statsShape: []int{1, 1}},
		{name: "rank three middle", shape: []int{2, 3, 4}, axis: 1, normCount: 2, normSize: 12, statsShape: []int{2, 1, 1}},
		{name: "vector", shape: []int{5}, axis: 0, normCount: 1, normSize: 5, statsShape: []int{1}},
		{name: "zero rows", shape: []int{0, 3}, axis: 1, normCount: 0, normSize: 3, statsShape: []int{0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := planShapes(tc.shape, tc.axis)
			require.NoError(t, err)
			assert.Equal(t, tc.normCount, p.normCount, "norm_count")
			assert.Equal(t, tc.normSize, p.normSize, "norm_size")
			assert.Equal(t, tc.statsShape, p.statsShape, "stats shape")

			total := 1
			for _, d := range tc.shape {
				total *= d
			}
			assert.Equal(t, total, p.normCount*p.normSize, "row split must cover the tensor")
		})
	}
}

func TestPlanShapesZeroSizeRow(t *testing.T) {
	_, err := planShapes([]int{2, 0}, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = planShapes([]int{0}, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
