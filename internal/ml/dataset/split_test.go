package dataset

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTestSplit(t *testing.T) {
	split, err := TrainTestSplit(36, DefaultTestFraction, 42)
	require.NoError(t, err)
	assert.Len(t, split.Test, 8)
	assert.Len(t, split.Train, 28)

	all := append(append([]int{}, split.Train...), split.Test...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v, "every row appears exactly once")
	}

	again, err := TrainTestSplit(36, DefaultTestFraction, 42)
	require.NoError(t, err)
	assert.Equal(t, split, again)
}

func TestTrainTestSplit_Small(t *testing.T) {
	_, err := TrainTestSplit(1, 0.2, 42)
	assert.ErrorIs(t, err, ErrTooFewSamples)

	split, err := TrainTestSplit(2, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, split.Test, 1)
	assert.Len(t, split.Train, 1)
}

func TestMetrics(t *testing.T) {
	assert.InDelta(t, 0.75, Accuracy([]int{1, 2, 3, 4}, []int{1, 2, 3, 0}), 1e-12)
	assert.Zero(t, Accuracy(nil, nil))
	assert.InDelta(t, 2.0, MeanAbsoluteError([]float64{1, 5, 3}, []float64{2, 2, 5}), 1e-12)
	assert.Zero(t, MeanAbsoluteError([]float64{1}, []float64{1, 2}))
}
