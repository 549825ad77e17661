package tree

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/ml/features"
)

func vec(pairs ...float64) features.Vector {
	var v features.Vector
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Indices = append(v.Indices, int(pairs[i]))
		v.Values = append(v.Values, pairs[i+1])
	}
	return v
}

// twoGroups returns n samples using only feature 0 followed by n using only feature 1.
func twoGroups(n int) []features.Vector {
	X := make([]features.Vector, 0, 2*n)
	for i := 0; i < n; i++ {
		X = append(X, vec(0, 1))
	}
	for i := 0; i < n; i++ {
		X = append(X, vec(1, 1))
	}
	return X
}

func noisyData(n, numFeatures, numClasses int) ([]features.Vector, []int, []float64) {
	rng := rand.New(rand.NewPCG(1, 2))
	X := make([]features.Vector, n)
	classes := make([]int, n)
	targets := make([]float64, n)
	for i := range X {
		a := rng.IntN(numFeatures / 2)
		b := numFeatures/2 + rng.IntN(numFeatures/2)
		X[i] = vec(float64(a), rng.Float64()+0.01, float64(b), rng.Float64()+0.01)
		classes[i] = rng.IntN(numClasses)
		targets[i] = 1 + rng.Float64()*100
	}
	return X, classes, targets
}

func TestClassifier_SeparatesGroups(t *testing.T) {
	X := twoGroups(2)
	y := []int{0, 0, 1, 1}

	c := NewClassifier(DefaultMaxDepth, 42)
	require.NoError(t, c.Fit(X, y, 2, 2))

	class, conf, err := c.Predict(vec(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, class)
	assert.Equal(t, 1.0, conf)

	class, _, err = c.Predict(vec(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.Equal(t, 1, c.Tree.Depth())
}

func TestClassifier_PureDataIsSingleLeaf(t *testing.T) {
	c := NewClassifier(DefaultMaxDepth, 42)
	require.NoError(t, c.Fit(twoGroups(3), []int{2, 2, 2, 2, 2, 2}, 3, 2))

	require.Len(t, c.Tree.Nodes, 1)
	proba, err := c.PredictProba(features.Vector{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, proba)
}

func TestClassifier_RespectsMaxDepthAndProbabilities(t *testing.T) {
	X, y, _ := noisyData(300, 40, 4)
	for _, depth := range []int{3, DefaultMaxDepth} {
		c := NewClassifier(depth, 42)
		require.NoError(t, c.Fit(X, y, 4, 40))
		assert.LessOrEqual(t, c.Tree.Depth(), depth)

		for _, x := range X[:20] {
			proba, err := c.PredictProba(x)
			require.NoError(t, err)
			var sum float64
			for _, p := range proba {
				assert.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		}
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	X, y, _ := noisyData(200, 30, 3)
	a := NewClassifier(DefaultMaxDepth, 42)
	b := NewClassifier(DefaultMaxDepth, 42)
	require.NoError(t, a.Fit(X, y, 3, 30))
	require.NoError(t, b.Fit(X, y, 3, 30))
	assert.Equal(t, a.Tree, b.Tree)
}

func TestClassifier_FitErrors(t *testing.T) {
	c := NewClassifier(DefaultMaxDepth, 42)
	assert.ErrorIs(t, c.Fit(nil, nil, 2, 2), ErrNoSamples)
	assert.ErrorIs(t, c.Fit(twoGroups(1), []int{0}, 2, 2), ErrLengthMismatch)
	assert.ErrorIs(t, c.Fit([]features.Vector{vec(0, -1)}, []int{0}, 1, 1), ErrNegativeFeature)
	assert.Error(t, c.Fit(twoGroups(1), []int{0, 5}, 2, 2))
	assert.Error(t, c.Fit([]features.Vector{vec(7, 1)}, []int{0}, 1, 2))

	_, err := NewClassifier(3, 1).PredictProba(vec(0, 1))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestForest_LearnsGroupMeans(t *testing.T) {
	X := twoGroups(20)
	y := make([]float64, len(X))
	for i := range y {
		if i < 20 {
			y[i] = 2
		} else {
			y[i] = 10
		}
	}

	f := NewForest(25, 42)
	require.NoError(t, f.Fit(context.Background(), X, y, 2))
	require.Len(t, f.Trees, 25)

	got, err := f.Predict(vec(0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)

	got, err = f.Predict(vec(1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestForest_DeterministicAndSerializable(t *testing.T) {
	X, _, y := noisyData(150, 20, 2)
	a := NewForest(10, 42)
	b := NewForest(10, 42)
	require.NoError(t, a.Fit(context.Background(), X, y, 20))
	require.NoError(t, b.Fit(context.Background(), X, y, 20))
	assert.Equal(t, a.Trees, b.Trees)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	var restored Forest
	require.NoError(t, json.Unmarshal(raw, &restored))
	for _, x := range X[:10] {
		want, err := a.Predict(x)
		require.NoError(t, err)
		got, err := restored.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestForest_PredictionsStayWithinTargetRange(t *testing.T) {
	X, _, y := noisyData(120, 20, 2)
	f := NewForest(15, 7)
	require.NoError(t, f.Fit(context.Background(), X, y, 20))
	for _, x := range X {
		got, err := f.Predict(x)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 1.0)
		assert.LessOrEqual(t, got, 101.0)
	}
}

func TestForest_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewForest(10, 42)
	err := f.Fit(ctx, twoGroups(5), make([]float64, 10), 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.Trees)
}
