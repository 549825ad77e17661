// Package dataset holds train/test splitting and evaluation metrics.
package dataset

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultTestFraction = 0.2

var ErrTooFewSamples = errors.New("dataset: need at least two samples to split")

// Split holds row indices into the original dataset.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles n row indices with seed and reserves
// ceil(testFraction*n) of them for evaluation.
func TrainTestSplit(n int, testFraction float64, seed uint64) (Split, error) {
	if n < 2 {
		return Split{}, ErrTooFewSamples
	}
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return Split{Test: perm[:nTest], Train: perm[nTest:]}, nil
}

// Accuracy is the fraction of positions where predicted equals actual.
func Accuracy(predicted, actual []int) float64 {
	if len(actual) == 0 || len(predicted) != len(actual) {
		return 0
	}
	hits := make([]float64, len(actual))
	for i := range actual {
		if predicted[i] == actual[i] {
			hits[i] = 1
		}
	}
	return stat.Mean(hits, nil)
}

// MeanAbsoluteError of predicted against actual.
func MeanAbsoluteError(predicted, actual []float64) float64 {
	if len(actual) == 0 || len(predicted) != len(actual) {
		return 0
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, predicted, actual)
	for i, d := range diff {
		diff[i] = math.Abs(d)
	}
	return stat.Mean(diff, nil)
}
