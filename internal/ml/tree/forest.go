package tree

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"helpdesk/internal/ml/features"
)

const DefaultEstimators = 100

// Forest is a random forest of fully grown regression trees, each fit on a
// bootstrap sample. Predictions are the mean of the tree outputs.
type Forest struct {
	Estimators  int     `json:"estimators"`
	Seed        uint64  `json:"seed"`
	NumFeatures int     `json:"num_features"`
	Trees       []*Tree `json:"trees"`
}

func NewForest(estimators int, seed uint64) *Forest {
	if estimators <= 0 {
		estimators = DefaultEstimators
	}
	return &Forest{Estimators: estimators, Seed: seed}
}

// Fit trains Estimators trees concurrently. ctx cancellation stops scheduling
// new trees and fails the fit.
func (f *Forest) Fit(ctx context.Context, X []features.Vector, y []float64, numFeatures int) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(X), len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("tree: target %d is not finite", i)
		}
	}
	if err := checkFeatures(X, numFeatures); err != nil {
		return err
	}

	// per-tree seeds are drawn up front so results do not depend on scheduling
	master := rand.New(rand.NewPCG(f.Seed, f.Seed^0xda942042e4dd58b5))
	seeds := make([]uint64, f.Estimators)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*Tree, f.Estimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			samples := make([]int, len(X))
			for j := range samples {
				samples[j] = rng.IntN(len(X))
			}
			b := &builder{X: X, obj: &mseObjective{y: y}, rng: rng}
			b.build(samples, 0)
			trees[i] = &Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}

	f.NumFeatures = numFeatures
	f.Trees = trees
	return nil
}

// Predict averages the leaf means of all trees.
func (f *Forest) Predict(x features.Vector) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}
	preds := make([]float64, len(f.Trees))
	for i, t := range f.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return 0, ErrNotFitted
		}
		v := t.leaf(x).Value
		if len(v) != 1 {
			return 0, fmt.Errorf("tree: regression leaf holds %d values", len(v))
		}
		preds[i] = v[0]
	}
	return stat.Mean(preds, nil), nil
}

// --- Squared error criterion ---

type mseObjective struct {
	y       []float64
	values  []float64
	sum     float64
	leftSum float64
	min     float64
	max     float64
}

func (m *mseObjective) begin(samples []int) {
	m.values = m.values[:0]
	m.sum = 0
	m.min, m.max = math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		v := m.y[s]
		m.values = append(m.values, v)
		m.sum += v
		m.min = math.Min(m.min, v)
		m.max = math.Max(m.max, v)
	}
}

func (m *mseObjective) pure() bool {
	return m.max-m.min <= 1e-9
}

func (m *mseObjective) leaf() []float64 {
	return []float64{stat.Mean(m.values, nil)}
}

func (m *mseObjective) scan(col []entry, nodeSize int) (float64, float64, bool) {
	m.leftSum = m.sum
	for _, e := range col {
		m.leftSum -= m.y[e.sample]
	}
	n := float64(nodeSize)
	parent := m.sum * m.sum / n

	add := func(e entry) { m.leftSum += m.y[e.sample] }
	eval := func(nLeft int) (float64, bool) {
		nRight := nodeSize - nLeft
		if nLeft == 0 || nRight == 0 {
			return 0, false
		}
		rightSum := m.sum - m.leftSum
		// reduction of the mean squared error
		return (m.leftSum*m.leftSum/float64(nLeft) + rightSum*rightSum/float64(nRight) - parent) / n, true
	}
	return scanColumn(col, nodeSize, add, eval)
}
