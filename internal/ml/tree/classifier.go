package tree

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"helpdesk/internal/ml/features"
)

const DefaultMaxDepth = 10

var ErrNegativeFeature = errors.New("tree: feature values must be non-negative")

// Classifier is a Gini decision tree whose leaves store class frequencies.
type Classifier struct {
	MaxDepth    int    `json:"max_depth"`
	Seed        uint64 `json:"seed"`
	NumClasses  int    `json:"num_classes"`
	NumFeatures int    `json:"num_features"`
	Tree        *Tree  `json:"tree"`
}

func NewClassifier(maxDepth int, seed uint64) *Classifier {
	return &Classifier{MaxDepth: maxDepth, Seed: seed}
}

// Fit grows the tree on X with class ids y in [0, numClasses).
func (c *Classifier) Fit(X []features.Vector, y []int, numClasses, numFeatures int) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(X), len(y))
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return fmt.Errorf("tree: sample %d has class %d outside [0,%d)", i, label, numClasses)
		}
	}
	if err := checkFeatures(X, numFeatures); err != nil {
		return err
	}

	samples := make([]int, len(X))
	for i := range samples {
		samples[i] = i
	}
	b := &builder{
		X:        X,
		obj:      &giniObjective{y: y, k: numClasses},
		maxDepth: c.MaxDepth,
		rng:      rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15)),
	}
	b.build(samples, 0)

	c.NumClasses = numClasses
	c.NumFeatures = numFeatures
	c.Tree = &Tree{Nodes: b.nodes}
	return nil
}

// PredictProba returns the class distribution of the leaf x falls into.
func (c *Classifier) PredictProba(x features.Vector) ([]float64, error) {
	if c.Tree == nil || len(c.Tree.Nodes) == 0 {
		return nil, ErrNotFitted
	}
	dist := c.Tree.leaf(x).Value
	if len(dist) != c.NumClasses {
		return nil, fmt.Errorf("tree: leaf has %d classes, want %d", len(dist), c.NumClasses)
	}
	out := make([]float64, len(dist))
	copy(out, dist)
	return out, nil
}

// Predict returns the most probable class and its probability.
// Ties go to the lowest class id.
func (c *Classifier) Predict(x features.Vector) (int, float64, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for k, p := range proba {
		if p > proba[best] {
			best = k
		}
	}
	return best, proba[best], nil
}

func checkFeatures(X []features.Vector, numFeatures int) error {
	for i, x := range X {
		if len(x.Indices) != len(x.Values) {
			return fmt.Errorf("tree: sample %d has %d indices and %d values", i, len(x.Indices), len(x.Values))
		}
		for k, f := range x.Indices {
			if f < 0 || f >= numFeatures {
				return fmt.Errorf("tree: sample %d has feature %d outside [0,%d)", i, f, numFeatures)
			}
			if x.Values[k] < 0 {
				return fmt.Errorf("%w: sample %d feature %d", ErrNegativeFeature, i, f)
			}
		}
	}
	return nil
}

// --- Gini criterion ---

type giniObjective struct {
	y     []int
	k     int
	total []float64
	left  []float64
	n     int
}

func (g *giniObjective) begin(samples []int) {
	if g.total == nil {
		g.total = make([]float64, g.k)
		g.left = make([]float64, g.k)
	}
	clear(g.total)
	for _, s := range samples {
		g.total[g.y[s]]++
	}
	g.n = len(samples)
}

func (g *giniObjective) pure() bool {
	present := 0
	for _, c := range g.total {
		if c > 0 {
			present++
		}
	}
	return present <= 1
}

func (g *giniObjective) leaf() []float64 {
	dist := make([]float64, g.k)
	for i, c := range g.total {
		dist[i] = c / float64(g.n)
	}
	return dist
}

func (g *giniObjective) scan(col []entry, nodeSize int) (float64, float64, bool) {
	copy(g.left, g.total)
	for _, e := range col {
		g.left[g.y[e.sample]]--
	}
	n := float64(nodeSize)
	var parent float64
	for _, c := range g.total {
		parent += c * c
	}
	parent /= n

	add := func(e entry) { g.left[g.y[e.sample]]++ }
	eval := func(nLeft int) (float64, bool) {
		nRight := nodeSize - nLeft
		if nLeft == 0 || nRight == 0 {
			return 0, false
		}
		var sl, sr float64
		for c, l := range g.left {
			r := g.total[c] - l
			sl += l * l
			sr += r * r
		}
		// reduction of the size-weighted Gini impurity
		return (sl/float64(nLeft) + sr/float64(nRight) - parent) / n, true
	}
	return scanColumn(col, nodeSize, add, eval)
}
