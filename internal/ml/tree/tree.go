// Package tree implements CART decision trees over sparse feature vectors:
// a Gini classification tree and a bootstrap forest of regression trees.
package tree

import (
	"errors"
	"math/rand/v2"
	"sort"

	"helpdesk/internal/ml/features"
)

const (
	leafFeature = -1
	minGain     = 1e-12
)

var (
	ErrNoSamples      = errors.New("tree: no training samples")
	ErrLengthMismatch = errors.New("tree: features and targets differ in length")
	ErrNotFitted      = errors.New("tree: model is not fitted")
)

// Node is one entry of a flattened tree. Leaves have Feature == -1.
// Samples with x[Feature] <= Threshold go Left.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

// Tree is a fitted decision tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leaf(x features.Vector) *Node {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return n
		}
		if x.Value(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the longest root-to-leaf path length.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

// --- Split search ---

type entry struct {
	value  float64
	sample int
}

// objective scores candidate splits for one node. begin must be called with
// the node's samples before pure, leaf or scan.
type objective interface {
	begin(samples []int)
	pure() bool
	leaf() []float64
	// scan finds the best threshold on one feature column. col holds the
	// node's non-zero entries sorted by value; every other sample is zero.
	scan(col []entry, nodeSize int) (threshold, gain float64, ok bool)
}

type builder struct {
	X        []features.Vector
	obj      objective
	maxDepth int // 0 means unlimited
	rng      *rand.Rand
	nodes    []Node
}

func (b *builder) build(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature})

	b.obj.begin(samples)
	if len(samples) < 2 || b.obj.pure() || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[idx].Value = b.obj.leaf()
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[idx].Value = b.obj.leaf()
		return idx
	}

	left, right := b.partition(samples, feature, threshold)
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit visits the features present in the node in a seeded random order
// and keeps the first split with the highest gain.
func (b *builder) bestSplit(samples []int) (int, float64, bool) {
	cols := make(map[int][]entry)
	for _, s := range samples {
		x := b.X[s]
		for k, f := range x.Indices {
			if x.Values[k] != 0 {
				cols[f] = append(cols[f], entry{value: x.Values[k], sample: s})
			}
		}
	}
	order := make([]int, 0, len(cols))
	for f := range cols {
		order = append(order, f)
	}
	sort.Ints(order)
	b.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	bestFeature, bestThreshold, bestGain := 0, 0.0, minGain
	found := false
	for _, f := range order {
		col := cols[f]
		sort.Slice(col, func(i, j int) bool { return col[i].value < col[j].value })
		threshold, gain, ok := b.obj.scan(col, len(samples))
		if ok && gain > bestGain {
			bestFeature, bestThreshold, bestGain = f, threshold, gain
			found = true
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *builder) partition(samples []int, feature int, threshold float64) (left, right []int) {
	for _, s := range samples {
		if b.X[s].Value(feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return left, right
}

// midpoint returns a threshold strictly below hi.
func midpoint(lo, hi float64) float64 {
	t := lo/2 + hi/2
	if t >= hi {
		return lo
	}
	return t
}

// scanColumn walks the split positions of a sorted column. The zero group is
// on the left first; add moves one entry from right to left and eval scores
// the current partition given the left size.
func scanColumn(col []entry, nodeSize int, add func(entry), eval func(nLeft int) (float64, bool)) (float64, float64, bool) {
	nLeft := nodeSize - len(col)
	bestThreshold, bestGain := 0.0, 0.0
	found := false

	consider := func(lo, hi float64) {
		if gain, ok := eval(nLeft); ok && (!found || gain > bestGain) {
			bestThreshold, bestGain, found = midpoint(lo, hi), gain, true
		}
	}

	if nLeft > 0 && len(col) > 0 && col[0].value > 0 {
		consider(0, col[0].value)
	}
	for i := 0; i < len(col)-1; i++ {
		add(col[i])
		nLeft++
		if col[i].value < col[i+1].value {
			consider(col[i].value, col[i+1].value)
		}
	}
	return bestThreshold, bestGain, found
}
