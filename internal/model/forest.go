package model

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// ForestConfig controls the random forest regressor.
type ForestConfig struct {
	Trees          int
	MaxDepth       int // 0 grows until leaves are pure or too small
	MinSamplesLeaf int
	Seed           int64
}

// DefaultForestConfig mirrors the forest the production model was tuned with.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 200, MaxDepth: 0, MinSamplesLeaf: 1, Seed: 42}
}

// leaf marks a node without a split.
const leaf = -1

type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Feature != leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// RandomForest is a bagged ensemble of CART regression trees. Every split
// considers all features; randomness comes from the bootstrap samples.
type RandomForest struct {
	NumFeatures int    `json:"num_features"`
	Trees       []tree `json:"trees"`
}

// FitForest trains a forest on X (rows of equal width) against y. Training
// is deterministic for a given config and input order.
func FitForest(x [][]float64, y []float64, cfg ForestConfig) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, errors.New("fit forest: no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d targets", len(x), len(y))
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("fit forest: tree count must be positive, got %d", cfg.Trees)
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}

	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("fit forest: row %d has %d features, want %d", i, len(row), width)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	f := &RandomForest{NumFeatures: width, Trees: make([]tree, cfg.Trees)}
	for t := range f.Trees {
		b := &builder{
			x:        x,
			y:        y,
			maxDepth: cfg.MaxDepth,
			minLeaf:  cfg.MinSamplesLeaf,
		}
		treeRng := rand.New(rand.NewSource(rng.Int63()))
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = treeRng.Intn(len(x))
		}
		b.grow(sample, 0)
		f.Trees[t] = tree{Nodes: b.nodes}
	}
	return f, nil
}

// Predict returns the mean of the tree predictions for one feature vector.
func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("predict: got %d features, model expects %d", len(x), f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, errors.New("predict: model has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// Validate checks that every tree is well formed so a decoded artifact
// cannot index out of range at prediction time.
func (f *RandomForest) Validate() error {
	if f.NumFeatures <= 0 {
		return errors.New("forest has no features")
	}
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature == leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NumFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			// Children are appended after their parent, which also rules out cycles.
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}

type builder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	nodes    []node
}

// grow appends the subtree for the sample indices and returns its root index.
func (b *builder) grow(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: leaf, Value: b.mean(idx)})

	if len(idx) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return self
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return self
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self] = node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: b.nodes[self].Value}
	return self
}

func (b *builder) mean(idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

// bestSplit finds the feature and threshold minimizing the summed squared
// error of both children. Thresholds sit midway between adjacent distinct
// values. Returns false when no split reduces the error.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	bestSSE := parentSSE
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, n)
	for f := range b.x[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			yi := b.y[sorted[k]]
			leftSum += yi
			leftSq += yi * yi

			nl := k + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}
