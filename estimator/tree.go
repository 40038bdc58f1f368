package estimator

import (
	"sort"

	"delhi-house-price/utils"
)

// parallelSplitRows is the node size above which split search fans out
// across features.
const parallelSplitRows = 2048

// Node is one node of a regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree stored as a flat node slice; node 0 is the
// root. Samples with x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predictRow(row []float64) float64 {
	n := 0
	for {
		node := t.Nodes[n]
		if node.Feature < 0 {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
	}
}

type treeConfig struct {
	maxDepth        int // <= 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	workers         int
}

type treeBuilder struct {
	cfg        treeConfig
	cols       [][]float64
	y          []float64
	nodes      []Node
	importance []float64
}

type split struct {
	valid     bool
	feature   int
	threshold float64
	gain      float64
	leftSize  int
}

// buildTree grows a tree on the samples listed in idx (duplicates allowed).
// It returns the tree and the unnormalized impurity decrease per feature.
func buildTree(cols [][]float64, y []float64, idx []int, cfg treeConfig) (Tree, []float64) {
	if cfg.minSamplesSplit < 2 {
		cfg.minSamplesSplit = 2
	}
	if cfg.minSamplesLeaf < 1 {
		cfg.minSamplesLeaf = 1
	}
	b := &treeBuilder{
		cfg:        cfg,
		cols:       cols,
		y:          y,
		importance: make([]float64, len(cols)),
	}
	work := append([]int(nil), idx...)
	b.grow(work, 0)
	return Tree{Nodes: b.nodes}, b.importance
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1})

	n := len(idx)
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	mean := sum / float64(n)
	var sse float64
	for _, i := range idx {
		d := b.y[i] - mean
		sse += d * d
	}
	b.nodes[self].Value = mean

	if n < b.cfg.minSamplesSplit || (b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) || sse <= 1e-12*float64(n) {
		return self
	}

	best := b.bestSplit(idx, mean)
	if !best.valid || best.gain <= 0 {
		return self
	}
	b.importance[best.feature] += best.gain

	col := b.cols[best.feature]
	left := make([]int, 0, best.leftSize)
	right := make([]int, 0, n-best.leftSize)
	for _, i := range idx {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self].Feature = best.feature
	b.nodes[self].Threshold = best.threshold
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit evaluates every feature and keeps the largest gain; ties go to
// the lowest feature index, so the result does not depend on worker count.
func (b *treeBuilder) bestSplit(idx []int, mean float64) split {
	candidates := make([]split, len(b.cols))
	workers := 1
	if len(idx) >= parallelSplitRows {
		workers = b.cfg.workers
	}
	utils.ParallelFor(workers, len(b.cols), func(f int) {
		candidates[f] = b.splitFeature(f, idx, mean)
	})

	var best split
	for _, c := range candidates {
		if c.valid && (!best.valid || c.gain > best.gain) {
			best = c
		}
	}
	return best
}

// splitFeature scans the sorted values of feature f for the threshold with
// the largest squared-error reduction. Targets are centered on the node mean
// to keep the running sums well conditioned.
func (b *treeBuilder) splitFeature(f int, idx []int, mean float64) split {
	col := b.cols[f]
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, c int) bool {
		va, vc := col[order[a]], col[order[c]]
		if va != vc {
			return va < vc
		}
		return order[a] < order[c]
	})

	n := len(order)
	var sum, sumSq float64
	for _, i := range order {
		d := b.y[i] - mean
		sum += d
		sumSq += d * d
	}
	parentSSE := sumSq - sum*sum/float64(n)
	minLeaf := b.cfg.minSamplesLeaf

	best := split{feature: f}
	var leftSum, leftSq float64
	for k := 0; k < n-1; k++ {
		v := b.y[order[k]] - mean
		leftSum += v
		leftSq += v * v

		nl := k + 1
		nr := n - nl
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		xk, xNext := col[order[k]], col[order[k+1]]
		if xk >= xNext {
			continue
		}

		rightSum := sum - leftSum
		rightSq := sumSq - leftSq
		sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
		gain := parentSSE - sse
		if !best.valid || gain > best.gain {
			threshold := xk + (xNext-xk)/2
			if threshold >= xNext {
				threshold = xk
			}
			best = split{valid: true, feature: f, threshold: threshold, gain: gain, leftSize: nl}
		}
	}
	return best
}
