package ml

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// node is a node of a binary CART tree.  Leafs have Left == Right ==
// -1 and hold the fraction of positive training samples in Score.
// Internal nodes send x[Feature] <= Threshold to the left.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Score     float64 `json:"s"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// treeBuilder grows one gini tree over the columns of the training
// data.  The columns and labels are shared between builders and must
// not be modified.
type treeBuilder struct {
	cols     [][]float64
	ys       []float64
	rnd      *rand.Rand
	maxDepth int
	minSplit int
	minLeaf  int
	mtry     int
	nodes    []node
}

func (b *treeBuilder) build(idx []int) tree {
	b.nodes = nil
	b.grow(idx, 0)
	return tree{Nodes: b.nodes}
}

func (b *treeBuilder) leaf(n, pos int) node {
	return node{Left: -1, Right: -1, Score: float64(pos) / float64(n)}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	pos := b.positives(idx)
	b.nodes = append(b.nodes, b.leaf(len(idx), pos))
	if pos == 0 || pos == len(idx) || len(idx) < b.minSplit ||
		(b.maxDepth > 0 && depth >= b.maxDepth) {
		return id
	}
	best, ok := b.bestSplit(idx, pos)
	if !ok {
		return id
	}
	var left, right []int
	col := b.cols[best.feature]
	for _, i := range idx {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
	}
	return id
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit looks at the features in random order.  At least mtry
// features are examined; if none of them allows a valid split the
// search goes on with the remaining features.
func (b *treeBuilder) bestSplit(idx []int, pos int) (split, bool) {
	best := split{gain: 0}
	found := false
	parent := gini(len(idx), pos)
	sorted := make([]int, len(idx))
	for k, f := range b.rnd.Perm(len(b.cols)) {
		if k >= b.mtry && found {
			break
		}
		col := b.cols[f]
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return col[sorted[i]] < col[sorted[j]]
		})
		n := len(sorted)
		lpos := 0
		for s := 1; s < n; s++ {
			lpos += int(b.ys[sorted[s-1]])
			if col[sorted[s-1]] == col[sorted[s]] {
				continue
			}
			if s < b.minLeaf || n-s < b.minLeaf {
				continue
			}
			imp := (float64(s)*gini(s, lpos) + float64(n-s)*gini(n-s, pos-lpos)) / float64(n)
			if gain := parent - imp; gain > best.gain+1e-12 {
				best = split{
					feature:   f,
					threshold: (col[sorted[s-1]] + col[sorted[s]]) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) positives(idx []int) int {
	pos := 0
	for _, i := range idx {
		if b.ys[i] == True {
			pos++
		}
	}
	return pos
}

func gini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}

// score returns the positive fraction of the leaf the row ends up in.
func (t tree) score(row []float64) float64 {
	i := 0
	for {
		nd := t.Nodes[i]
		if nd.Left < 0 {
			return nd.Score
		}
		if row[nd.Feature] <= nd.Threshold {
			i = nd.Left
		} else {
			i = nd.Right
		}
	}
}

// depth returns the depth of the tree (a single leaf has depth 0).
func (t tree) depth() int {
	var rec func(int) int
	rec = func(i int) int {
		nd := t.Nodes[i]
		if nd.Left < 0 {
			return 0
		}
		l, r := rec(nd.Left), rec(nd.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return rec(0)
}

func defaultMtry(p, maxFeatures int) int {
	if maxFeatures > 0 && maxFeatures <= p {
		return maxFeatures
	}
	m := int(math.Round(math.Sqrt(float64(p))))
	if m < 1 {
		m = 1
	}
	return m
}

// check makes sure that decoded trees are well formed.  Children are
// always stored after their parents, which rules out cycles.
func (t tree) check() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, nd := range t.Nodes {
		if nd.Left < 0 && nd.Right < 0 {
			continue
		}
		if nd.Left <= i || nd.Right <= i || nd.Left >= len(t.Nodes) || nd.Right >= len(t.Nodes) {
			return fmt.Errorf("bad node %d", i)
		}
		if nd.Feature < 0 {
			return fmt.Errorf("bad feature %d in node %d", nd.Feature, i)
		}
	}
	return nil
}

// maxFeature returns the largest feature index used by a split or -1
// for a single leaf.
func (t tree) maxFeature() int {
	ret := -1
	for _, nd := range t.Nodes {
		if nd.Left >= 0 && nd.Feature > ret {
			ret = nd.Feature
		}
	}
	return ret
}
