package risk

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

var errEmptyTree = errors.New("empty tree")

// Node is one node of a flattened decision tree. Leaves have Feature == -1.
// Internal nodes send a row left when x[Feature] <= Threshold.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Class     int     `json:"class"`
	Samples   int     `json:"samples"`
}

// Leaf reports whether the node is a leaf
func (n Node) Leaf() bool {
	return n.Feature < 0
}

// Tree is a CART classifier grown on Gini impurity
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// TreeParams controls tree growth
type TreeParams struct {
	MaxDepth        int // 0 grows until leaves are pure
	MaxFeatures     int // features examined per split, 0 = all
	MinSamplesSplit int // default 2
}

// Predict walks the tree for one feature vector
func (t Tree) Predict(x []float64) (int, error) {
	if len(t.Nodes) == 0 {
		return 0, errEmptyTree
	}

	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Leaf() {
			return n.Class, nil
		}
		if n.Feature >= len(x) {
			return 0, fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, len(x))
		}
		next := n.Right
		if x[n.Feature] <= n.Threshold {
			next = n.Left
		}
		if next <= 0 || next >= len(t.Nodes) {
			return 0, fmt.Errorf("node %d has child index %d out of range", i, next)
		}
		i = next
	}
	return 0, errors.New("tree walk did not terminate")
}

// Depth returns the depth of the deepest leaf (a single leaf has depth 0)
func (t Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Leaf() {
			return d
		}
		return max(walk(n.Left, d+1), walk(n.Right, d+1))
	}
	return walk(0, 0)
}

// validate checks structural integrity against the schema sizes
func (t Tree) validate(numFeatures, numClasses int) error {
	if len(t.Nodes) == 0 {
		return errEmptyTree
	}
	for i, n := range t.Nodes {
		if n.Class < 0 || n.Class >= numClasses {
			return fmt.Errorf("node %d: class %d out of range", i, n.Class)
		}
		if n.Leaf() {
			continue
		}
		if n.Feature >= numFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// Children are always appended after their parent
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// treeBuilder grows one tree over rows X[idx]
type treeBuilder struct {
	X          [][]float64
	y          []int
	numClasses int
	params     TreeParams
	rng        *rand.Rand
	nodes      []Node
}

func fitTree(X [][]float64, y []int, idx []int, numClasses int, params TreeParams, rng *rand.Rand) Tree {
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}
	b := &treeBuilder{X: X, y: y, numClasses: numClasses, params: params, rng: rng}
	if len(idx) == 0 {
		return Tree{Nodes: []Node{{Feature: -1}}}
	}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	counts := b.classCounts(idx)
	pos := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Class: argmax(counts), Samples: len(idx)})

	if len(idx) < b.params.MinSamplesSplit || isPure(counts) {
		return pos
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return pos
	}

	s, ok := b.bestSplit(idx, counts)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[pos].Feature = s.feature
	b.nodes[pos].Threshold = s.threshold
	b.nodes[pos].Left = l
	b.nodes[pos].Right = r
	return pos
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans candidate features in random order. When MaxFeatures is
// set, scanning stops once that many features have been examined and a
// valid split exists; constant features do not end the search early.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (split, bool) {
	numFeatures := len(b.X[idx[0]])
	order := make([]int, numFeatures)
	for i := range order {
		order[i] = i
	}
	if b.rng != nil {
		b.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	limit := b.params.MaxFeatures
	if limit <= 0 || limit > numFeatures {
		limit = numFeatures
	}

	n := len(idx)
	parent := gini(counts, n)
	best := split{gain: -1}
	found := false

	sorted := slices.Clone(idx)
	left := make([]int, b.numClasses)
	right := make([]int, b.numClasses)

	for visited, f := range order {
		if visited >= limit && found {
			break
		}

		slices.SortFunc(sorted, func(a, c int) int {
			switch va, vc := b.X[a][f], b.X[c][f]; {
			case va < vc:
				return -1
			case va > vc:
				return 1
			}
			return 0
		})

		clear(left)
		copy(right, counts)

		for k := 0; k < n-1; k++ {
			c := b.y[sorted[k]]
			left[c]++
			right[c]--

			v, next := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if v == next {
				continue
			}

			nl, nr := k+1, n-k-1
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			gain := parent - impurity
			if gain > best.gain {
				threshold := v + (next-v)/2
				if threshold >= next {
					threshold = v
				}
				best = split{feature: f, threshold: threshold, gain: gain}
				found = true
			}
		}
	}

	return best, found
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// argmax returns the index of the largest count, lowest index on ties
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
