package ml

import (
	"math/rand/v2"
	"sort"
)

const leaf = -1

// Node is one decision tree node. Leaves have Left == Right == -1 and carry
// the class distribution of the training rows that reached them.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Probs     []float64 `json:"p,omitempty"`
}

// Tree is a CART classification tree grown to purity with Gini impurity.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
}

// FitTree grows a tree on the rows of x listed in idx (duplicates allowed,
// as produced by bootstrap sampling). At each split only maxFeatures randomly
// chosen features are searched first; the remaining ones are tried only when
// none of those yields a valid split.
func FitTree(x [][]float64, y []int, idx []int, nClasses, maxFeatures int, rng *rand.Rand) *Tree {
	b := &treeBuilder{x: x, y: y, nClasses: nClasses, maxFeatures: maxFeatures, rng: rng}
	b.grow(append([]int(nil), idx...))
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: leaf, Right: leaf})

	counts := b.counts(idx)
	if len(idx) < 2 || isPure(counts) {
		b.nodes[id].Probs = normalize(counts)
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[id].Probs = normalize(counts)
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left)
	r := b.grow(right)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

func (b *treeBuilder) bestSplit(idx []int, total []float64) (int, float64, bool) {
	nFeatures := len(b.x[idx[0]])
	order := b.rng.Perm(nFeatures)

	bestFeature, bestThreshold := -1, 0.0
	bestScore := gini(total, float64(len(idx)))
	found := false

	sorted := append([]int(nil), idx...)
	for visited, f := range order {
		if visited >= b.maxFeatures && found {
			break
		}

		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		left := make([]float64, b.nClasses)
		right := append([]float64(nil), total...)
		n := float64(len(sorted))
		for k := 0; k < len(sorted)-1; k++ {
			c := b.y[sorted[k]]
			left[c]++
			right[c]--

			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			score := (nl*gini(left, nl) + nr*gini(right, nr)) / n
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) counts(idx []int) []float64 {
	c := make([]float64, b.nClasses)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

// Proba returns the class distribution of the leaf row x falls into.
func (t *Tree) Proba(x []float64) []float64 {
	n := 0
	for t.Nodes[n].Left != leaf {
		nd := t.Nodes[n]
		if x[nd.Feature] <= nd.Threshold {
			n = nd.Left
		} else {
			n = nd.Right
		}
	}
	return t.Nodes[n].Probs
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	s := 1.0
	for _, c := range counts {
		p := c / n
		s -= p * p
	}
	return s
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
