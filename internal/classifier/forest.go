package classifier

import (
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

type node struct {
	feature   int
	threshold float64
	left      int // -1 on leaves
	right     int
	proba     []float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(x [NumFeatures]float64) []float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.left < 0 {
			return n.proba
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Forest is a bagged ensemble of fully grown Gini decision trees.
type Forest struct {
	trees    []tree
	nClasses int
}

type forestParams struct {
	trees       int
	maxFeatures int
	seed        int64
}

func fitForest(rows [][NumFeatures]float64, labels []int, nClasses int, p forestParams) *Forest {
	f := &Forest{trees: make([]tree, p.trees), nClasses: nClasses}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < p.trees; i++ {
		g.Go(func() error {
			// Each tree owns its RNG so the result does not depend on scheduling.
			rng := rand.New(rand.NewSource(p.seed + int64(i)*7919 + 1))
			idx := make([]int, len(rows))
			for k := range idx {
				idx[k] = rng.Intn(len(rows))
			}
			b := &treeBuilder{
				rows:        rows,
				labels:      labels,
				nClasses:    nClasses,
				maxFeatures: p.maxFeatures,
				rng:         rng,
			}
			b.build(idx)
			f.trees[i] = tree{nodes: b.nodes}
			return nil
		})
	}
	_ = g.Wait()
	return f
}

// PredictProba averages the leaf class frequencies of every tree.
func (f *Forest) PredictProba(x [NumFeatures]float64) []float64 {
	out := make([]float64, f.nClasses)
	for i := range f.trees {
		for c, p := range f.trees[i].predict(x) {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out
}

type treeBuilder struct {
	rows        [][NumFeatures]float64
	labels      []int
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []node
}

func (b *treeBuilder) build(idx []int) int {
	counts := b.counts(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{left: -1, right: -1})

	if len(idx) < 2 || isPure(counts) {
		b.nodes[id].proba = normalize(counts, len(idx))
		return id
	}
	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[id].proba = normalize(counts, len(idx))
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left)
	r := b.build(right)
	b.nodes[id].feature = feature
	b.nodes[id].threshold = threshold
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

// bestSplit draws maxFeatures candidate features and keeps drawing when
// none of them can separate the node.
func (b *treeBuilder) bestSplit(idx []int, total []int) (int, float64, bool) {
	order := b.rng.Perm(NumFeatures)
	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := math.Inf(1)

	sorted := make([]int, len(idx))
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)
	for tried, feature := range order {
		if tried >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.rows[sorted[a]][feature] < b.rows[sorted[c]][feature]
		})
		for c := range left {
			left[c] = 0
			right[c] = total[c]
		}
		for k := 0; k < len(sorted)-1; k++ {
			cls := b.labels[sorted[k]]
			left[cls]++
			right[cls]--
			v, next := b.rows[sorted[k]][feature], b.rows[sorted[k+1]][feature]
			if v >= next {
				continue
			}
			nl, nr := k+1, len(sorted)-k-1
			impurity := float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = feature
				bestThreshold = v + (next-v)/2
				if bestThreshold >= next {
					bestThreshold = v
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) counts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.labels[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func isPure(counts []int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

func normalize(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for c, v := range counts {
		out[c] = float64(v) / float64(n)
	}
	return out
}
