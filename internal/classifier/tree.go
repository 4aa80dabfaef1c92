package classifier

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a CART decision tree. Leaves carry a normalized
// class distribution in Probs; internal nodes route on Feature <= Threshold.
type treeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Probs     []float64 `json:"probs,omitempty"`
}

type treeConfig struct {
	maxDepth    int
	minSplit    int
	minLeaf     int
	maxFeatures int
	numClasses  int
}

func (n *treeNode) predictProba(x []float64) []float64 {
	for n.Probs == nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Probs
}

// buildTree grows a tree over the rows named by idx, splitting greedily on
// gini impurity.
func buildTree(X [][]float64, y []int, idx []int, cfg treeConfig, depth int, rng *rand.Rand) *treeNode {
	counts := classCounts(y, idx, cfg.numClasses)
	if depth >= cfg.maxDepth || len(idx) < cfg.minSplit || isPure(counts) {
		return leaf(counts)
	}

	feature, threshold, ok := bestSplit(X, y, idx, cfg, rng)
	if !ok {
		return leaf(counts)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < cfg.minLeaf || len(right) < cfg.minLeaf {
		return leaf(counts)
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, y, left, cfg, depth+1, rng),
		Right:     buildTree(X, y, right, cfg, depth+1, rng),
	}
}

// bestSplit scans a random feature subset for the threshold with the lowest
// weighted child impurity.
func bestSplit(X [][]float64, y []int, idx []int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	perm := rng.Perm(nFeatures)
	k := cfg.maxFeatures
	if k <= 0 || k > nFeatures {
		k = nFeatures
	}

	parent := gini(classCounts(y, idx, cfg.numClasses), len(idx))
	bestFeature, bestThreshold := -1, 0.0
	bestScore := parent

	for _, f := range perm[:k] {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			leftCounts := make([]int, cfg.numClasses)
			rightCounts := make([]int, cfg.numClasses)
			nLeft, nRight := 0, 0
			for _, i := range idx {
				if X[i][f] <= threshold {
					leftCounts[y[i]]++
					nLeft++
				} else {
					rightCounts[y[i]]++
					nRight++
				}
			}
			if nLeft < cfg.minLeaf || nRight < cfg.minLeaf {
				continue
			}

			n := float64(nLeft + nRight)
			score := float64(nLeft)/n*gini(leftCounts, nLeft) + float64(nRight)/n*gini(rightCounts, nRight)
			if score < bestScore {
				bestScore, bestFeature, bestThreshold = score, f, threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func classCounts(y []int, idx []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
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

func leaf(counts []int) *treeNode {
	total := 0
	for _, c := range counts {
		total += c
	}
	probs := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			probs[i] = float64(c) / float64(total)
		}
	}
	return &treeNode{Probs: probs}
}
