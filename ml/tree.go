package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a regression tree, stored in a flat array.
// Child fields index into the array; leaves carry the mean target of
// their training rows.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// RegressionTree predicts a continuous target by routing a feature
// vector to a leaf and returning the leaf mean.
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
}

// fit grows the tree over the rows named by indices. X is shared
// between trees; only index slices are copied.
func (t *RegressionTree) fit(X [][]float64, y []float64, indices []int, cfg treeConfig, rnd *rand.Rand) error {
	if len(indices) == 0 {
		return errors.New("no training rows")
	}
	t.Nodes = buildRegressionNodes(X, y, indices, 0, cfg, rnd)
	return nil
}

// Predict routes one feature vector to a leaf.
func (t *RegressionTree) Predict(features []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("tree not trained")
	}
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func buildRegressionNodes(X [][]float64, y []float64, indices []int, depth int, cfg treeConfig, rnd *rand.Rand) []TreeNode {
	leaf := TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      meanAt(y, indices),
		IsLeaf:     true,
	}

	if depth >= cfg.maxDepth || len(indices) < cfg.minSamplesSplit {
		return []TreeNode{leaf}
	}

	feature, threshold, ok := bestRegressionSplit(X, y, indices, cfg, rnd)
	if !ok {
		return []TreeNode{leaf}
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < cfg.minSamplesLeaf || len(right) < cfg.minSamplesLeaf {
		return []TreeNode{leaf}
	}

	leftNodes := buildRegressionNodes(X, y, left, depth+1, cfg, rnd)
	rightNodes := buildRegressionNodes(X, y, right, depth+1, cfg, rnd)

	root := TreeNode{
		FeatureIdx: feature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      leaf.Value,
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

// bestRegressionSplit scans a random feature subset for the threshold
// minimizing the weighted sum of squared errors of the two halves.
// Candidates are midpoints between consecutive sorted values, found
// with prefix sums in one pass per feature.
func bestRegressionSplit(X [][]float64, y []float64, indices []int, cfg treeConfig, rnd *rand.Rand) (int, float64, bool) {
	numFeatures := len(X[indices[0]])
	features := candidateFeatures(numFeatures, cfg.maxFeatures, rnd)

	bestFeature := -1
	bestThreshold := 0.0
	bestSSE := math.MaxFloat64

	type pair struct {
		value  float64
		target float64
	}
	pairs := make([]pair, len(indices))

	for _, f := range features {
		for i, idx := range indices {
			pairs[i] = pair{value: X[idx][f], target: y[idx]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })

		var totalSum, totalSq float64
		for _, p := range pairs {
			totalSum += p.target
			totalSq += p.target * p.target
		}

		var leftSum, leftSq float64
		n := float64(len(pairs))
		for i := 0; i < len(pairs)-1; i++ {
			leftSum += pairs[i].target
			leftSq += pairs[i].target * pairs[i].target
			if pairs[i].value == pairs[i+1].value {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			if int(nl) < cfg.minSamplesLeaf || int(nr) < cfg.minSamplesLeaf {
				continue
			}
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func candidateFeatures(numFeatures, maxFeatures int, rnd *rand.Rand) []int {
	if maxFeatures <= 0 || maxFeatures >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rnd.Perm(numFeatures)
	return perm[:maxFeatures]
}

func meanAt(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}
