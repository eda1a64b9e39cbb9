package market

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ForestConfig tunes the random-forest regressor. Seed fixes the bootstrap
// and feature sampling so two runs over the same cohort produce identical
// estimates.
type ForestConfig struct {
	NEstimators int   `yaml:"n_estimators"`
	MaxDepth    int   `yaml:"max_depth"`
	MinLeaf     int   `yaml:"min_leaf"`
	Seed        int64 `yaml:"seed"`
}

func applyForestDefaults(c *ForestConfig) {
	if c.NEstimators == 0 {
		c.NEstimators = 100
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 12
	}
	if c.MinLeaf == 0 {
		c.MinLeaf = 2
	}
}

// Forest is a bootstrap-aggregated ensemble of variance-reduction regression
// trees. It handles the non-linear price/mileage/year interactions of vehicle
// cohorts without any feature engineering.
type Forest struct {
	cfg   ForestConfig
	trees []*treeNode
}

// NewForest creates an unfitted forest regressor.
func NewForest(cfg ForestConfig) *Forest {
	applyForestDefaults(&cfg)
	return &Forest{cfg: cfg}
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// Fit trains the ensemble. Each tree sees a bootstrap resample of the data
// and considers a random subset of features at every split.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("forest: empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("forest: %d rows but %d targets", len(X), len(y))
	}

	p := len(X[0])
	mtry := (p + 2) / 3
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	f.trees = make([]*treeNode, f.cfg.NEstimators)

	for t := range f.trees {
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}
		f.trees[t] = f.buildTree(X, y, idx, mtry, f.cfg.MaxDepth, rng)
	}

	return nil
}

// Predict averages the per-tree estimates for one feature row.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, tree := range f.trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.trees))
}

// Score returns the coefficient of determination on (X, y).
func (f *Forest) Score(X [][]float64, y []float64) float64 {
	estimates := make([]float64, len(X))
	for i, x := range X {
		estimates[i] = f.Predict(x)
	}
	return stat.RSquaredFrom(estimates, y, nil)
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func (f *Forest) buildTree(
	X [][]float64,
	y []float64,
	idx []int,
	mtry int,
	depth int,
	rng *rand.Rand,
) *treeNode {
	mean, variance := meanVariance(y, idx)

	if depth == 0 || len(idx) < 2*f.cfg.MinLeaf || variance == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := f.bestSplit(X, y, idx, mtry, rng)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < f.cfg.MinLeaf || len(right) < f.cfg.MinLeaf {
		return &treeNode{leaf: true, value: mean}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      f.buildTree(X, y, left, mtry, depth-1, rng),
		right:     f.buildTree(X, y, right, mtry, depth-1, rng),
	}
}

// bestSplit scans a random subset of features for the split with the largest
// sum-of-squared-error reduction, using prefix sums over the sorted values.
func (f *Forest) bestSplit(
	X [][]float64,
	y []float64,
	idx []int,
	mtry int,
	rng *rand.Rand,
) (feature int, threshold float64, ok bool) {
	p := len(X[0])
	features := rng.Perm(p)[:mtry]

	bestSSE := sse(y, idx)
	sorted := make([]int, len(idx))

	for _, ft := range features {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][ft] < X[sorted[b]][ft]
		})

		var leftSum, leftSq float64
		totalSum, totalSq := sumSq(y, sorted)

		for i := 0; i < len(sorted)-1; i++ {
			v := y[sorted[i]]
			leftSum += v
			leftSq += v * v

			// No split between equal feature values.
			if X[sorted[i]][ft] == X[sorted[i+1]][ft] {
				continue
			}

			nLeft := float64(i + 1)
			nRight := float64(len(sorted) - i - 1)
			if int(nLeft) < f.cfg.MinLeaf || int(nRight) < f.cfg.MinLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			candidate := (leftSq - leftSum*leftSum/nLeft) +
				(rightSq - rightSum*rightSum/nRight)

			if candidate < bestSSE {
				bestSSE = candidate
				feature = ft
				threshold = (X[sorted[i]][ft] + X[sorted[i+1]][ft]) / 2
				ok = true
			}
		}
	}

	return feature, threshold, ok
}

func meanVariance(y []float64, idx []int) (mean, variance float64) {
	vals := make([]float64, len(idx))
	for i, j := range idx {
		vals[i] = y[j]
	}
	mean, variance = stat.MeanVariance(vals, nil)
	if len(idx) < 2 {
		variance = 0
	}
	return mean, variance
}

func sse(y []float64, idx []int) float64 {
	sum, sq := sumSq(y, idx)
	n := float64(len(idx))
	return sq - sum*sum/n
}

func sumSq(y []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		v := y[i]
		sum += v
		sq += v * v
	}
	return sum, sq
}
