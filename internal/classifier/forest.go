package classifier

import (
	"math"
	"math/rand"
)

// Config holds the random forest hyperparameters.
type Config struct {
	NEstimators     int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	MaxFeatures     float64 `json:"max_features"` // fraction of features tried per split
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
	MaxSamples      float64 `json:"max_samples"` // bootstrap fraction per tree
	Seed            int64   `json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		NEstimators:     400,
		MaxDepth:        15,
		MaxFeatures:     0.6,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  3,
		MaxSamples:      0.8,
		Seed:            42,
	}
}

// Forest is a bagged ensemble of gini CART trees over a fixed feature
// space. Prediction averages the per-tree leaf distributions.
type Forest struct {
	Config      Config      `json:"config"`
	NumClasses  int         `json:"num_classes"`
	NumFeatures int         `json:"num_features"`
	Trees       []*treeNode `json:"trees"`
}

// Fit trains the ensemble. Each tree gets its own deterministic RNG derived
// from the seed, so training is reproducible regardless of scheduling.
func (f *Forest) Fit(X [][]float64, y []int, numClasses int) {
	f.NumClasses = numClasses
	f.NumFeatures = 0
	if len(X) > 0 {
		f.NumFeatures = len(X[0])
	}

	sampleSize := int(f.Config.MaxSamples * float64(len(X)))
	if sampleSize < 1 {
		sampleSize = len(X)
	}
	maxFeatures := int(math.Ceil(f.Config.MaxFeatures * float64(f.NumFeatures)))

	cfg := treeConfig{
		maxDepth:    f.Config.MaxDepth,
		minSplit:    f.Config.MinSamplesSplit,
		minLeaf:     f.Config.MinSamplesLeaf,
		maxFeatures: maxFeatures,
		numClasses:  numClasses,
	}

	f.Trees = make([]*treeNode, f.Config.NEstimators)
	for t := 0; t < f.Config.NEstimators; t++ {
		rng := rand.New(rand.NewSource(f.Config.Seed + int64(t)))
		idx := make([]int, sampleSize)
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}
		f.Trees[t] = buildTree(X, y, idx, cfg, 0, rng)
	}
}

// PredictProba returns the averaged class distribution for one vector.
func (f *Forest) PredictProba(x []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	if len(f.Trees) == 0 {
		return probs
	}
	for _, tree := range f.Trees {
		for i, p := range tree.predictProba(x) {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the class index with the highest averaged probability;
// ties go to the lowest index.
func (f *Forest) Predict(x []float64) int {
	probs := f.PredictProba(x)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
