package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets while
// keeping each label's proportion. Labels with a single sample cannot
// appear on both sides; they go entirely to the training set and are
// returned in degraded so callers can warn about them.
func StratifiedSplit(labels []string, testSize float64, seed int64) (train, test []int, degraded []string) {
	byLabel := make(map[string][]int)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}

	names := make([]string, 0, len(byLabel))
	for l := range byLabel {
		names = append(names, l)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(seed))
	for _, l := range names {
		idx := byLabel[l]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		if len(idx) < 2 {
			degraded = append(degraded, l)
			train = append(train, idx...)
			continue
		}

		nTest := int(math.Round(testSize * float64(len(idx))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, degraded
}
