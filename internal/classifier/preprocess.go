package classifier

import (
	"math"
	"sort"
)

// Feature layout shared by training and prediction. Column order matters:
// it is the order the API and datasets present values in.
var (
	DefaultFeatureColumns = []string{"marca", "tipo", "clase", "capacidad", "combustible", "ruedas", "total"}
	CategoricalColumns    = []string{"marca", "tipo", "clase", "combustible"}
	NumericColumns        = []string{"capacidad", "ruedas", "total"}
)

// LabelColumn names the target column in training datasets.
const LabelColumn = "categoria"

// Sample is one row of named features, categoricals already normalized
// (trimmed, uppercased) by the caller.
type Sample struct {
	Categorical map[string]string
	Numeric     map[string]float64
}

// Preprocessor turns samples into numeric vectors: one-hot encoding for
// categoricals (values unseen at fit time encode to all zeros) followed by
// standard scaling for numerics. All fitted state is serializable so a
// persisted model reproduces the exact same encoding.
type Preprocessor struct {
	CategoricalCols []string            `json:"categorical_columns"`
	NumericCols     []string            `json:"numeric_columns"`
	Categories      map[string][]string `json:"categories"`
	Means           map[string]float64  `json:"means"`
	Stds            map[string]float64  `json:"stds"`
}

func NewPreprocessor(categorical, numeric []string) *Preprocessor {
	return &Preprocessor{
		CategoricalCols: categorical,
		NumericCols:     numeric,
		Categories:      make(map[string][]string),
		Means:           make(map[string]float64),
		Stds:            make(map[string]float64),
	}
}

// Fit learns the category vocabulary and the numeric mean/std per column.
func (p *Preprocessor) Fit(samples []Sample) {
	for _, col := range p.CategoricalCols {
		seen := make(map[string]struct{})
		for _, s := range samples {
			if v, ok := s.Categorical[col]; ok && v != "" {
				seen[v] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		p.Categories[col] = cats
	}

	n := float64(len(samples))
	for _, col := range p.NumericCols {
		var sum float64
		for _, s := range samples {
			sum += s.Numeric[col]
		}
		mean := 0.0
		if n > 0 {
			mean = sum / n
		}
		var sq float64
		for _, s := range samples {
			d := s.Numeric[col] - mean
			sq += d * d
		}
		std := 0.0
		if n > 0 {
			std = math.Sqrt(sq / n)
		}
		if std == 0 {
			// constant column, scaling divides by 1 instead
			std = 1
		}
		p.Means[col] = mean
		p.Stds[col] = std
	}
}

// Transform encodes one sample into the fitted feature space.
func (p *Preprocessor) Transform(s Sample) []float64 {
	vec := make([]float64, 0, p.width())
	for _, col := range p.CategoricalCols {
		v := s.Categorical[col]
		for _, cat := range p.Categories[col] {
			if v == cat {
				vec = append(vec, 1)
			} else {
				vec = append(vec, 0)
			}
		}
	}
	for _, col := range p.NumericCols {
		vec = append(vec, (s.Numeric[col]-p.Means[col])/p.Stds[col])
	}
	return vec
}

// FitTransform fits on samples and returns their encoded matrix.
func (p *Preprocessor) FitTransform(samples []Sample) [][]float64 {
	p.Fit(samples)
	X := make([][]float64, len(samples))
	for i, s := range samples {
		X[i] = p.Transform(s)
	}
	return X
}

func (p *Preprocessor) width() int {
	w := len(p.NumericCols)
	for _, col := range p.CategoricalCols {
		w += len(p.Categories[col])
	}
	return w
}
