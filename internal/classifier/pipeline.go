package classifier

import "sort"

// Pipeline is the full trained artifact: feature layout, fitted encoder,
// class labels, and the forest itself. It serializes to a single JSON
// document so a model survives process restarts byte-for-byte.
type Pipeline struct {
	FeatureColumns []string      `json:"feature_columns"`
	Classes        []string      `json:"classes"`
	Preprocessor   *Preprocessor `json:"preprocessor"`
	Forest         *Forest       `json:"forest"`
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		FeatureColumns: append([]string(nil), DefaultFeatureColumns...),
		Preprocessor:   NewPreprocessor(CategoricalColumns, NumericColumns),
		Forest:         &Forest{Config: cfg},
	}
}

// Fit trains on labeled samples. Class labels are sorted so class order,
// and with it the probability vector layout, is stable across runs.
func (p *Pipeline) Fit(samples []Sample, labels []string) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	p.Classes = classes

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}

	X := p.Preprocessor.FitTransform(samples)
	p.Forest.Fit(X, y, len(classes))
}

// PredictProba returns per-class probabilities in Classes order.
func (p *Pipeline) PredictProba(s Sample) []float64 {
	return p.Forest.PredictProba(p.Preprocessor.Transform(s))
}

// Predict returns the winning class label.
func (p *Pipeline) Predict(s Sample) string {
	return p.Classes[p.Forest.Predict(p.Preprocessor.Transform(s))]
}
