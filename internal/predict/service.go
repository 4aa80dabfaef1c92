package predict

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/verifactura/invoice-extractor/internal/classifier"
	"github.com/verifactura/invoice-extractor/internal/common"
)

// ClassProbability pairs a class label with its probability.
type ClassProbability struct {
	Class       string  `json:"clase"`
	Probability float64 `json:"probabilidad"`
}

// Prediction is the result of classifying one feature set. Inputs echoes
// the normalized values the model actually saw.
type Prediction struct {
	Category      string             `json:"categoria_predicha"`
	Probabilities []ClassProbability `json:"probabilidades"`
	Inputs        map[string]any     `json:"valores_entrada"`
}

// Service classifies vehicle records with a persisted model. The model is
// loaded once and swapped atomically on Reload, so predictions keep working
// while a retrain writes the new artifact.
type Service struct {
	modelPath string
	logger    *slog.Logger

	mu       sync.RWMutex
	pipeline *classifier.Pipeline
}

// NewService loads the model at modelPath. A missing or corrupt model is
// ModelLoadFailed; the caller decides whether that is fatal.
func NewService(modelPath string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{modelPath: modelPath, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewLazyService builds a service even when the model artifact does not
// exist yet. Predict fails with ModelLoadFailed until a Reload succeeds,
// typically after the first retrain.
func NewLazyService(modelPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{modelPath: modelPath, logger: logger}
	if err := s.Reload(); err != nil {
		logger.Warn("predict.model_unavailable", "path", modelPath, "error", err)
	}
	return s
}

// Reload re-reads the model artifact and swaps it in.
func (s *Service) Reload() error {
	pipeline, err := classifier.Load(s.modelPath)
	if err != nil {
		return common.NewError(common.KindModelLoadFailed,
			"cannot load classifier model from "+s.modelPath, err)
	}
	s.mu.Lock()
	s.pipeline = pipeline
	s.mu.Unlock()
	s.logger.Info("predict.model_loaded",
		"path", s.modelPath, "classes", pipeline.Classes, "trees", len(pipeline.Forest.Trees))
	return nil
}

// Classes returns the model's class labels in probability-vector order.
func (s *Service) Classes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipeline == nil {
		return nil
	}
	return s.pipeline.Classes
}

// Predict validates and normalizes the features, then runs the model.
// Every required feature must be present and non-nil; all missing ones are
// reported together.
func (s *Service) Predict(features map[string]any) (*Prediction, error) {
	s.mu.RLock()
	pipeline := s.pipeline
	s.mu.RUnlock()
	if pipeline == nil {
		return nil, common.Errorf(common.KindModelLoadFailed,
			"no classifier model loaded, train one first")
	}

	columns := pipeline.FeatureColumns
	if len(columns) == 0 {
		columns = classifier.DefaultFeatureColumns
	}

	var missing []string
	for _, col := range columns {
		if v, ok := features[col]; !ok || v == nil {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, common.Errorf(common.KindMissingFeature,
			"missing required features: %s", strings.Join(missing, ", "))
	}

	sample := classifier.Sample{
		Categorical: make(map[string]string),
		Numeric:     make(map[string]float64),
	}
	inputs := make(map[string]any, len(columns))
	for _, col := range columns {
		if contains(classifier.NumericColumns, col) {
			n, err := ParseNumber(col, features[col])
			if err != nil {
				return nil, err
			}
			sample.Numeric[col] = n
			inputs[col] = n
		} else {
			text, err := NormalizeText(col, features[col])
			if err != nil {
				return nil, err
			}
			sample.Categorical[col] = text
			inputs[col] = text
		}
	}

	probs := pipeline.PredictProba(sample)
	best := 0
	out := make([]ClassProbability, len(probs))
	for i, p := range probs {
		out[i] = ClassProbability{Class: pipeline.Classes[i], Probability: p}
		if p > probs[best] {
			best = i
		}
	}

	s.logger.Info("predict.ok",
		"category", pipeline.Classes[best], "probability", probs[best])
	return &Prediction{
		Category:      pipeline.Classes[best],
		Probabilities: out,
		Inputs:        inputs,
	}, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
