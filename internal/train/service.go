// Package train retrains the vehicle category classifier from a labeled
// dataset and persists the resulting model.
package train

import (
	"context"
	"log/slog"
	"time"

	"github.com/verifactura/invoice-extractor/internal/classifier"
	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/dataset"
	"github.com/verifactura/invoice-extractor/internal/predict"
)

const (
	testSize  = 0.2
	splitSeed = 42
)

// Result summarizes one retraining run.
type Result struct {
	ModelPath            string         `json:"model_path"`
	Classes              []string       `json:"classes"`
	TrainingSamples      int            `json:"training_samples"`
	ValidationSamples    int            `json:"validation_samples"`
	ClassificationReport map[string]any `json:"classification_report"`
	ConfusionMatrix      [][]int        `json:"confusion_matrix"`
}

// Service runs the full retraining flow: load dataset, validate its
// schema, stratified split, fit, evaluate, persist.
type Service struct {
	datasetPath string
	modelPath   string
	cfg         classifier.Config
	logger      *slog.Logger
}

func NewService(datasetPath, modelPath string, cfg classifier.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{datasetPath: datasetPath, modelPath: modelPath, cfg: cfg, logger: logger}
}

// Retrain trains a fresh model. An empty datasetPath falls back to the
// configured default.
func (s *Service) Retrain(ctx context.Context, datasetPath string) (*Result, error) {
	if datasetPath == "" {
		datasetPath = s.datasetPath
	}
	if datasetPath == "" {
		return nil, common.Errorf(common.KindInvalidInput, "no training dataset configured")
	}

	start := time.Now()
	s.logger.Info("train.start", "dataset", datasetPath, "model_path", s.modelPath)

	frame, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, err
	}

	required := append(append([]string(nil), classifier.DefaultFeatureColumns...), classifier.LabelColumn)
	if err := frame.RequireColumns(required...); err != nil {
		return nil, err
	}

	samples, labels, err := s.buildSamples(frame)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, degraded := classifier.StratifiedSplit(labels, testSize, splitSeed)
	for _, class := range degraded {
		s.logger.Warn("train.split.degraded",
			"class", class, "reason", "fewer than 2 samples, kept in training set only")
	}

	trainSamples, trainLabels := subset(samples, labels, trainIdx)
	pipeline := classifier.NewPipeline(s.cfg)
	pipeline.Fit(trainSamples, trainLabels)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classIndex := make(map[string]int, len(pipeline.Classes))
	for i, c := range pipeline.Classes {
		classIndex[c] = i
	}
	yTrue := make([]int, 0, len(testIdx))
	yPred := make([]int, 0, len(testIdx))
	for _, i := range testIdx {
		truth, ok := classIndex[labels[i]]
		if !ok {
			// label only present in the validation slice, nothing to score
			continue
		}
		yTrue = append(yTrue, truth)
		yPred = append(yPred, classIndex[pipeline.Predict(samples[i])])
	}

	report := classifier.ClassificationReport(yTrue, yPred, pipeline.Classes)
	matrix := classifier.ConfusionMatrix(yTrue, yPred, len(pipeline.Classes))

	if err := pipeline.Save(s.modelPath); err != nil {
		return nil, common.NewError(common.KindInternal, "persist trained model", err)
	}

	s.logger.Info("train.ok",
		"classes", pipeline.Classes,
		"training_samples", len(trainIdx),
		"validation_samples", len(yTrue),
		"accuracy", report.Accuracy,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		ModelPath:            s.modelPath,
		Classes:              pipeline.Classes,
		TrainingSamples:      len(trainIdx),
		ValidationSamples:    len(yTrue),
		ClassificationReport: report.AsMap(),
		ConfusionMatrix:      matrix,
	}, nil
}

// buildSamples types every row. Rows with unparseable or empty values are
// skipped with a warning rather than failing the whole run.
func (s *Service) buildSamples(frame *dataset.Frame) ([]classifier.Sample, []string, error) {
	colIdx := make(map[string]int)
	for _, col := range classifier.DefaultFeatureColumns {
		i, _ := frame.Column(col)
		colIdx[col] = i
	}
	labelIdx, _ := frame.Column(classifier.LabelColumn)

	var samples []classifier.Sample
	var labels []string
	skipped := 0

rows:
	for rowNr, row := range frame.Rows {
		label, err := predict.NormalizeText(classifier.LabelColumn, row[labelIdx])
		if err != nil {
			s.logger.Warn("train.row_skipped", "row", rowNr+2, "error", err)
			skipped++
			continue
		}

		sample := classifier.Sample{
			Categorical: make(map[string]string),
			Numeric:     make(map[string]float64),
		}
		for _, col := range classifier.DefaultFeatureColumns {
			cell := row[colIdx[col]]
			if isNumericColumn(col) {
				n, err := predict.ParseNumber(col, cell)
				if err != nil {
					s.logger.Warn("train.row_skipped", "row", rowNr+2, "error", err)
					skipped++
					continue rows
				}
				sample.Numeric[col] = n
			} else {
				text, err := predict.NormalizeText(col, cell)
				if err != nil {
					s.logger.Warn("train.row_skipped", "row", rowNr+2, "error", err)
					skipped++
					continue rows
				}
				sample.Categorical[col] = text
			}
		}
		samples = append(samples, sample)
		labels = append(labels, label)
	}

	if len(samples) == 0 {
		return nil, nil, common.Errorf(common.KindDatasetSchemaInvalid,
			"dataset has no usable rows (%d skipped)", skipped)
	}
	if skipped > 0 {
		s.logger.Warn("train.rows_skipped", "skipped", skipped, "kept", len(samples))
	}
	return samples, labels, nil
}

func isNumericColumn(col string) bool {
	for _, c := range classifier.NumericColumns {
		if c == col {
			return true
		}
	}
	return false
}

func subset(samples []classifier.Sample, labels []string, idx []int) ([]classifier.Sample, []string) {
	outSamples := make([]classifier.Sample, 0, len(idx))
	outLabels := make([]string, 0, len(idx))
	for _, i := range idx {
		outSamples = append(outSamples, samples[i])
		outLabels = append(outLabels, labels[i])
	}
	return outSamples, outLabels
}
