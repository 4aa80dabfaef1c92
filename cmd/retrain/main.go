// Command retrain fits the vehicle category classifier from a labeled
// dataset and writes the model artifact.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/verifactura/invoice-extractor/internal/classifier"
	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/train"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "", "training dataset (.csv or .xlsx); defaults to RF_TRAINING_DATA_PATH")
		modelPath   = flag.String("model", "", "output model path; defaults to RF_MODEL_PATH")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *modelPath == "" {
		*modelPath = cfg.Classifier.ModelPath
	}

	svc := train.NewService(cfg.Classifier.DatasetPath, *modelPath, classifier.DefaultConfig(), logger)
	result, err := svc.Retrain(context.Background(), *datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrain failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
