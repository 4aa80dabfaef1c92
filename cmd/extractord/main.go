// Command extractord serves invoice field extraction, vehicle category
// prediction and model retraining over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/verifactura/invoice-extractor/internal/classifier"
	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/extraction"
	"github.com/verifactura/invoice-extractor/internal/llm"
	"github.com/verifactura/invoice-extractor/internal/llm/local"
	"github.com/verifactura/invoice-extractor/internal/llm/openai"
	"github.com/verifactura/invoice-extractor/internal/ocr"
	"github.com/verifactura/invoice-extractor/internal/pdfdoc"
	"github.com/verifactura/invoice-extractor/internal/predict"
	"github.com/verifactura/invoice-extractor/internal/server"
	"github.com/verifactura/invoice-extractor/internal/train"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	extractors := map[string]llm.FieldExtractor{
		llm.ProviderOpenAI: openai.NewClient(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			SchemaName: cfg.OpenAI.SchemaName,
			Timeout:    cfg.OpenAI.Timeout,
		}, logger),
		llm.ProviderLocal: local.NewClient(local.Config{
			Endpoint:  cfg.LocalLLM.Endpoint,
			ModelPath: cfg.LocalLLM.ModelPath,
			ModelID:   cfg.LocalLLM.ModelID,
			Timeout:   cfg.LocalLLM.Timeout,
		}, logger),
	}

	resolver := ocr.NewResolver(
		ocr.AzureDefaults(cfg.OCR.Endpoint, cfg.OCR.Key, cfg.OCR.APIVersion, cfg.OCR.Timeout),
		logger)
	if !cfg.AzureConfigured() {
		logger.Warn("ocr.not_configured",
			"hint", "set AZURE_FORM_RECOGNIZER_ENDPOINT and AZURE_FORM_RECOGNIZER_KEY to enable OCR")
	}

	extractionSvc := extraction.NewService(
		pdfdoc.NewReader(),
		pdfdoc.NewRenderer(cfg.Extraction.PdftoppmBin, cfg.Extraction.RenderDPI, logger),
		resolver,
		extractors,
		cfg.Extraction.MaxCharsPerChunk,
		cfg.Extraction.MaxVisionImages,
		logger,
	)

	predictSvc := predict.NewLazyService(cfg.Classifier.ModelPath, logger)
	trainSvc := train.NewService(cfg.Classifier.DatasetPath, cfg.Classifier.ModelPath,
		classifier.DefaultConfig(), logger)

	srv := server.New(extractionSvc, predictSvc, trainSvc, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("server.shutting_down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server.shutdown_error", "error", err)
	}
	logger.Info("server.stopped")
}
