// Command extract runs invoice field extraction against a single file or
// raw text and prints the resulting JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/extraction"
	"github.com/verifactura/invoice-extractor/internal/llm"
	"github.com/verifactura/invoice-extractor/internal/llm/local"
	"github.com/verifactura/invoice-extractor/internal/llm/openai"
	"github.com/verifactura/invoice-extractor/internal/ocr"
	"github.com/verifactura/invoice-extractor/internal/pdfdoc"
)

func main() {
	var (
		file      = flag.String("file", "", "document to extract from (pdf, image, txt, xml)")
		text      = flag.String("text", "", "raw invoice text to extract from")
		provider  = flag.String("provider", llm.ProviderOpenAI, "llm backend: openai or local")
		model     = flag.String("model", "", "model override")
		forceOCR  = flag.Bool("force-ocr", false, "OCR the document even if it has a text layer")
		useVision = flag.Bool("vision", false, "attach rendered pages to the llm request")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	_ = godotenv.Load()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if (*file == "") == (*text == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -text is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	svc := extraction.NewService(
		pdfdoc.NewReader(),
		pdfdoc.NewRenderer(cfg.Extraction.PdftoppmBin, cfg.Extraction.RenderDPI, logger),
		ocr.NewResolver(ocr.AzureDefaults(cfg.OCR.Endpoint, cfg.OCR.Key, cfg.OCR.APIVersion, cfg.OCR.Timeout), logger),
		map[string]llm.FieldExtractor{
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
		},
		cfg.Extraction.MaxCharsPerChunk,
		cfg.Extraction.MaxVisionImages,
		logger,
	)

	opts := extraction.Options{
		ForceOCR:  *forceOCR,
		UseVision: *useVision,
		Provider:  *provider,
		LLM:       llm.Options{Model: *model},
	}

	ctx := context.Background()
	var result *extraction.Result
	var err error
	if *text != "" {
		result, err = svc.ExtractFromText(ctx, *text, opts)
	} else {
		var data []byte
		data, err = os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", *file, err)
			os.Exit(1)
		}
		result, err = svc.ExtractFromFile(ctx, filepath.Base(*file), data, "", opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
