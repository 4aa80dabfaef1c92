package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/llm"
)

// maxGenerateTokens caps the local model's output. The invoice object fits
// comfortably under this.
const maxGenerateTokens = 256

// Config for the local model client.
type Config struct {
	Endpoint  string        // Ollama-compatible server, default http://localhost:11434
	ModelPath string        // local model directory, wins over ModelID when it exists
	ModelID   string        // symbolic model id served by the endpoint
	Timeout   time.Duration // http client timeout
}

// pipeline is the loaded state for one model source.
type pipeline struct {
	source    string
	modelName string
	tokenizer *TokenizerInfo
}

// Client runs extraction against a locally served model. Pipelines are
// loaded once per resolved source and kept for the life of the client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.Mutex
	pipelines map[string]*pipeline
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:11434"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		pipelines:  make(map[string]*pipeline),
	}
}

// getPipeline returns the cached pipeline for source, loading it on first
// use. Load failures are not cached so a fixed model directory is picked
// up on the next call.
func (c *Client) getPipeline(source string) (*pipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pipelines[source]; ok {
		return p, nil
	}

	tk, err := ResolveTokenizer(source)
	if err != nil {
		return nil, err
	}
	p := &pipeline{
		source:    source,
		modelName: modelName(source),
		tokenizer: tk,
	}
	c.pipelines[source] = p
	c.logger.Info("llm.local.pipeline_loaded",
		"source", source, "tokenizer_origin", tk.Origin, "vocab_size", tk.VocabSize)
	return p, nil
}

// Extract implements llm.FieldExtractor against the local serving endpoint.
// The hosted-only options (API key, reasoning effort, penalties) are
// ignored here.
func (c *Client) Extract(ctx context.Context, text string, images []llm.VisionImage, opts llm.Options) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	source := ResolveModelSource(c.cfg.ModelPath, c.cfg.ModelID)
	p, err := c.getPipeline(source)
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = p.modelName
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", llm.ProviderLocal,
		"model", model,
		"text_len", len(text),
		"images", len(images),
	)

	options := map[string]any{"num_predict": maxGenerateTokens}
	if opts.Temperature != nil {
		options["temperature"] = *opts.Temperature
	}
	if opts.TopP != nil {
		options["top_p"] = *opts.TopP
	}

	userMsg := map[string]any{"role": "user", "content": text}
	if len(images) > 0 {
		imgs := make([]string, 0, len(images))
		for _, img := range images {
			imgs = append(imgs, img.Data)
		}
		userMsg["images"] = imgs
	}

	body := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			userMsg,
		},
		"format":  llm.BuildInvoiceSchema(),
		"stream":  false,
		"options": options,
	}

	endpoint := strings.TrimRight(c.cfg.Endpoint, "/") + "/api/chat"
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, nil, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("local chat: %w", err)
	}

	var chat struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, common.NewError(common.KindInvalidModelOutput, "decode local model response", err)
	}
	if strings.TrimSpace(chat.Message.Content) == "" {
		return nil, common.Errorf(common.KindInvalidModelOutput, "local model returned an empty response")
	}

	fields, err := llm.ParseModelResponse(chat.Message.Content)
	if err != nil {
		c.logger.Error("llm.extract.invalid_output",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid, "fields", len(fields), "elapsed_ms", time.Since(start).Milliseconds())
	return fields, nil
}

// modelName derives the serving-side model name from a source: the base
// directory name for filesystem paths, the id itself otherwise.
func modelName(source string) string {
	if strings.ContainsAny(source, `/\`) {
		return filepath.Base(source)
	}
	return source
}
