package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the OpenAI extraction client.
type Config struct {
	APIKey     string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL    string        // default https://api.openai.com/v1
	Model      string        // e.g. "gpt-4.1-mini"
	SchemaName string        // name announced in the json_schema response format
	Timeout    time.Duration // http client timeout
}

// Client calls chat/completions with a strict JSON-schema response format.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	defaultTemperature      float64
	defaultTopP             float64
	defaultReasoningEffort  string
	defaultFrequencyPenalty float64
	defaultPresencePenalty  float64
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if cfg.SchemaName == "" {
		cfg.SchemaName = "vehicular_invoice"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:                    cfg,
		httpClient:             &http.Client{Timeout: cfg.Timeout},
		logger:                 logger,
		defaultTemperature:     1.0,
		defaultTopP:            1.0,
		defaultReasoningEffort: "minimal",
	}
}
