package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	OpenAI     OpenAIConfig
	LocalLLM   LocalLLMConfig
	OCR        OCRConfig
	Extraction ExtractionConfig
	Classifier ClassifierConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// OpenAIConfig holds hosted-LLM configuration.
type OpenAIConfig struct {
	Model      string
	APIKey     string
	BaseURL    string
	SchemaName string
	Timeout    time.Duration
}

// LocalLLMConfig holds local-model pipeline configuration.
type LocalLLMConfig struct {
	Endpoint  string // local inference server (Ollama-style API)
	ModelPath string // explicit path to local weights, wins when it exists
	ModelID   string // symbolic model identifier fallback
	Timeout   time.Duration
}

// OCRConfig holds the default document-analysis credential.
type OCRConfig struct {
	Endpoint   string
	Key        string
	APIVersion string
	Timeout    time.Duration
}

// ExtractionConfig tunes the ingestion orchestrator.
type ExtractionConfig struct {
	MaxCharsPerChunk int
	MaxVisionImages  int
	PdftoppmBin      string
	RenderDPI        int
}

// ClassifierConfig holds the random-forest model and dataset locations.
type ClassifierConfig struct {
	ModelPath   string
	DatasetPath string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		OpenAI: OpenAIConfig{
			Model:      getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			SchemaName: getEnv("JSON_MODE_SCHEMA_NAME", "vehicular_invoice"),
			Timeout:    getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
		},
		LocalLLM: LocalLLMConfig{
			Endpoint:  getEnv("LOCAL_LLM_ENDPOINT", "http://localhost:11434"),
			ModelPath: getEnv("LOCAL_LLM_MODEL_PATH", ""),
			ModelID:   getEnv("LOCAL_LLM_MODEL_ID", ""),
			Timeout:   getEnvAsDuration("LOCAL_LLM_TIMEOUT", 300*time.Second),
		},
		OCR: OCRConfig{
			Endpoint:   getEnv("AZURE_FORM_RECOGNIZER_ENDPOINT", ""),
			Key:        getEnv("AZURE_FORM_RECOGNIZER_KEY", ""),
			APIVersion: getEnv("AZURE_FORM_RECOGNIZER_API_VERSION", "2023-07-31"),
			Timeout:    getEnvAsDuration("AZURE_FORM_RECOGNIZER_TIMEOUT", 120*time.Second),
		},
		Extraction: ExtractionConfig{
			MaxCharsPerChunk: getEnvAsInt("MAX_CHARS_PER_CHUNK", 50000),
			MaxVisionImages:  getEnvAsInt("MAX_VISION_IMAGES", 3),
			PdftoppmBin:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			RenderDPI:        getEnvAsInt("PDF_RENDER_DPI", 200),
		},
		Classifier: ClassifierConfig{
			ModelPath:   getEnv("RF_MODEL_PATH", "verifactura_rf_model.json"),
			DatasetPath: getEnv("RF_TRAINING_DATA_PATH", "train/data/verifactura_dataset.csv"),
		},
	}
}

// AzureConfigured reports whether a default OCR credential is available.
func (c *Config) AzureConfigured() bool {
	return c.OCR.Endpoint != "" && c.OCR.Key != ""
}

// OpenAIConfigured reports whether a default hosted-LLM credential is available.
func (c *Config) OpenAIConfigured() bool {
	return c.OpenAI.APIKey != ""
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
