package ocr

import (
	"log/slog"
	"sync"
	"time"

	"github.com/verifactura/invoice-extractor/internal/common"
)

// ProviderAzure is the only recognized provider today; the cache key keeps
// room for others.
const ProviderAzure = "azure"

type clientKey struct {
	provider string
	endpoint string
	key      string
}

// Resolver hands out OCR clients, constructing one per distinct
// (provider, endpoint, credential) combination and caching it for its own
// lifetime. Entries are never evicted; growth is bounded by the number of
// distinct credentials seen.
type Resolver struct {
	defaults AzureConfig
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[clientKey]TextRecognizer

	// newClient is swapped in tests.
	newClient func(cfg AzureConfig) TextRecognizer
}

func NewResolver(defaults AzureConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		defaults: defaults,
		logger:   logger,
		clients:  make(map[clientKey]TextRecognizer),
		newClient: func(cfg AzureConfig) TextRecognizer {
			return NewAzureClient(cfg, logger)
		},
	}
}

// Resolve picks a client: a complete per-request override wins over the
// configured default; with neither, the caller gets OcrNotConfigured.
func (r *Resolver) Resolve(override *Override) (TextRecognizer, error) {
	var k clientKey
	var cfg AzureConfig
	switch {
	case override.complete():
		if override.Provider != ProviderAzure {
			return nil, common.Errorf(common.KindOCRNotConfigured,
				"unknown OCR provider %q", override.Provider)
		}
		k = clientKey{provider: override.Provider, endpoint: override.Endpoint, key: override.Key}
		cfg = AzureConfig{
			Endpoint:   override.Endpoint,
			Key:        override.Key,
			APIVersion: r.defaults.APIVersion,
			Timeout:    r.defaults.Timeout,
		}
	case r.defaults.Endpoint != "" && r.defaults.Key != "":
		k = clientKey{provider: ProviderAzure, endpoint: r.defaults.Endpoint, key: r.defaults.Key}
		cfg = r.defaults
	default:
		return nil, common.Errorf(common.KindOCRNotConfigured,
			"OCR is required for this input but no endpoint/credential is configured")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[k]; ok {
		return client, nil
	}
	client := r.newClient(cfg)
	r.clients[k] = client
	r.logger.Debug("ocr.client.created", "provider", k.provider, "endpoint", k.endpoint)
	return client, nil
}

// AzureDefaults builds resolver defaults from application config.
func AzureDefaults(endpoint, key, apiVersion string, timeout time.Duration) AzureConfig {
	return AzureConfig{Endpoint: endpoint, Key: key, APIVersion: apiVersion, Timeout: timeout}
}
