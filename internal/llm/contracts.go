package llm

import "context"

// Provider names for extractor selection.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// VisionImage is a rendered page or uploaded picture attached to the LLM
// request so a multimodal model can cross-reference the visual layout.
type VisionImage struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"` // base64-encoded bytes
}

// Options are per-call generation overrides. Nil pointer fields fall back to
// the client defaults.
type Options struct {
	Model            string
	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64

	// ReasoningEffort is one of none/minimal/low/medium/high; "none" is
	// omitted from the outgoing request entirely, never sent literally.
	ReasoningEffort string

	// APIKey overrides the configured credential for this call only.
	APIKey string
}

// FieldExtractor is the shared contract for hosted and local LLM backends:
// take text (plus optional images), return a JSON object matching the
// invoice schema.
type FieldExtractor interface {
	Extract(ctx context.Context, text string, images []VisionImage, opts Options) (map[string]any, error)
}
