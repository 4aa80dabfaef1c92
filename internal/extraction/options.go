package extraction

import (
	"github.com/verifactura/invoice-extractor/constants"
	"github.com/verifactura/invoice-extractor/internal/llm"
	"github.com/verifactura/invoice-extractor/internal/ocr"
)

// Options control how a single extraction request is routed.
type Options struct {
	// ForceOCR sends PDF bytes through OCR even when they carry an
	// embedded text layer. Ignored for text and XML inputs.
	ForceOCR bool

	// UseVision attaches rendered page images to the LLM request where the
	// input format allows it. Image inputs always use vision.
	UseVision bool

	// Provider selects the LLM backend ("openai" or "local"); empty means
	// the hosted default.
	Provider string

	// OCR optionally overrides the configured OCR credentials for this
	// request. Incomplete overrides are ignored.
	OCR *ocr.Override

	// LLM carries per-call generation overrides passed through to the
	// selected backend.
	LLM llm.Options
}

// Result is the outcome of one extraction: the schema-shaped fields plus
// provenance for the text the model saw.
type Result struct {
	Fields     map[string]any       `json:"fields"`
	RawText    string               `json:"raw_text"`
	TextOrigin constants.TextOrigin `json:"text_origin"`
}
