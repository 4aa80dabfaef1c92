package ocr

import "context"

// TextRecognizer turns document bytes into recognized text.
type TextRecognizer interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// Override selects a non-default OCR backend for a single request.
// All three fields must be set for the override to take effect.
type Override struct {
	Provider string
	Endpoint string
	Key      string
}

func (o *Override) complete() bool {
	return o != nil && o.Provider != "" && o.Endpoint != "" && o.Key != ""
}
