package constants

// TextOrigin records where the text handed to the LLM came from.
type TextOrigin string

// Stable values (returned verbatim to API callers).
const (
	OriginInput TextOrigin = "input" // raw text supplied by the caller
	OriginFile  TextOrigin = "file"  // read directly from the document
	OriginOCR   TextOrigin = "ocr"   // recognized by the OCR service
)
