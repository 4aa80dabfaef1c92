package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors so transports can map them uniformly.
type Kind string

const (
	KindInvalidInput           Kind = "INVALID_INPUT"
	KindUnsupportedImageFormat Kind = "UNSUPPORTED_IMAGE_FORMAT"
	KindOCRNotConfigured       Kind = "OCR_NOT_CONFIGURED"
	KindOCRExtractionFailed    Kind = "OCR_EXTRACTION_FAILED"
	KindInvalidModelOutput     Kind = "INVALID_MODEL_OUTPUT"
	KindMissingCredential      Kind = "MISSING_CREDENTIAL"
	KindTokenizerLoadFailed    Kind = "TOKENIZER_LOAD_FAILED"
	KindModelLoadFailed        Kind = "MODEL_LOAD_FAILED"
	KindMissingFeature         Kind = "MISSING_FEATURE"
	KindDatasetSchemaInvalid   Kind = "DATASET_SCHEMA_INVALID"
	KindInternal               Kind = "INTERNAL"
)

// Error is the application error type carried across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the status the HTTP layer should return.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindUnsupportedImageFormat, KindMissingFeature, KindDatasetSchemaInvalid:
		return http.StatusBadRequest
	case KindMissingCredential, KindOCRNotConfigured:
		return http.StatusBadRequest
	case KindInvalidModelOutput, KindOCRExtractionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
