package constants

import "strings"

// Format is the coarse document format used for ingestion routing.
type Format string

const (
	PDF     Format = "PDF"
	Image   Format = "IMAGE"
	Text    Format = "TEXT"
	XML     Format = "XML"
	Unknown Format = "UNKNOWN"
)

// ImageExtensions holds raster formats that always go through OCR.
var ImageExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "tif": {}, "tiff": {}, "bmp": {}, "gif": {},
}

// TextExtensions holds machine-readable formats that are decoded directly
// and never OCR'd, regardless of caller flags.
var TextExtensions = map[string]struct{}{
	"txt": {}, "json": {}, "csv": {},
}

var XMLExtensions = map[string]struct{}{
	"xml": {},
}

var PDFExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a normalized extension to its routing format.
func MapExtToFormat(ext string) Format {
	switch {
	case has(PDFExtensions, ext):
		return PDF
	case has(ImageExtensions, ext):
		return Image
	case has(TextExtensions, ext):
		return Text
	case has(XMLExtensions, ext):
		return XML
	default:
		return Unknown
	}
}

func has(set map[string]struct{}, ext string) bool {
	_, ok := set[ext]
	return ok
}
