package pdfdoc

import "bytes"

// SniffImageMIME assigns a MIME type from well-known byte signatures.
// Embedded PDF images often carry absent or untrustworthy format metadata,
// so the bytes themselves are the authority. Defaults to image/png.
func SniffImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "image/tiff"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	default:
		return "image/png"
	}
}
