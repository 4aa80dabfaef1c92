package pdfdoc

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader extracts the text embedded in a PDF's content streams.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadText concatenates embedded page text across all pages. Per-page
// extraction failures contribute "" rather than aborting the document, and
// whitespace runs are collapsed to single spaces. An empty return means
// "needs OCR", never a failure.
func (r *Reader) ReadText(data []byte) string {
	parts := readPages(data)
	joined := strings.TrimSpace(strings.Join(parts, "\n"))
	return strings.Join(strings.Fields(joined), " ")
}

func readPages(data []byte) (parts []string) {
	// The parser panics on some malformed documents; a broken PDF is an
	// OCR candidate, not an error.
	defer func() {
		if rec := recover(); rec != nil {
			parts = nil
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}
	for i := 1; i <= reader.NumPage(); i++ {
		parts = append(parts, readPage(reader, i))
	}
	return parts
}

func readPage(reader *pdf.Reader, n int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
