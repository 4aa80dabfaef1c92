package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadText_GarbageReturnsEmpty(t *testing.T) {
	r := NewReader()
	assert.Equal(t, "", r.ReadText([]byte("not a pdf")))
	assert.Equal(t, "", r.ReadText(nil))
}

func TestReadText_TruncatedPDFReturnsEmpty(t *testing.T) {
	// Valid header, broken body: must come back as "needs OCR", not panic.
	r := NewReader()
	assert.Equal(t, "", r.ReadText([]byte("%PDF-1.7\n1 0 obj\n<<")))
}

func TestSniffImageMIME(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\nrest"), "image/png"},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, "image/jpeg"},
		{"tiff little endian", []byte("II*\x00data"), "image/tiff"},
		{"tiff big endian", []byte("MM\x00*data"), "image/tiff"},
		{"bmp", []byte("BMxxxx"), "image/bmp"},
		{"gif", []byte("GIF89a"), "image/gif"},
		{"unknown defaults to png", []byte("????"), "image/png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SniffImageMIME(tc.data))
		})
	}
}
