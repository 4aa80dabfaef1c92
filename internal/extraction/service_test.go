package extraction

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifactura/invoice-extractor/constants"
	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/llm"
	"github.com/verifactura/invoice-extractor/internal/ocr"
	"github.com/verifactura/invoice-extractor/internal/pdfdoc"
)

type stubReader struct {
	text  string
	calls int
}

func (s *stubReader) ReadText([]byte) string {
	s.calls++
	return s.text
}

type stubRenderer struct {
	pages []pdfdoc.PageImage
	calls int
}

func (s *stubRenderer) RenderPageImages(context.Context, []byte) []pdfdoc.PageImage {
	s.calls++
	return s.pages
}

// stubRecognizer returns texts in sequence, one per call.
type stubRecognizer struct {
	texts []string
	err   error
	calls []string // content types seen
}

func (s *stubRecognizer) ExtractText(_ context.Context, _ []byte, contentType string) (string, error) {
	s.calls = append(s.calls, contentType)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.calls) - 1
	if i < len(s.texts) {
		return s.texts[i], nil
	}
	return "", nil
}

type stubResolver struct {
	recognizer ocr.TextRecognizer
	err        error
	overrides  []*ocr.Override
}

func (s *stubResolver) Resolve(override *ocr.Override) (ocr.TextRecognizer, error) {
	s.overrides = append(s.overrides, override)
	if s.err != nil {
		return nil, s.err
	}
	return s.recognizer, nil
}

// stubExtractor records what it was asked and echoes fixed fields.
type stubExtractor struct {
	fields map[string]any
	err    error

	gotText   string
	gotImages []llm.VisionImage
	gotOpts   llm.Options
	calls     int
}

func (s *stubExtractor) Extract(_ context.Context, text string, images []llm.VisionImage, opts llm.Options) (map[string]any, error) {
	s.calls++
	s.gotText, s.gotImages, s.gotOpts = text, images, opts
	if s.err != nil {
		return nil, s.err
	}
	if s.fields != nil {
		return s.fields, nil
	}
	return map[string]any{"MARCA": "FORD", "TOTAL": 17900.0}, nil
}

type fixture struct {
	reader     *stubReader
	renderer   *stubRenderer
	recognizer *stubRecognizer
	resolver   *stubResolver
	extractor  *stubExtractor
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reader:     &stubReader{},
		renderer:   &stubRenderer{},
		recognizer: &stubRecognizer{},
		extractor:  &stubExtractor{},
	}
	f.resolver = &stubResolver{recognizer: f.recognizer}
	f.svc = NewService(f.reader, f.renderer, f.resolver,
		map[string]llm.FieldExtractor{
			llm.ProviderOpenAI: f.extractor,
			llm.ProviderLocal:  f.extractor,
		}, 50000, 3, nil)
	return f
}

func pngPage(marker byte) pdfdoc.PageImage {
	return pdfdoc.PageImage{Data: []byte{marker}, MIMEType: "image/png"}
}

func TestExtractFromText(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ExtractFromText(context.Background(), "FACTURA N° 001-002-0034", Options{})
	require.NoError(t, err)
	assert.Equal(t, constants.OriginInput, res.TextOrigin)
	assert.Equal(t, "FACTURA N° 001-002-0034", res.RawText)
	assert.Equal(t, "FORD", res.Fields["MARCA"])
	assert.Empty(t, f.extractor.gotImages)
}

func TestExtractFromText_EmptyRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExtractFromText(context.Background(), "  \n\t ", Options{})
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidInput, common.KindOf(err))
	assert.Zero(t, f.extractor.calls)
}

func TestExtractFromText_LongTextTruncatedToFirstChunk(t *testing.T) {
	f := newFixture(t)
	f.svc.maxChars = 40

	text := "primer parrafo con los datos clave.\n\nsegundo parrafo que sobra y sobra"
	res, err := f.svc.ExtractFromText(context.Background(), text, Options{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(f.extractor.gotText), 40)
	assert.Contains(t, f.extractor.gotText, "primer parrafo")
	assert.Equal(t, f.extractor.gotText, res.RawText)
}

func TestExtractFromFile_TextNeverOCRd(t *testing.T) {
	f := newFixture(t)

	// Flags that would force OCR elsewhere are ignored for text inputs.
	res, err := f.svc.ExtractFromFile(context.Background(), "factura.txt",
		[]byte("MARCA: FORD\nTOTAL: 17900"), "text/plain",
		Options{ForceOCR: true, UseVision: true})
	require.NoError(t, err)

	assert.Equal(t, constants.OriginFile, res.TextOrigin)
	assert.Empty(t, f.resolver.overrides)
	assert.Zero(t, f.renderer.calls)
	assert.Empty(t, f.extractor.gotImages)
}

func TestExtractFromFile_XMLNeverOCRd(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.ExtractFromFile(context.Background(), "factura.xml",
		[]byte(`<factura><marca>FORD</marca></factura>`), "application/xml",
		Options{ForceOCR: true})
	require.NoError(t, err)
	assert.Equal(t, constants.OriginFile, res.TextOrigin)
	assert.Empty(t, f.resolver.overrides)
}

func TestExtractFromFile_InvalidUTF8Replaced(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExtractFromFile(context.Background(), "factura.txt",
		[]byte{'F', 'O', 0xff, 'R', 'D'}, "text/plain", Options{})
	require.NoError(t, err)
	assert.Contains(t, f.extractor.gotText, "�")
}

func TestExtractFromFile_PDFWithTextLayer(t *testing.T) {
	f := newFixture(t)
	f.reader.text = "FACTURA 001 MARCA FORD"

	res, err := f.svc.ExtractFromFile(context.Background(), "factura.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.NoError(t, err)

	assert.Equal(t, constants.OriginFile, res.TextOrigin)
	assert.Equal(t, "FACTURA 001 MARCA FORD", res.RawText)
	assert.Empty(t, f.resolver.overrides)
	assert.Zero(t, f.renderer.calls)
}

func TestExtractFromFile_PDFForceOCRSkipsTextLayer(t *testing.T) {
	f := newFixture(t)
	f.reader.text = "texto embebido que debe ignorarse"
	f.renderer.pages = []pdfdoc.PageImage{pngPage(1)}
	f.recognizer.texts = []string{"TEXTO RECONOCIDO"}

	res, err := f.svc.ExtractFromFile(context.Background(), "factura.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{ForceOCR: true})
	require.NoError(t, err)

	assert.Zero(t, f.reader.calls)
	assert.Equal(t, constants.OriginOCR, res.TextOrigin)
	assert.Equal(t, "TEXTO RECONOCIDO", res.RawText)
}

func TestExtractFromFile_ScannedPDFJoinsPages(t *testing.T) {
	f := newFixture(t)
	f.renderer.pages = []pdfdoc.PageImage{pngPage(1), pngPage(2), pngPage(3)}
	f.recognizer.texts = []string{"pagina uno", "   ", "pagina tres"}

	res, err := f.svc.ExtractFromFile(context.Background(), "escaneada.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.NoError(t, err)

	// Blank pages are dropped, the rest joined with a paragraph break.
	assert.Equal(t, "pagina uno\n\npagina tres", res.RawText)
	assert.Equal(t, constants.OriginOCR, res.TextOrigin)
}

func TestExtractFromFile_AllPagesBlankFallsBackToRawBytes(t *testing.T) {
	f := newFixture(t)
	f.renderer.pages = []pdfdoc.PageImage{pngPage(1)}
	f.recognizer.texts = []string{"", "TEXTO DESDE BYTES"}

	res, err := f.svc.ExtractFromFile(context.Background(), "escaneada.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.NoError(t, err)

	assert.Equal(t, "TEXTO DESDE BYTES", res.RawText)
	require.Len(t, f.recognizer.calls, 2)
	assert.Equal(t, "application/pdf", f.recognizer.calls[1])
}

func TestExtractFromFile_NothingRecognizedFails(t *testing.T) {
	f := newFixture(t)
	f.renderer.pages = nil
	f.recognizer.texts = []string{""}

	_, err := f.svc.ExtractFromFile(context.Background(), "vacia.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.Error(t, err)
	assert.Equal(t, common.KindOCRExtractionFailed, common.KindOf(err))
	assert.Zero(t, f.extractor.calls)
}

func TestExtractFromFile_PDFVisionCapped(t *testing.T) {
	f := newFixture(t)
	f.reader.text = "texto embebido"
	f.renderer.pages = []pdfdoc.PageImage{pngPage(1), pngPage(2), pngPage(3), pngPage(4), pngPage(5)}

	_, err := f.svc.ExtractFromFile(context.Background(), "factura.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{UseVision: true})
	require.NoError(t, err)
	assert.Len(t, f.extractor.gotImages, 3)
	assert.Equal(t, "image/png", f.extractor.gotImages[0].MediaType)
}

func TestExtractFromFile_ImageExtensionRoutesToImagePath(t *testing.T) {
	f := newFixture(t)
	f.recognizer.texts = []string{"TEXTO DE LA FOTO"}

	res, err := f.svc.ExtractFromFile(context.Background(), "factura.JPG",
		[]byte{0xff, 0xd8, 0xff}, "image/jpeg", Options{})
	require.NoError(t, err)

	assert.Equal(t, constants.OriginOCR, res.TextOrigin)
	// Image inputs always attach exactly the one uploaded image.
	require.Len(t, f.extractor.gotImages, 1)
	assert.Equal(t, "image/jpeg", f.extractor.gotImages[0].MediaType)
}

func TestExtractFromFile_UnknownExtensionUsesContentType(t *testing.T) {
	f := newFixture(t)
	f.reader.text = "texto embebido"

	res, err := f.svc.ExtractFromFile(context.Background(), "descarga.bin",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.NoError(t, err)
	assert.Equal(t, constants.OriginFile, res.TextOrigin)
}

func TestExtractFromFile_UnknownEverythingGoesToRawOCR(t *testing.T) {
	f := newFixture(t)
	f.recognizer.texts = []string{"TEXTO RECUPERADO"}

	res, err := f.svc.ExtractFromFile(context.Background(), "descarga.bin",
		[]byte{0x01, 0x02}, "application/octet-stream", Options{})
	require.NoError(t, err)
	assert.Equal(t, constants.OriginOCR, res.TextOrigin)
	assert.Equal(t, "TEXTO RECUPERADO", res.RawText)
}

func TestExtractFromImage_UnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExtractFromImage(context.Background(), "notas.docx",
		[]byte{0x50, 0x4b}, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Options{})
	require.Error(t, err)
	assert.Equal(t, common.KindUnsupportedImageFormat, common.KindOf(err))
}

func TestExtractFromImage_PDFGoesThroughRenderChain(t *testing.T) {
	f := newFixture(t)
	f.renderer.pages = []pdfdoc.PageImage{pngPage(1), pngPage(2)}
	f.recognizer.texts = []string{"uno", "dos"}

	res, err := f.svc.ExtractFromImage(context.Background(), "factura.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.NoError(t, err)

	assert.Equal(t, "uno\n\ndos", res.RawText)
	assert.Len(t, f.extractor.gotImages, 2)
}

func TestExtract_OCRNotConfiguredPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = common.Errorf(common.KindOCRNotConfigured, "no OCR configured")

	_, err := f.svc.ExtractFromFile(context.Background(), "factura.png",
		[]byte{0x89}, "image/png", Options{})
	require.Error(t, err)
	assert.Equal(t, common.KindOCRNotConfigured, common.KindOf(err))
}

func TestExtract_OCRFailureMapped(t *testing.T) {
	f := newFixture(t)
	f.recognizer.err = assert.AnError

	_, err := f.svc.ExtractFromFile(context.Background(), "factura.png",
		[]byte{0x89}, "image/png", Options{})
	require.Error(t, err)
	assert.Equal(t, common.KindOCRExtractionFailed, common.KindOf(err))
}

func TestExtract_OverrideForwardedToResolver(t *testing.T) {
	f := newFixture(t)
	f.recognizer.texts = []string{"texto"}
	override := &ocr.Override{Provider: "azure", Endpoint: "https://alt.example.com", Key: "k"}

	_, err := f.svc.ExtractFromFile(context.Background(), "factura.png",
		[]byte{0x89}, "image/png", Options{OCR: override})
	require.NoError(t, err)
	require.Len(t, f.resolver.overrides, 1)
	assert.Same(t, override, f.resolver.overrides[0])
}

func TestExtract_UnknownProviderRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ExtractFromText(context.Background(), "texto", Options{Provider: "anthropic"})
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidInput, common.KindOf(err))
}

func TestExtract_LLMOptionsForwarded(t *testing.T) {
	f := newFixture(t)
	temp := 0.3
	_, err := f.svc.ExtractFromText(context.Background(), "texto", Options{
		Provider: llm.ProviderLocal,
		LLM:      llm.Options{Model: "llama3", Temperature: &temp},
	})
	require.NoError(t, err)
	assert.Equal(t, "llama3", f.extractor.gotOpts.Model)
	require.NotNil(t, f.extractor.gotOpts.Temperature)
	assert.Equal(t, 0.3, *f.extractor.gotOpts.Temperature)
}

func TestExtract_EndToEndFields(t *testing.T) {
	f := newFixture(t)
	f.reader.text = strings.Join([]string{
		"FACTURA No. 001-002-000123",
		"MARCA: FORD",
		"TOTAL: 17.900,50",
	}, "\n")

	res, err := f.svc.ExtractFromFile(context.Background(), "factura.pdf",
		[]byte("%PDF-1.7"), "application/pdf", Options{})
	require.NoError(t, err)

	assert.Equal(t, "FORD", res.Fields["MARCA"])
	assert.EqualValues(t, 17900.0, res.Fields["TOTAL"])
	assert.Contains(t, f.extractor.gotText, "MARCA: FORD")
}
