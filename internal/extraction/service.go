package extraction

import (
	"context"
	"encoding/base64"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/verifactura/invoice-extractor/constants"
	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/llm"
	"github.com/verifactura/invoice-extractor/internal/ocr"
	"github.com/verifactura/invoice-extractor/internal/pdfdoc"
)

// PDFReader extracts the embedded text layer of a PDF, "" when there is none.
type PDFReader interface {
	ReadText(data []byte) string
}

// PDFRenderer turns PDF bytes into page images, empty when no backend could.
type PDFRenderer interface {
	RenderPageImages(ctx context.Context, data []byte) []pdfdoc.PageImage
}

// OCRResolver hands out an OCR client for a request-level override.
type OCRResolver interface {
	Resolve(override *ocr.Override) (ocr.TextRecognizer, error)
}

// Service routes an input (raw text, file bytes, image bytes) to the right
// text source and then to an LLM backend.
type Service struct {
	reader     PDFReader
	renderer   PDFRenderer
	ocr        OCRResolver
	extractors map[string]llm.FieldExtractor

	maxChars  int
	maxImages int
	logger    *slog.Logger
}

func NewService(reader PDFReader, renderer PDFRenderer, resolver OCRResolver, extractors map[string]llm.FieldExtractor, maxChars, maxImages int, logger *slog.Logger) *Service {
	if maxChars <= 0 {
		maxChars = 50000
	}
	if maxImages <= 0 {
		maxImages = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		reader:     reader,
		renderer:   renderer,
		ocr:        resolver,
		extractors: extractors,
		maxChars:   maxChars,
		maxImages:  maxImages,
		logger:     logger,
	}
}

// ExtractFromText runs extraction over caller-supplied text.
func (s *Service) ExtractFromText(ctx context.Context, text string, opts Options) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.Errorf(common.KindInvalidInput, "text is empty")
	}
	return s.complete(ctx, text, nil, constants.OriginInput, opts)
}

// ExtractFromFile routes a document by its extension, falling back to the
// declared content type, then to raw OCR.
func (s *Service) ExtractFromFile(ctx context.Context, filename string, data []byte, contentType string, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, common.Errorf(common.KindInvalidInput, "file %q is empty", filename)
	}

	format := routeFormat(filename, contentType)
	s.logger.Info("extract.file.routed",
		"filename", filename, "format", string(format),
		"content_type", contentType, "force_ocr", opts.ForceOCR, "use_vision", opts.UseVision)

	switch format {
	case constants.Image:
		return s.ExtractFromImage(ctx, filename, data, contentType, opts)
	case constants.PDF:
		return s.extractFromPDF(ctx, filename, data, opts)
	case constants.Text, constants.XML:
		// Machine-readable formats are decoded directly. OCR and vision
		// flags do not apply here.
		text := strings.ToValidUTF8(string(data), "�")
		if strings.TrimSpace(text) == "" {
			return nil, common.Errorf(common.KindInvalidInput, "file %q contains no text", filename)
		}
		return s.complete(ctx, text, nil, constants.OriginFile, opts)
	default:
		text, err := s.recognize(ctx, opts.OCR, data, contentType)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, common.Errorf(common.KindOCRExtractionFailed,
				"OCR produced no text for %q", filename)
		}
		return s.complete(ctx, text, nil, constants.OriginOCR, opts)
	}
}

// ExtractFromImage runs the image path: OCR plus vision, always. PDFs are
// accepted here too and go through the page render chain first.
func (s *Service) ExtractFromImage(ctx context.Context, filename string, data []byte, contentType string, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, common.Errorf(common.KindInvalidInput, "file %q is empty", filename)
	}

	format := routeFormat(filename, contentType)
	switch format {
	case constants.Image:
		mime := contentType
		if !strings.HasPrefix(mime, "image/") {
			mime = pdfdoc.SniffImageMIME(data)
		}
		text, err := s.recognize(ctx, opts.OCR, data, mime)
		if err != nil {
			return nil, err
		}
		images := []llm.VisionImage{encodeImage(pdfdoc.PageImage{Data: data, MIMEType: mime})}
		return s.complete(ctx, text, images, constants.OriginOCR, opts)

	case constants.PDF:
		pages := s.renderer.RenderPageImages(ctx, data)
		if len(pages) == 0 {
			return nil, common.Errorf(common.KindOCRExtractionFailed,
				"no page of %q could be rendered for recognition", filename)
		}
		text, err := s.recognizePages(ctx, opts.OCR, pages)
		if err != nil {
			return nil, err
		}
		return s.complete(ctx, text, encodePages(pages, s.maxImages), constants.OriginOCR, opts)

	default:
		return nil, common.Errorf(common.KindUnsupportedImageFormat,
			"file %q (%s) is not a supported image format", filename, contentType)
	}
}

// extractFromPDF prefers the embedded text layer and degrades to page
// rendering plus OCR, then to OCR over the raw bytes.
func (s *Service) extractFromPDF(ctx context.Context, filename string, data []byte, opts Options) (*Result, error) {
	var text string
	if !opts.ForceOCR {
		text = s.reader.ReadText(data)
	}

	if strings.TrimSpace(text) != "" {
		var images []llm.VisionImage
		if opts.UseVision {
			// Best effort. A text-bearing PDF stays usable without pages.
			images = encodePages(s.renderer.RenderPageImages(ctx, data), s.maxImages)
		}
		return s.complete(ctx, text, images, constants.OriginFile, opts)
	}

	pages := s.renderer.RenderPageImages(ctx, data)
	if len(pages) > 0 {
		recognized, err := s.recognizePages(ctx, opts.OCR, pages)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(recognized) != "" {
			var images []llm.VisionImage
			if opts.UseVision {
				images = encodePages(pages, s.maxImages)
			}
			return s.complete(ctx, recognized, images, constants.OriginOCR, opts)
		}
	}

	// No renderable pages, or every page came back blank: hand the raw
	// bytes to the OCR service, which accepts PDFs directly.
	recognized, err := s.recognize(ctx, opts.OCR, data, "application/pdf")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(recognized) == "" {
		return nil, common.Errorf(common.KindOCRExtractionFailed,
			"no text could be recognized in %q", filename)
	}
	return s.complete(ctx, recognized, nil, constants.OriginOCR, opts)
}

// complete chunks the text, runs the selected backend, and assembles the
// result with provenance.
func (s *Service) complete(ctx context.Context, text string, images []llm.VisionImage, origin constants.TextOrigin, opts Options) (*Result, error) {
	chunks := pdfdoc.ChunkText(text, s.maxChars)
	prompt := text
	if len(chunks) > 0 {
		prompt = chunks[0]
	}
	if len(chunks) > 1 {
		s.logger.Warn("extract.text.truncated",
			"chunks", len(chunks), "kept_chars", len(prompt), "total_chars", len(text))
	}

	extractor, err := s.extractor(opts.Provider)
	if err != nil {
		return nil, err
	}

	fields, err := extractor.Extract(ctx, prompt, images, opts.LLM)
	if err != nil {
		return nil, err
	}
	return &Result{Fields: fields, RawText: prompt, TextOrigin: origin}, nil
}

func (s *Service) extractor(provider string) (llm.FieldExtractor, error) {
	if provider == "" {
		provider = llm.ProviderOpenAI
	}
	extractor, ok := s.extractors[provider]
	if !ok {
		return nil, common.Errorf(common.KindInvalidInput, "unknown LLM provider %q", provider)
	}
	return extractor, nil
}

// recognize resolves an OCR client and runs it, mapping foreign failures to
// the OCR error kind.
func (s *Service) recognize(ctx context.Context, override *ocr.Override, data []byte, contentType string) (string, error) {
	client, err := s.ocr.Resolve(override)
	if err != nil {
		return "", err
	}
	text, err := client.ExtractText(ctx, data, contentType)
	if err != nil {
		if common.KindOf(err) != common.KindInternal {
			return "", err
		}
		return "", common.NewError(common.KindOCRExtractionFailed, "text recognition failed", err)
	}
	return text, nil
}

// recognizePages OCRs every rendered page and joins the non-empty results.
func (s *Service) recognizePages(ctx context.Context, override *ocr.Override, pages []pdfdoc.PageImage) (string, error) {
	client, err := s.ocr.Resolve(override)
	if err != nil {
		return "", err
	}
	var parts []string
	for i, page := range pages {
		text, err := client.ExtractText(ctx, page.Data, page.MIMEType)
		if err != nil {
			if common.KindOf(err) != common.KindInternal {
				return "", err
			}
			return "", common.NewError(common.KindOCRExtractionFailed, "text recognition failed", err)
		}
		if strings.TrimSpace(text) == "" {
			s.logger.Debug("extract.ocr.page_empty", "page", i+1)
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// routeFormat resolves the routing format from the filename extension,
// falling back to the declared content type.
func routeFormat(filename, contentType string) constants.Format {
	format := constants.MapExtToFormat(constants.NormalizeExt(filepath.Ext(filename)))
	if format != constants.Unknown {
		return format
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return constants.PDF
	case strings.HasPrefix(ct, "image/"):
		return constants.Image
	case ct == "application/json", strings.HasPrefix(ct, "text/plain"), ct == "text/csv":
		return constants.Text
	case ct == "application/xml", ct == "text/xml":
		return constants.XML
	default:
		return constants.Unknown
	}
}

func encodePages(pages []pdfdoc.PageImage, max int) []llm.VisionImage {
	if len(pages) == 0 {
		return nil
	}
	if len(pages) > max {
		pages = pages[:max]
	}
	images := make([]llm.VisionImage, 0, len(pages))
	for _, p := range pages {
		images = append(images, encodeImage(p))
	}
	return images
}

func encodeImage(p pdfdoc.PageImage) llm.VisionImage {
	return llm.VisionImage{
		MediaType: p.MIMEType,
		Data:      base64.StdEncoding.EncodeToString(p.Data),
	}
}
