package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageImage is one rendered (or recovered) page of a PDF.
type PageImage struct {
	Data     []byte
	MIMEType string
}

type renderStage struct {
	name   string
	render func(ctx context.Context, data []byte) ([]PageImage, error)
}

// Renderer produces page-level raster images from a PDF through an ordered
// chain of backends. Rendering backends are frequently unavailable in
// constrained deployments, so every stage failure degrades to the next stage
// and an all-empty result is returned as an empty slice, not an error.
type Renderer struct {
	runner   Runner
	pdftoppm string
	dpi      int
	logger   *slog.Logger
	stages   []renderStage
}

func NewRenderer(pdftoppm string, dpi int, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 200
	}
	r := &Renderer{runner: execRunner{}, pdftoppm: pdftoppm, dpi: dpi, logger: logger}
	r.stages = []renderStage{
		{name: "pdftoppm", render: r.renderWithPdftoppm},
		{name: "mupdf", render: r.renderWithFitz},
		{name: "embedded", render: r.extractEmbeddedImages},
	}
	return r
}

// RenderPageImages tries each backend in order and returns the first
// non-empty page sequence. Callers must treat an empty result as
// "OCR the raw bytes instead", not as a failure.
func (r *Renderer) RenderPageImages(ctx context.Context, data []byte) []PageImage {
	for _, stage := range r.stages {
		images, err := stage.render(ctx, data)
		if err != nil {
			r.logger.Debug("pdf.render.stage_failed", "stage", stage.name, "error", err)
			continue
		}
		if len(images) > 0 {
			r.logger.Debug("pdf.render.ok", "stage", stage.name, "pages", len(images))
			return images
		}
	}
	return nil
}

func (r *Renderer) renderWithPdftoppm(ctx context.Context, data []byte) ([]PageImage, error) {
	tmpDir, err := os.MkdirTemp("", "vf-pp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.pdftoppm, "-r", fmt.Sprintf("%d", r.dpi), "-png", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)

	var images []PageImage
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil || len(b) == 0 {
			continue
		}
		images = append(images, PageImage{Data: b, MIMEType: "image/png"})
	}
	return images, nil
}

func (r *Renderer) renderWithFitz(_ context.Context, data []byte) (images []PageImage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			images, err = nil, fmt.Errorf("mupdf render panic: %v", rec)
		}
	}()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	for i := 0; i < doc.NumPage(); i++ {
		png, err := doc.ImagePNG(i, float64(r.dpi))
		if err != nil {
			continue
		}
		images = append(images, PageImage{Data: png, MIMEType: "image/png"})
	}
	return images, nil
}

// extractEmbeddedImages is the last resort: recover the largest raster image
// already embedded in each page of the PDF's object structure.
func (r *Renderer) extractEmbeddedImages(_ context.Context, data []byte) ([]PageImage, error) {
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	var images []PageImage
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		pageImages, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
		if err != nil {
			continue
		}
		var chosen []byte
		maxArea := -1
		for _, img := range pageImages {
			b, err := io.ReadAll(img)
			if err != nil || len(b) == 0 {
				continue
			}
			if area := pixelArea(b); area > maxArea {
				chosen, maxArea = b, area
			}
		}
		if chosen != nil {
			images = append(images, PageImage{Data: chosen, MIMEType: SniffImageMIME(chosen)})
		}
	}
	return images, nil
}

// pixelArea decodes just the image header for width*height; undecodable
// formats fall back to byte length so "largest" still has a winner.
func pixelArea(data []byte) int {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return len(data)
	}
	return cfg.Width * cfg.Height
}
