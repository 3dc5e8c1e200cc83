package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"pdfdusk/converter/logging"
	"pdfdusk/converter/pdfio"
	"pdfdusk/converter/tuning"
)

// ErrRasterization reports that pages could not be rendered or rebuilt
// into a PDF.
var ErrRasterization = errors.New("rasterization failed")

// Engine converts a document by rendering every page to an image,
// inverting the pixels and rebuilding a PDF from the results. It handles
// any input the external renderer can open, at the cost of flattening
// text into images.
type Engine struct {
	dpi      int
	renderer *Renderer
	inverter *Inverter

	// Progress, when set, receives page-level progress updates.
	Progress func(current, total int, message string)
}

// NewEngine creates a raster conversion engine.
func NewEngine(tun tuning.Tuning) *Engine {
	return &Engine{
		dpi:      tun.DPI,
		renderer: NewRenderer(tun.DPI, tun.MaxRenderDim),
		inverter: NewInverter(tun),
	}
}

// Convert renders, inverts and reassembles the whole document.
func (e *Engine) Convert(ctx context.Context, inputPath, outputPath string) error {
	if e.Progress != nil {
		e.Progress(0, 0, "Converting PDF to images...")
	}
	logging.Logger.Debug("rendering pages", "input", inputPath, "dpi", e.dpi)
	images, err := e.renderer.RenderAll(ctx, inputPath)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "pdfdusk-pages-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	total := len(images)
	var imagePaths []string
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.report(i+1, total)
		inverted := e.inverter.InvertImage(img)
		path := filepath.Join(tempDir, fmt.Sprintf("page-%03d.png", i+1))
		if err := savePNG(path, inverted); err != nil {
			return fmt.Errorf("failed to save page %d: %w", i+1, err)
		}
		imagePaths = append(imagePaths, path)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Progress != nil {
		e.Progress(total, total, "Saving converted PDF...")
	}
	return e.writePDF(imagePaths, outputPath)
}

// ConvertPage renders and inverts a single page into a one-page PDF at
// outputPath.
func (e *Engine) ConvertPage(ctx context.Context, inputPath, outputPath string, pageNr int) error {
	img, err := e.renderer.RenderPage(ctx, inputPath, pageNr)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "pdfdusk-page-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	imagePath := filepath.Join(tempDir, "page-001.png")
	if err := savePNG(imagePath, e.inverter.InvertImage(img)); err != nil {
		return fmt.Errorf("failed to save page %d: %w", pageNr, err)
	}

	return e.writePDF([]string{imagePath}, outputPath)
}

// writePDF imports the images into a fresh PDF. The import goes to a temp
// file first so a failure leaves no partial output behind.
func (e *Engine) writePDF(imagePaths []string, outputPath string) error {
	imp := pdfcpu.DefaultImportConfig()
	imp.DPI = e.dpi

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".pdfdusk-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRasterization, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// ImportImagesFile appends to an existing target, so the file reserved
	// by CreateTemp has to go before the import runs.
	os.Remove(tmpPath)

	if err := api.ImportImagesFile(imagePaths, tmpPath, imp, nil); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: pdfcpu import: %v", ErrRasterization, err)
	}
	if err := pdfio.ReplaceFile(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (e *Engine) report(pageNr, total int) {
	if e.Progress == nil {
		return
	}
	percent := float64(pageNr) / float64(total) * 100
	e.Progress(pageNr, total, fmt.Sprintf("Processing page %d/%d (%.0f%%)", pageNr, total, percent))
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
