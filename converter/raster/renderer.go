package raster

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"pdfdusk/converter/logging"
)

// Renderer rasterizes PDF pages to images through an external tool. It
// tries pdftoppm first, then pdftocairo, then mutool.
type Renderer struct {
	dpi    int
	maxDim int
}

// NewRenderer creates a Renderer with the given DPI. Rendered pages larger
// than maxDim pixels on either side are scaled down before inversion.
func NewRenderer(dpi, maxDim int) *Renderer {
	return &Renderer{dpi: dpi, maxDim: maxDim}
}

// RenderAll rasterizes every page of the PDF, in page order.
func (r *Renderer) RenderAll(ctx context.Context, pdfPath string) ([]image.Image, error) {
	return r.render(ctx, pdfPath, 0, 0)
}

// RenderPage rasterizes a single page.
func (r *Renderer) RenderPage(ctx context.Context, pdfPath string, pageNr int) (image.Image, error) {
	images, err := r.render(ctx, pdfPath, pageNr, pageNr)
	if err != nil {
		return nil, err
	}
	if len(images) != 1 {
		return nil, fmt.Errorf("expected 1 rendered page, got %d", len(images))
	}
	return images[0], nil
}

// render runs the tool chain. A first/last of 0 renders the whole document.
func (r *Renderer) render(ctx context.Context, pdfPath string, first, last int) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "pdfdusk-render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	for _, tool := range []string{"pdftoppm", "pdftocairo"} {
		images, err := r.renderWithPoppler(ctx, tool, pdfPath, tempDir, first, last)
		if err == nil {
			return images, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Logger.Debug("renderer unavailable", "tool", tool, "error", err)
		clearRendered(tempDir)
	}

	images, err := r.renderWithMutool(ctx, pdfPath, tempDir, first, last)
	if err == nil {
		return images, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logging.Logger.Debug("renderer unavailable", "tool", "mutool", "error", err)

	return nil, fmt.Errorf("%w: no PDF renderer found. Install poppler-utils:\n  macOS: brew install poppler\n  Ubuntu: sudo apt install poppler-utils\nor mupdf-tools for mutool", ErrRasterization)
}

// renderWithPoppler drives pdftoppm or pdftocairo, which share a CLI.
func (r *Renderer) renderWithPoppler(ctx context.Context, tool, pdfPath, tempDir string, first, last int) ([]image.Image, error) {
	if _, err := exec.LookPath(tool); err != nil {
		return nil, fmt.Errorf("%s not found: %w", tool, err)
	}

	args := []string{"-png", "-r", strconv.Itoa(r.dpi)}
	if first > 0 {
		args = append(args, "-f", strconv.Itoa(first), "-l", strconv.Itoa(last))
	}
	args = append(args, pdfPath, filepath.Join(tempDir, "page"))

	cmd := exec.CommandContext(ctx, tool, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s failed: %w\nOutput: %s", tool, err, string(output))
	}

	return r.loadImagesFromDir(tempDir)
}

// renderWithMutool drives mupdf's mutool convert.
func (r *Renderer) renderWithMutool(ctx context.Context, pdfPath, tempDir string, first, last int) ([]image.Image, error) {
	if _, err := exec.LookPath("mutool"); err != nil {
		return nil, fmt.Errorf("mutool not found: %w", err)
	}

	args := []string{
		"convert",
		"-F", "png",
		"-O", fmt.Sprintf("resolution=%d", r.dpi),
		"-o", filepath.Join(tempDir, "page-%d.png"),
		pdfPath,
	}
	if first > 0 {
		args = append(args, fmt.Sprintf("%d-%d", first, last))
	}

	cmd := exec.CommandContext(ctx, "mutool", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("mutool failed: %w\nOutput: %s", err, string(output))
	}

	return r.loadImagesFromDir(tempDir)
}

// loadImagesFromDir loads the rendered PNGs in page order.
func (r *Renderer) loadImagesFromDir(dir string) ([]image.Image, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob images: %w", err)
	}

	if len(matches) == 0 {
		// Some poppler versions drop the dash in the output names.
		matches, err = filepath.Glob(filepath.Join(dir, "page*.png"))
		if err != nil || len(matches) == 0 {
			return nil, fmt.Errorf("no rendered images found")
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return extractPageNumber(matches[i]) < extractPageNumber(matches[j])
	})

	var images []image.Image
	for _, path := range matches {
		img, err := loadPNG(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", path, err)
		}
		images = append(images, r.capSize(img))
	}

	return images, nil
}

// capSize scales an image down so neither side exceeds maxDim.
func (r *Renderer) capSize(img image.Image) image.Image {
	if r.maxDim <= 0 {
		return img
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= r.maxDim && h <= r.maxDim {
		return img
	}

	scale := float64(r.maxDim) / float64(w)
	if h > w {
		scale = float64(r.maxDim) / float64(h)
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// clearRendered drops the output of a failed attempt so the next tool's
// pages cannot mix with it.
func clearRendered(dir string) {
	matches, _ := filepath.Glob(filepath.Join(dir, "page*.png"))
	for _, m := range matches {
		os.Remove(m)
	}
}

// extractPageNumber pulls the page number out of a name like "page-01.png".
func extractPageNumber(filename string) int {
	base := filepath.Base(filename)
	base = strings.TrimPrefix(base, "page-")
	base = strings.TrimPrefix(base, "page")
	base = strings.TrimSuffix(base, ".png")
	num, _ := strconv.Atoi(base)
	return num
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return png.Decode(f)
}
