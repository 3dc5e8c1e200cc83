package hybrid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfdusk/converter/analysis"
	"pdfdusk/converter/logging"
	"pdfdusk/converter/pdfio"
	"pdfdusk/converter/raster"
	"pdfdusk/converter/tuning"
	"pdfdusk/converter/vector"
)

// pageState tracks how far a page has moved through the pipeline.
type pageState int

const (
	stateAnalyzed pageState = iota
	stateVectorAttempted
	stateRasterAttempted
	stateDone
	stateFailed
)

// page is one input page and its conversion fate. A failed page keeps its
// original content; the output always has the same page count as the input.
type page struct {
	nr     int
	method analysis.Method
	state  pageState
}

// Engine orchestrates per-page conversion. Every page is classified, vector
// pages are rewritten in place, raster pages are rendered and re-imported as
// images, and the results are reassembled in page order.
type Engine struct {
	tun tuning.Tuning

	// Selected limits processing to these pages; nil processes all.
	Selected *pdfio.PageSelection
	// Force overrides the analyzer's per-page decision when non-empty.
	Force analysis.Method
	// Progress, when set, receives page-level progress updates.
	Progress func(current, total int, message string)
}

// NewEngine creates a hybrid conversion engine.
func NewEngine(tun tuning.Tuning) *Engine {
	return &Engine{tun: tun}
}

// Convert processes one document. When no page needs rasterization the
// rewritten document is saved directly; otherwise the document is split,
// raster pages are replaced by inverted images and the pages are merged
// back in order.
func (e *Engine) Convert(ctx context.Context, inputPath, outputPath string) error {
	pdfCtx, err := pdfio.ReadDocument(inputPath)
	if err != nil {
		return err
	}
	total := pdfCtx.PageCount

	analyzer := analysis.NewAnalyzer(e.tun.ComplexityLimit)
	pages := make([]*page, 0, total)
	for nr := 1; nr <= total; nr++ {
		p := &page{nr: nr, state: stateAnalyzed}
		if !e.Selected.Contains(nr) {
			p.state = stateDone
		} else if e.Force != "" {
			p.method = e.Force
		} else {
			p.method = analyzer.AnalyzePage(pdfCtx, nr).Method
		}
		pages = append(pages, p)
	}

	vec := vector.NewEngine()
	for _, p := range pages {
		if p.state != stateAnalyzed {
			continue
		}
		if p.method != analysis.MethodVector && p.method != analysis.MethodHybrid {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.report(p.nr, total)

		count, err := vec.RewritePage(pdfCtx, p.nr)
		if err != nil {
			logging.Logger.Warn("vector rewrite failed", "page", p.nr, "error", err)
			if p.method == analysis.MethodVector {
				// No raster fallback was asked for; the page keeps its
				// original content.
				p.state = stateFailed
			} else {
				p.state = stateVectorAttempted
			}
			continue
		}
		logging.Logger.Debug("vector rewrite", "page", p.nr, "operations", count)
		p.state = stateDone
	}

	rasterCount := 0
	for _, p := range pages {
		if needsRaster(p) {
			rasterCount++
		}
	}
	if rasterCount == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Progress != nil {
			e.Progress(total, total, "Saving converted PDF...")
		}
		return pdfio.WriteDocument(pdfCtx, outputPath)
	}

	return e.rasterAndAssemble(ctx, pdfCtx, pages, outputPath)
}

// needsRaster reports whether a page still requires the image pipeline:
// either the analyzer asked for it outright or a hybrid page's vector pass
// failed.
func needsRaster(p *page) bool {
	if p.state == stateAnalyzed && p.method == analysis.MethodImage {
		return true
	}
	return p.state == stateVectorAttempted
}

// rasterAndAssemble snapshots the document with the vector rewrites applied,
// splits it into single-page files, replaces raster pages with inverted
// images and merges everything back in page order.
func (e *Engine) rasterAndAssemble(ctx context.Context, pdfCtx *model.Context, pages []*page, outputPath string) error {
	workDir, err := os.MkdirTemp("", "pdfdusk-hybrid-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	snapshot := filepath.Join(workDir, "document.pdf")
	if err := pdfio.WriteDocument(pdfCtx, snapshot); err != nil {
		return err
	}

	pagePaths, err := extractPages(snapshot, workDir, len(pages))
	if err != nil {
		return err
	}

	re := raster.NewEngine(e.tun)
	total := len(pages)
	for i, p := range pages {
		if !needsRaster(p) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.report(p.nr, total)

		p.state = stateRasterAttempted
		if err := re.ConvertPage(ctx, snapshot, pagePaths[i], p.nr); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The extracted page file still holds the original content.
			logging.Logger.Warn("raster conversion failed", "page", p.nr, "error", err)
			p.state = stateFailed
			continue
		}
		p.state = stateDone
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Progress != nil {
		e.Progress(total, total, "Saving converted PDF...")
	}

	merged := filepath.Join(workDir, "merged.pdf")
	if err := api.MergeCreateFile(pagePaths, merged, false, pdfio.Configuration()); err != nil {
		return fmt.Errorf("%w: reassembling pages: %v", pdfio.ErrMergeFailure, err)
	}
	return pdfio.ReplaceFile(merged, outputPath)
}

// extractPages splits the document into single-page files and returns their
// paths in page order. pdfcpu names the pieces {base}_page_{n}.pdf.
func extractPages(pdfPath, outDir string, total int) ([]string, error) {
	selection := make([]string, 0, total)
	for nr := 1; nr <= total; nr++ {
		selection = append(selection, strconv.Itoa(nr))
	}
	if err := api.ExtractPagesFile(pdfPath, outDir, selection, pdfio.Configuration()); err != nil {
		return nil, fmt.Errorf("failed to split pages: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	paths := make([]string, 0, total)
	for nr := 1; nr <= total; nr++ {
		path := filepath.Join(outDir, fmt.Sprintf("%s_page_%d.pdf", base, nr))
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("missing extracted page %d: %w", nr, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *Engine) report(pageNr, total int) {
	if e.Progress == nil {
		return
	}
	percent := float64(pageNr) / float64(total) * 100
	e.Progress(pageNr, total, fmt.Sprintf("Processing page %d/%d (%.0f%%)", pageNr, total, percent))
}
