package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfdusk/converter/contentstream"
	"pdfdusk/converter/logging"
	"pdfdusk/converter/pdfio"
)

// ErrReconstruction marks a content stream that could not be rebuilt. The
// page keeps its original streams when this happens.
var ErrReconstruction = errors.New("content stream reconstruction failed")

// Engine rewrites color operators across a whole document.
type Engine struct {
	// Selected limits processing to these pages; nil processes all.
	Selected *pdfio.PageSelection
	// Progress, when set, receives page-level progress updates.
	Progress func(current, total int, message string)
}

// NewEngine creates a vector conversion engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Convert rewrites the color operators of every selected page and writes the
// result to outputPath. Pages whose streams cannot be rewritten keep their
// original content.
func (e *Engine) Convert(ctx context.Context, inputPath, outputPath string) error {
	pdfCtx, err := pdfio.ReadDocument(inputPath)
	if err != nil {
		return err
	}

	transformed := 0
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Selected.Contains(pageNr) {
			continue
		}
		e.report(pageNr, pdfCtx.PageCount)

		count, err := e.RewritePage(pdfCtx, pageNr)
		if err != nil {
			logging.Logger.Warn("vector rewrite failed, page unchanged", "page", pageNr, "error", err)
			continue
		}
		transformed += count
	}
	logging.Logger.Debug("vector pass complete", "pages", pdfCtx.PageCount, "operations", transformed)

	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Progress != nil {
		e.Progress(pdfCtx.PageCount, pdfCtx.PageCount, "Saving converted PDF...")
	}
	return pdfio.WriteDocument(pdfCtx, outputPath)
}

// RewritePage inverts the color operators of a single page in place and
// returns the number of operations changed. On failure the page's streams
// are left untouched.
func (e *Engine) RewritePage(pdfCtx *model.Context, pageNr int) (int, error) {
	pageDict, _, _, err := pdfCtx.PageDict(pageNr, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get page dict: %w", err)
	}

	content, refs, err := contentstream.PageContent(pdfCtx, pageDict)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReconstruction, err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	ops, err := contentstream.Parse(content)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReconstruction, err)
	}

	newOps, changed := Transform(ops)
	if changed == 0 {
		return 0, nil
	}

	if err := contentstream.WritePageContent(pdfCtx, refs, contentstream.Serialize(newOps)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReconstruction, err)
	}
	return changed, nil
}

func (e *Engine) report(pageNr, total int) {
	if e.Progress == nil {
		return
	}
	percent := float64(pageNr) / float64(total) * 100
	e.Progress(pageNr, total, fmt.Sprintf("Processing page %d/%d (%.0f%%)", pageNr, total, percent))
}
