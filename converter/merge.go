package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"pdfdusk/converter/logging"
	"pdfdusk/converter/pdfio"
)

// Merger concatenates PDF documents in input order.
type Merger struct {
	// Progress, when set, receives per-file progress updates.
	Progress ProgressFunc
}

// NewMerger creates a Merger.
func NewMerger() *Merger {
	return &Merger{}
}

// Merge is a convenience wrapper for merging without progress reporting.
func Merge(ctx context.Context, inputs []string, output string) error {
	return NewMerger().Merge(ctx, inputs, output)
}

// Merge validates that every input opens before writing anything, then
// concatenates the inputs into output. The merged document goes to a temp
// file first; a failure at any point leaves no output file behind.
func (m *Merger) Merge(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no input files", ErrMergeFailure)
	}

	total := len(inputs)
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.report(i+1, total)
		count, err := api.PageCountFile(input)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, input, err)
		}
		logging.Logger.Debug("merge input", "file", input, "pages", count)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Progress != nil {
		m.Progress(total, total, "Saving merged PDF...")
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".pdfdusk-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMergeFailure, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := api.MergeCreateFile(inputs, tmpPath, false, pdfio.Configuration()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrMergeFailure, err)
	}
	if err := pdfio.ReplaceFile(tmpPath, output); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (m *Merger) report(fileNr, total int) {
	if m.Progress == nil {
		return
	}
	percent := float64(fileNr) / float64(total) * 100
	m.Progress(fileNr, total, fmt.Sprintf("Merging file %d/%d (%.0f%%)", fileNr, total, percent))
}
