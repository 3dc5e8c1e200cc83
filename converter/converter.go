package converter

import (
	"context"
	"fmt"

	"pdfdusk/converter/analysis"
	"pdfdusk/converter/hybrid"
	"pdfdusk/converter/pdfio"
	"pdfdusk/converter/raster"
	"pdfdusk/converter/tuning"
	"pdfdusk/converter/vector"
)

// Conversion modes accepted by Options.Mode.
const (
	// ModeAuto classifies each page and picks vector or raster per page.
	ModeAuto = "auto"
	// ModeVector rewrites color operators across the whole document.
	ModeVector = "vector"
	// ModeRaster renders every page to an image and inverts the pixels.
	ModeRaster = "raster"
)

// Sentinel errors surfaced by conversions. Callers test with errors.Is.
var (
	ErrCorruptDocument       = pdfio.ErrCorruptDocument
	ErrWriteFailure          = pdfio.ErrWriteFailure
	ErrMergeFailure          = pdfio.ErrMergeFailure
	ErrReconstructionFailure = vector.ErrReconstruction
	ErrRasterizationFailure  = raster.ErrRasterization
)

// ProgressFunc receives page-level progress while a conversion runs. It is
// invoked synchronously from the converting goroutine and must not block.
type ProgressFunc func(current, total int, message string)

// Options holds the configuration for one document conversion.
type Options struct {
	InputFile  string
	OutputFile string
	Mode       string         // "auto", "vector" or "raster"
	DPI        int            // render resolution for raster pages, 0 uses the tuning default
	Pages      string         // page selection like "1-3,7"; empty converts all pages
	Tuning     *tuning.Tuning // nil uses defaults
	Progress   ProgressFunc
}

// Converter is the contract shared by the conversion engines.
type Converter interface {
	Convert(ctx context.Context, input, output string) error
}

// Convert runs one document through the engine selected by opts.Mode.
func Convert(ctx context.Context, opts Options) error {
	tun := tuning.Default()
	if opts.Tuning != nil {
		tun = *opts.Tuning
	}
	if opts.DPI > 0 {
		tun.DPI = opts.DPI
	}

	selected, err := pdfio.ParsePageSelection(opts.Pages)
	if err != nil {
		return fmt.Errorf("invalid page selection %q: %w", opts.Pages, err)
	}

	var conv Converter
	switch opts.Mode {
	case ModeAuto, "":
		e := hybrid.NewEngine(tun)
		e.Selected = selected
		e.Progress = opts.Progress
		conv = e
	case ModeVector:
		e := vector.NewEngine()
		e.Selected = selected
		e.Progress = opts.Progress
		conv = e
	case ModeRaster:
		if selected == nil {
			e := raster.NewEngine(tun)
			e.Progress = opts.Progress
			conv = e
		} else {
			// Whole-page re-imaging cannot skip pages, so a partial
			// selection runs through the per-page orchestrator.
			e := hybrid.NewEngine(tun)
			e.Selected = selected
			e.Force = analysis.MethodImage
			e.Progress = opts.Progress
			conv = e
		}
	default:
		return fmt.Errorf("unknown mode: %s", opts.Mode)
	}

	return conv.Convert(ctx, opts.InputFile, opts.OutputFile)
}
