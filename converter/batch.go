package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pdfdusk/converter/logging"
	"pdfdusk/converter/tuning"
)

// BatchOptions configures a multi-document conversion.
type BatchOptions struct {
	InputFiles []string
	OutputDir  string // converted files land here as {stem}_dark.pdf
	Mode       string
	DPI        int
	Pages      string
	Tuning     *tuning.Tuning
	Jobs       int    // parallel workers, at most one per input; <1 means 1
	MergeInto  string // when set, merge the successful outputs into this file
	Progress   ProgressFunc
}

// BatchResult reports the outcome for one input document.
type BatchResult struct {
	Input  string
	Output string
	Err    error
}

type batchResult struct {
	index  int
	result BatchResult
}

// OutputName derives the converted filename for an input: report.pdf
// becomes report_dark.pdf.
func OutputName(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_dark.pdf"
}

// ConvertAll converts every input into opts.OutputDir across a bounded
// worker pool, one worker per document. The batch continues past individual
// failures; results come back in input order. When MergeInto is set the
// successful outputs are merged afterwards, in input order.
func ConvertAll(ctx context.Context, opts BatchOptions) ([]BatchResult, error) {
	n := len(opts.InputFiles)
	if n == 0 {
		return nil, fmt.Errorf("no input files")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	workers := opts.Jobs
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	indices := make(chan int, n)
	results := make(chan batchResult, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				input := opts.InputFiles[i]
				output := filepath.Join(opts.OutputDir, OutputName(input))
				err := Convert(ctx, Options{
					InputFile:  input,
					OutputFile: output,
					Mode:       opts.Mode,
					DPI:        opts.DPI,
					Pages:      opts.Pages,
					Tuning:     opts.Tuning,
					Progress:   opts.Progress,
				})
				if err != nil {
					logging.Logger.Warn("conversion failed", "input", input, "error", err)
				} else {
					logging.Logger.Debug("converted", "input", input, "output", output)
				}
				results <- batchResult{index: i, result: BatchResult{Input: input, Output: output, Err: err}}
			}
		}()
	}

	go func() {
		for i := 0; i < n; i++ {
			indices <- i
		}
		close(indices)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]BatchResult, n)
	for r := range results {
		ordered[r.index] = r.result
	}

	if err := ctx.Err(); err != nil {
		return ordered, err
	}

	if opts.MergeInto != "" {
		var succeeded []string
		for _, r := range ordered {
			if r.Err == nil {
				succeeded = append(succeeded, r.Output)
			}
		}
		if len(succeeded) == 0 {
			return ordered, fmt.Errorf("%w: no documents converted successfully", ErrMergeFailure)
		}
		m := NewMerger()
		m.Progress = opts.Progress
		if err := m.Merge(ctx, succeeded, opts.MergeInto); err != nil {
			return ordered, err
		}
	}

	return ordered, nil
}
