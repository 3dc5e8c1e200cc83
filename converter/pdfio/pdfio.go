// Package pdfio holds the document-level plumbing shared by the conversion
// engines: reading and writing pdfcpu contexts, the failure taxonomy, and
// page selections.
package pdfio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Failure classes surfaced to callers. Page-level problems are recovered
// internally and never carry these.
var (
	// ErrCorruptDocument marks inputs that cannot be opened or parsed.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrWriteFailure marks outputs that cannot be written.
	ErrWriteFailure = errors.New("write failure")
	// ErrMergeFailure marks merges aborted because an input failed.
	ErrMergeFailure = errors.New("merge failure")
)

// Configuration returns the pdfcpu configuration used throughout: relaxed
// validation so that slightly out-of-spec documents still convert.
func Configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ReadDocument opens and parses a PDF and ensures its page count is known.
func ReadDocument(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, Configuration())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}
	return ctx, nil
}

// WriteDocument writes a context to path through a temporary file in the
// same directory, renamed into place only on success. A failed write leaves
// no output file behind.
func WriteDocument(ctx *model.Context, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfdusk-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	tmpPath := tmp.Name()

	if err := api.WriteContext(ctx, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return nil
}

// ReplaceFile moves src over dst, falling back to a copy when the rename
// crosses filesystems.
func ReplaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	os.Remove(src)
	return nil
}
