package converter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfdusk/converter/contentstream"
)

const whitePage = "1 1 1 rg 0 0 612 792 re f BT /F1 12 Tf (Hello) Tj ET 0 g"

func TestConvertVectorMode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []string{whitePage})

	err := Convert(context.Background(), Options{
		InputFile:  in,
		OutputFile: out,
		Mode:       ModeVector,
	})
	require.NoError(t, err)

	content := readPageContent(t, out, 1)
	assert.Contains(t, content, "0 0 0 rg")
	assert.Contains(t, content, "1 g")
	assert.NotContains(t, content, "1 1 1 rg")
}

func TestConvertDefaultsToAuto(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []string{whitePage})

	err := Convert(context.Background(), Options{InputFile: in, OutputFile: out})
	require.NoError(t, err)

	assert.Contains(t, readPageContent(t, out, 1), "0 0 0 rg")
}

func TestConvertUnknownMode(t *testing.T) {
	err := Convert(context.Background(), Options{
		InputFile:  "in.pdf",
		OutputFile: "out.pdf",
		Mode:       "sepia",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestConvertInvalidPageSelection(t *testing.T) {
	err := Convert(context.Background(), Options{
		InputFile:  "in.pdf",
		OutputFile: "out.pdf",
		Pages:      "3-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page selection")
}

func TestConvertMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := Convert(context.Background(), Options{
		InputFile:  filepath.Join(dir, "missing.pdf"),
		OutputFile: filepath.Join(dir, "out.pdf"),
		Mode:       ModeVector,
	})
	require.ErrorIs(t, err, ErrCorruptDocument)
}

func TestConvertTwiceRestoresColors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	mid := filepath.Join(dir, "mid.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []string{"0.12 0.34 0.56 rg 0 0 100 100 re f"})

	opts := Options{InputFile: in, OutputFile: mid, Mode: ModeVector}
	require.NoError(t, Convert(context.Background(), opts))
	opts.InputFile, opts.OutputFile = mid, out
	require.NoError(t, Convert(context.Background(), opts))

	ops, err := contentstream.Parse([]byte(readPageContent(t, out, 1)))
	require.NoError(t, err)

	want := []float64{0.12, 0.34, 0.56}
	for _, op := range ops {
		if op.Operator != "rg" {
			continue
		}
		require.Len(t, op.Operands, 3)
		for i, operand := range op.Operands {
			v, err := contentstream.ParseNumber(operand)
			require.NoError(t, err)
			assert.InDelta(t, want[i], v, 1e-6)
		}
	}
}
