package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandConvertsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	writeSinglePagePDF(t, in, "1 1 1 rg 0 0 612 792 re f BT /F1 12 Tf (t) Tj ET")

	rootCmd.SetArgs([]string{in, "--mode", "vector"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert.FileExists(t, filepath.Join(dir, "doc_dark.pdf"))
}

func TestRootCommandRejectsMissingInput(t *testing.T) {
	rootCmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.pdf"), "--mode", "vector"})
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "2026-01-02", "abc1234")
	assert.Contains(t, rootCmd.Version, "1.2.3")
	assert.Contains(t, rootCmd.Version, "abc1234")
}

// writeSinglePagePDF builds a one-page PDF with a computed xref table.
func writeSinglePagePDF(t *testing.T, path, content string) {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	buf.WriteString("%PDF-1.4\n")
	add := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	add("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	add("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	add("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")
	add(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content))
	add("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, o := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", o)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
