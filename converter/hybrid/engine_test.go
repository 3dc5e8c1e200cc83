package hybrid

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfdusk/converter/contentstream"
	"pdfdusk/converter/pdfio"
	"pdfdusk/converter/tuning"
)

const whitePageContent = "1 1 1 rg 0 0 612 792 re f BT /F1 12 Tf (Hello) Tj ET 0 g"

func TestConvertTextPagesStayVector(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{{content: whitePageContent}})

	e := NewEngine(tuning.Default())
	require.NoError(t, e.Convert(context.Background(), in, out))

	content := readPageContent(t, out, 1)
	assert.Contains(t, content, "0 0 0 rg")
	assert.NotContains(t, content, "1 1 1 rg")
	assert.Contains(t, content, "1 g")
	assert.Contains(t, content, "(Hello) Tj", "text must survive a vector pass")
}

func TestConvertForcedVectorMultiPage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{
		{content: "0.75 0.75 0.75 rg 0 0 612 792 re f"},
		{content: "0.25 0.25 0.25 RG 10 10 m 100 100 l S"},
	})

	e := NewEngine(tuning.Default())
	e.Force = "vector"
	require.NoError(t, e.Convert(context.Background(), in, out))

	count, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Contains(t, readPageContent(t, out, 1), "0.25 0.25 0.25 rg")
	assert.Contains(t, readPageContent(t, out, 2), "0.75 0.75 0.75 RG")
}

func TestConvertImagePageKeepsPageCount(t *testing.T) {
	// A page with an XObject goes down the raster path. Whether the
	// external renderer exists or not, the output must keep one page: on
	// renderer failure the original page is carried through.
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{{content: whitePageContent, xobject: true}})

	e := NewEngine(tuning.Default())
	require.NoError(t, e.Convert(context.Background(), in, out))

	count, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConvertMixedDocumentKeepsPageOrder(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{
		{content: whitePageContent},
		{content: whitePageContent, xobject: true},
		{content: whitePageContent},
	})

	e := NewEngine(tuning.Default())
	require.NoError(t, e.Convert(context.Background(), in, out))

	count, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Pages 1 and 3 classified vector and were rewritten in place.
	assert.Contains(t, readPageContent(t, out, 1), "0 0 0 rg")
	assert.Contains(t, readPageContent(t, out, 3), "0 0 0 rg")
}

func TestConvertSelectionSkipsPages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{
		{content: whitePageContent},
		{content: whitePageContent},
	})

	sel, err := pdfio.ParsePageSelection("2")
	require.NoError(t, err)

	e := NewEngine(tuning.Default())
	e.Selected = sel
	require.NoError(t, e.Convert(context.Background(), in, out))

	assert.Contains(t, readPageContent(t, out, 1), "1 1 1 rg", "unselected page stays untouched")
	assert.Contains(t, readPageContent(t, out, 2), "0 0 0 rg")
}

func TestConvertCancelledLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{{content: whitePageContent}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(tuning.Default())
	err := e.Convert(ctx, in, out)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "cancelled conversion must not leave an output file")
}

func TestConvertReportsProgress(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	writeTestPDF(t, in, []testPage{{content: whitePageContent}})

	var messages []string
	e := NewEngine(tuning.Default())
	e.Progress = func(current, total int, message string) {
		messages = append(messages, message)
	}
	require.NoError(t, e.Convert(context.Background(), in, out))

	require.NotEmpty(t, messages)
	assert.Equal(t, "Processing page 1/1 (100%)", messages[0])
	assert.Equal(t, "Saving converted PDF...", messages[len(messages)-1])
}

// testPage describes one page of a generated fixture document.
type testPage struct {
	content string
	xobject bool
}

// writeTestPDF builds a minimal but well-formed PDF with one content stream
// per page and a computed xref table.
func writeTestPDF(t *testing.T, path string, pages []testPage) {
	t.Helper()

	n := len(pages)
	fontObj := 2*n + 3
	formObj := 2*n + 4

	var kids strings.Builder
	for i := range pages {
		if i > 0 {
			kids.WriteString(" ")
		}
		fmt.Fprintf(&kids, "%d 0 R", 2*i+3)
	}

	var buf bytes.Buffer
	var offsets []int
	buf.WriteString("%PDF-1.4\n")
	add := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	add("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	add(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids.String(), n))

	for i, p := range pages {
		res := fmt.Sprintf("<< /Font << /F1 %d 0 R >> >>", fontObj)
		if p.xobject {
			res = fmt.Sprintf("<< /Font << /F1 %d 0 R >> /XObject << /Fm1 %d 0 R >> >>", fontObj, formObj)
		}
		add(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources %s /Contents %d 0 R >>\nendobj\n",
			2*i+3, res, 2*i+4))
		add(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			2*i+4, len(p.content), p.content))
	}

	add(fmt.Sprintf("%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n", fontObj))
	formContent := "0 0 10 10 re f"
	add(fmt.Sprintf("%d 0 obj\n<< /Type /XObject /Subtype /Form /BBox [0 0 10 10] /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		formObj, len(formContent), formContent))

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, o := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", o)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func readPageContent(t *testing.T, path string, pageNr int) string {
	t.Helper()
	pdfCtx, err := pdfio.ReadDocument(path)
	require.NoError(t, err)
	pageDict, _, _, err := pdfCtx.PageDict(pageNr, false)
	require.NoError(t, err)
	content, _, err := contentstream.PageContent(pdfCtx, pageDict)
	require.NoError(t, err)
	return string(content)
}
