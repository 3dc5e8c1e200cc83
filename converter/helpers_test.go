package converter

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfdusk/converter/contentstream"
	"pdfdusk/converter/pdfio"
)

// writeTestPDF builds a minimal but well-formed PDF with one content stream
// per page and a computed xref table.
func writeTestPDF(t *testing.T, path string, pageContents []string) {
	t.Helper()

	n := len(pageContents)
	fontObj := 2*n + 3

	var kids strings.Builder
	for i := range pageContents {
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

	for i, content := range pageContents {
		add(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			2*i+3, fontObj, 2*i+4))
		add(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			2*i+4, len(content), content))
	}

	add(fmt.Sprintf("%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n", fontObj))

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
