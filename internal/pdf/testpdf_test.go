package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testPDF describes a one page document using the Helvetica core font as /F1,
// declared without a /Widths array.
type testPDF struct {
	content string
	pageBox string // MediaBox on the page
	treeBox string // MediaBox on the page tree root
}

func mediaBox(box string) string {
	if box == "" {
		return ""
	}
	return " /MediaBox " + box
}

// writeTestPDF writes the document with a classic xref table and returns its path
func writeTestPDF(t *testing.T, p testPDF) string {
	t.Helper()
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [3 0 R] /Count 1%s >>", mediaBox(p.treeBox)),
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>", mediaBox(p.pageBox)),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.content), p.content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func extractTestPDF(t *testing.T, p testPDF) []TextRun {
	t.Helper()
	parser, err := OpenPDFParser(writeTestPDF(t, p))
	require.NoError(t, err)
	defer parser.Close()
	require.Equal(t, 1, parser.NumPage())

	runs, err := parser.ExtractRuns(1)
	require.NoError(t, err)
	return runs
}
