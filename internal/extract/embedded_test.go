package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/card-extractor/internal/cards"
)

var statementLines = []string{
	`***Card Detail\(s\)***`,
	"0000-0000-0000-1234 VISA",
	"0000-0000-0000-5678 MC",
	"",
	"Thank you",
}

// writeTextPDF writes a one-page PDF that places each line with a Td move,
// the way most producers lay out text. Lines must already be PDF-escaped;
// an empty line only advances the baseline.
func writeTextPDF(t *testing.T, dir string, lines []string) string {
	t.Helper()

	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, l := range lines {
		if i > 0 {
			content.WriteString("0 -14 Td\n")
		}
		if l != "" {
			fmt.Fprintf(&content, "(%s) Tj\n", l)
		}
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" +
			strings.TrimSpace(strings.Repeat("556 ", 95)) + "] >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	p := filepath.Join(dir, "statement.pdf")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestEmbeddedStrategy_Extract(t *testing.T) {
	p := writeTextPDF(t, t.TempDir(), statementLines)

	out, err := runStrategy(context.Background(), NewEmbeddedStrategy(), Document{Path: p})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pages)

	lines := strings.Split(out.Text, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "***Card Detail(s)***", lines[0])
	assert.Equal(t, "0000-0000-0000-1234 VISA", lines[1])
	assert.Equal(t, []string{"1234", "5678"}, cards.Parse(out.Text))
}

func TestFallbackStrategy_Extract(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not installed")
	}
	p := writeTextPDF(t, t.TempDir(), statementLines)

	out, err := runStrategy(context.Background(), NewFallbackStrategy(), Document{Path: p})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "0000-0000-0000-1234 VISA")
	assert.Equal(t, []string{"1234", "5678"}, cards.Parse(out.Text))
}

func TestPageLines(t *testing.T) {
	texts := []pdf.Text{
		{Y: 720, S: "a"}, {Y: 720, S: "b"},
		{Y: 706.2, S: "c"},
		{Y: 706, S: "d"},
		{Y: 692, S: "e"},
	}
	assert.Equal(t, "ab\ncd\ne", pageLines(texts))
	assert.Empty(t, pageLines(nil))
}
