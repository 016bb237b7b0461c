package parser

import (
	"bytes"
	"os"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/go-pdf/fpdf"
)

// buildPDF writes one page per entry; an empty entry yields a page with no text.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		pdf.AddPage()
		if text != "" {
			pdf.Text(40, 60, text)
		}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

// buildUTF8PDF writes each line with an embedded TrueType font, so text is
// stored as two-byte glyph codes behind an Identity-H ToUnicode CMap.
func buildUTF8PDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	font, err := os.ReadFile("../report/fonts/DejaVuSansCondensed.ttf")
	if err != nil {
		t.Fatalf("read font: %v", err)
	}
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddUTF8FontFromBytes("DejaVu", "", font)
	pdf.SetFont("DejaVu", "", 12)
	pdf.AddPage()
	for i, line := range lines {
		pdf.Text(40, 60+float64(i)*20, line)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	doc := docx.New().WithDefaultTheme()
	for _, p := range paragraphs {
		doc.AddParagraph().AddText(p)
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("build docx: %v", err)
	}
	return buf.Bytes()
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temp dir to be empty, found %d entries", len(entries))
	}
}
