package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPDFParser_PagesInOrder(t *testing.T) {
	data := buildPDF(t, "Alpha page text", "Bravo page text", "Charlie page text")

	p := &PDFParser{TempDir: t.TempDir()}
	text, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := -1
	for _, want := range []string{"Alpha", "Bravo", "Charlie"} {
		idx := strings.Index(text, want)
		if idx < 0 {
			t.Fatalf("expected text to contain %q, got %q", want, text)
		}
		if idx < last {
			t.Errorf("expected %q after previous page, got %q", want, text)
		}
		last = idx
	}
	if strings.Contains(text, "\f") {
		t.Errorf("expected no page separator, got %q", text)
	}
}

func TestPDFParser_BlankPageContributesNothing(t *testing.T) {
	data := buildPDF(t, "Before blank", "", "After blank")

	p := &PDFParser{TempDir: t.TempDir()}
	text, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Before blank") || !strings.Contains(text, "After blank") {
		t.Errorf("expected text from both non-blank pages, got %q", text)
	}
}

func TestPDFParser_Malformed(t *testing.T) {
	dir := t.TempDir()
	p := &PDFParser{TempDir: dir}
	_, err := p.Parse(strings.NewReader("%PDF-1.4\nthis is not really a pdf"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestPDFParser_RemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	p := &PDFParser{TempDir: dir}
	if _, err := p.Parse(bytes.NewReader(buildPDF(t, "Temp cleanup"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestPDFParser_EmbeddedFontNonLatinText(t *testing.T) {
	lines := []string{"Рост выручки", "Ελληνικά", "Ærøskøbing ÿ Łódź"}
	data := buildUTF8PDF(t, lines...)

	p := &PDFParser{TempDir: t.TempDir()}
	text, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range lines {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q, got %q", want, text)
		}
	}
}
