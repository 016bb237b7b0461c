package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDOCXParser_ParagraphsJoinedByNewline(t *testing.T) {
	data := buildDOCX(t, "First paragraph.", "Second paragraph.", "Third paragraph.")

	p := &DOCXParser{TempDir: t.TempDir()}
	text, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "First paragraph.\nSecond paragraph.\nThird paragraph."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestDOCXParser_EmptyParagraphKeepsLine(t *testing.T) {
	data := buildDOCX(t, "Above", "", "Below")

	p := &DOCXParser{TempDir: t.TempDir()}
	text, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Above\n\nBelow" {
		t.Errorf("expected empty paragraph preserved, got %q", text)
	}
}

func TestDOCXParser_HyperlinkTextKept(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	para := doc.AddParagraph()
	para.AddText("See ")
	para.AddLink("the quarterly report", "https://example.com/q3")
	para.AddText(" for details.")
	doc.AddParagraph().AddText("Next paragraph.")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("build docx: %v", err)
	}

	p := &DOCXParser{TempDir: t.TempDir()}
	text, err := p.Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "See the quarterly report for details.\nNext paragraph."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestDOCXParser_Malformed(t *testing.T) {
	dir := t.TempDir()
	p := &DOCXParser{TempDir: dir}
	_, err := p.Parse(strings.NewReader("PK definitely not a zip archive"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestDOCXParser_RemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	p := &DOCXParser{TempDir: dir}
	if _, err := p.Parse(bytes.NewReader(buildDOCX(t, "Temp cleanup"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDirEmpty(t, dir)
}
