package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for extensions no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMalformed is returned when the bytes cannot be read as the declared format.
	ErrMalformed = errors.New("malformed document")
)

// Parser converts raw document bytes into plain text.
type Parser interface {
	Parse(r io.Reader) (string, error)
}

// SupportedExtensions lists file extensions this service can extract text from.
// Which of them are accepted for upload is decided by configuration.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// Extractor picks a parser by extension and runs it. Temporary files needed by
// the pdf and docx libraries are created under TempDir.
type Extractor struct {
	TempDir           string
	FallbackPdftotext bool
}

// Extract returns the plain text of data interpreted as ext (".pdf", "docx", ...).
func (e *Extractor) Extract(data []byte, ext string) (string, error) {
	p, err := e.ForExtension(ext)
	if err != nil {
		return "", err
	}
	return p.Parse(bytes.NewReader(data))
}

// ForExtension returns the parser for an extension, with or without the dot.
func (e *Extractor) ForExtension(ext string) (Parser, error) {
	ext = NormalizeExtension(ext)
	switch ext {
	case ".pdf":
		return &PDFParser{TempDir: e.TempDir, FallbackPdftotext: e.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{TempDir: e.TempDir}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsSupportedExtension reports whether some parser handles ext, given with or
// without the leading dot.
func IsSupportedExtension(ext string) bool {
	return SupportedExtensions[NormalizeExtension(ext)]
}
