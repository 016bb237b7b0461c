// Package report turns summary text into a downloadable PDF document.
package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/sfnt"
)

var (
	// ErrRender wraps every failure to produce a document.
	ErrRender = errors.New("render pdf")
	// ErrUnsupportedGlyph is returned, wrapped in ErrRender, when the summary
	// holds characters the report font has no glyph for.
	ErrUnsupportedGlyph = errors.New("characters not covered by report font")
)

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

const (
	marginLeft   = 40.0
	marginTop    = 42.0 // first baseline sits near y=750 on a 792pt page
	marginRight  = 40.0
	marginBottom = 42.0

	// tabWidth is the number of spaces a tab expands to.
	tabWidth = 4
	// maxReported caps how many missing characters an error lists.
	maxReported = 5
)

// Options control the page layout.
type Options struct {
	// FontFamily names the embedded font inside the document.
	FontFamily string
	// Font is a TrueType font used for all text. Nil selects the bundled
	// DejaVu Sans Condensed.
	Font       []byte
	FontSize   float64
	LineHeight float64
	Title      string
	// Timestamp is written as the creation date. A fixed value makes the
	// output byte-for-byte reproducible.
	Timestamp time.Time
}

// DefaultOptions returns DejaVu Sans Condensed 12pt with a 1.2 line height.
func DefaultOptions() Options {
	return Options{
		FontFamily: "DejaVuSansCondensed",
		FontSize:   12,
		LineHeight: 14.4,
		Title:      "Document Summary",
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Renderer lays summary lines out top to bottom on US Letter pages.
type Renderer struct {
	opts Options
	font *sfnt.Font
}

// New validates the font and fills unset options with defaults.
func New(opts Options) (*Renderer, error) {
	def := DefaultOptions()
	if len(opts.Font) == 0 {
		opts.Font = defaultFont
		if opts.FontFamily == "" {
			opts.FontFamily = def.FontFamily
		}
	}
	if opts.FontFamily == "" {
		opts.FontFamily = "ReportFont"
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = opts.FontSize * 1.2
	}
	if opts.Timestamp.IsZero() {
		opts.Timestamp = def.Timestamp
	}

	f, err := sfnt.Parse(opts.Font)
	if err != nil {
		return nil, fmt.Errorf("parse report font: %w", err)
	}
	return &Renderer{opts: opts, font: f}, nil
}

// Render produces the PDF for summary. Each "\n"-separated line starts a new
// output line; lines wider than the page wrap, and text that runs past the
// bottom margin continues on a new page. The same input always yields the
// same bytes. Characters the font cannot draw fail the render with
// ErrUnsupportedGlyph rather than being substituted.
func (r *Renderer) Render(summary string) ([]byte, error) {
	lines := strings.Split(summary, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		lines[i] = strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
	}
	if err := r.checkCoverage(lines); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(r.opts.Timestamp)
	pdf.SetModificationDate(r.opts.Timestamp)
	if r.opts.Title != "" {
		pdf.SetTitle(r.opts.Title, true)
	}
	pdf.AddUTF8FontFromBytes(r.opts.FontFamily, "", r.opts.Font)
	pdf.SetFont(r.opts.FontFamily, "", r.opts.FontSize)

	pdf.AddPage()
	for _, line := range lines {
		pdf.MultiCell(0, r.opts.LineHeight, line, "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) checkCoverage(lines []string) error {
	var (
		buf     sfnt.Buffer
		seen    = map[rune]bool{}
		missing []string
		count   int
	)
	for _, line := range lines {
		for _, ch := range line {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			idx, err := r.font.GlyphIndex(&buf, ch)
			if err == nil && idx != 0 {
				continue
			}
			count++
			if len(missing) < maxReported {
				missing = append(missing, fmt.Sprintf("U+%04X", ch))
			}
		}
	}
	if count == 0 {
		return nil
	}
	detail := strings.Join(missing, ", ")
	if count > len(missing) {
		detail += fmt.Sprintf(" and %d more", count-len(missing))
	}
	return fmt.Errorf("%w: %w: %s", ErrRender, ErrUnsupportedGlyph, detail)
}
