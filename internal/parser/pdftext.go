package parser

import (
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// pageText returns the plain text of one page. It walks the content stream
// the same way Page.GetPlainText does (a newline per text object, text-show
// operators in order) but decodes fonts mapped through a ToUnicode CMap with
// toUnicodeMap, which handles ranges wider than a single byte.
func pageText(page pdflib.Page) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page content: %v", rec)
		}
	}()
	if page.V.IsNull() || page.V.Key("Contents").Kind() == pdflib.Null {
		return "", nil
	}

	decoders := make(map[string]pdflib.TextEncoding)
	for _, name := range page.Fonts() {
		decoders[name] = fontDecoder(page.Font(name))
	}

	var (
		buf strings.Builder
		enc pdflib.TextEncoding = rawText{}
	)
	show := func(v pdflib.Value) {
		if v.Kind() == pdflib.String {
			buf.WriteString(enc.Decode(v.RawString()))
		}
	}

	pdflib.Interpret(page.V.Key("Contents"), func(stk *pdflib.Stack, op string) {
		args := make([]pdflib.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "BT", "T*":
			buf.WriteByte('\n')
		case "Tf":
			if len(args) != 2 {
				return
			}
			if d, ok := decoders[args[0].Name()]; ok {
				enc = d
			} else {
				enc = rawText{}
			}
		case "Tj", "'", "\"":
			// ' and " carry the string as their last operand.
			if len(args) > 0 {
				show(args[len(args)-1])
			}
		case "TJ":
			if len(args) != 1 {
				return
			}
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				show(arr.Index(i))
			}
		}
	})
	return buf.String(), nil
}

// fontDecoder prefers a parsed ToUnicode CMap for composite fonts and for
// fonts without an Encoding, which is where the pdf library falls back to its
// own CMap reader. Everything else uses the library's encoder.
func fontDecoder(f pdflib.Font) pdflib.TextEncoding {
	enc := f.V.Key("Encoding")
	composite := enc.Kind() == pdflib.Null || (enc.Kind() == pdflib.Name && enc.Name() == "Identity-H")
	if composite {
		if tu := f.V.Key("ToUnicode"); tu.Kind() == pdflib.Stream {
			if m, err := parseToUnicode(tu.Reader()); err == nil {
				return m
			}
		}
	}
	return f.Encoder()
}

type rawText struct{}

func (rawText) Decode(raw string) string { return raw }
