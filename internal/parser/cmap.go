package parser

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode/utf16"
)

var errEmptyCMap = errors.New("cmap has no mappings")

type codeRange struct {
	lo, hi []byte
}

type cmapRange struct {
	lo, hi []byte
	dst    []uint16   // start value, incremented across the range
	dsts   [][]uint16 // explicit value per code, when given as an array
}

// toUnicodeMap decodes character codes through a ToUnicode CMap
// (bfchar/bfrange sections). Unknown codes decode to U+FFFD.
type toUnicodeMap struct {
	space  []codeRange
	chars  map[string][]uint16
	ranges []cmapRange
}

func parseToUnicode(rc io.ReadCloser) (*toUnicodeMap, error) {
	defer rc.Close()

	m := &toUnicodeMap{chars: make(map[string][]uint16)}
	var (
		section  string
		operands []cmapToken
	)
	sc := newCMapScanner(rc)
	for {
		tok, err := sc.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if tok.kind != tokKeyword {
			operands = append(operands, tok)
			continue
		}
		switch tok.text {
		case "begincodespacerange", "beginbfchar", "beginbfrange":
			section = tok.text
		case "endcodespacerange":
			for i := 0; i+1 < len(operands); i += 2 {
				m.space = append(m.space, codeRange{lo: operands[i].bytes, hi: operands[i+1].bytes})
			}
			section = ""
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				m.chars[string(operands[i].bytes)] = toUnits(operands[i+1].bytes)
			}
			section = ""
		case "endbfrange":
			for i := 0; i+2 < len(operands); i += 3 {
				r := cmapRange{lo: operands[i].bytes, hi: operands[i+1].bytes}
				if dst := operands[i+2]; dst.kind == tokArray {
					for _, b := range dst.items {
						r.dsts = append(r.dsts, toUnits(b))
					}
				} else {
					r.dst = toUnits(dst.bytes)
				}
				m.ranges = append(m.ranges, r)
			}
			section = ""
		}
		if section == "" || strings.HasPrefix(tok.text, "begin") {
			operands = operands[:0]
		}
	}
	if len(m.chars) == 0 && len(m.ranges) == 0 {
		return nil, errEmptyCMap
	}
	return m, nil
}

// Decode implements pdf.TextEncoding.
func (m *toUnicodeMap) Decode(raw string) string {
	var out []rune
	b := []byte(raw)
	for len(b) > 0 {
		n := m.codeLen(b)
		code := b[:n]
		b = b[n:]
		out = append(out, utf16.Decode(m.lookup(code))...)
	}
	return string(out)
}

// codeLen returns the byte length of the code at the start of b: the first
// codespace range that matches, else the width of the mapped codes.
func (m *toUnicodeMap) codeLen(b []byte) int {
	for n := 1; n <= 4 && n <= len(b); n++ {
		for _, sp := range m.space {
			if len(sp.lo) == n && bytes.Compare(sp.lo, b[:n]) <= 0 && bytes.Compare(b[:n], sp.hi) <= 0 {
				return n
			}
		}
	}
	n := 1
	if len(m.ranges) > 0 {
		n = len(m.ranges[0].lo)
	} else {
		for k := range m.chars {
			n = len(k)
			break
		}
	}
	return min(max(n, 1), len(b))
}

func (m *toUnicodeMap) lookup(code []byte) []uint16 {
	if v, ok := m.chars[string(code)]; ok {
		return v
	}
	for _, r := range m.ranges {
		if len(r.lo) != len(code) || bytes.Compare(code, r.lo) < 0 || bytes.Compare(code, r.hi) > 0 {
			continue
		}
		off := codeValue(code) - codeValue(r.lo)
		if r.dsts != nil {
			if off < len(r.dsts) {
				return r.dsts[off]
			}
			break
		}
		if len(r.dst) == 0 {
			break
		}
		v := append([]uint16(nil), r.dst...)
		v[len(v)-1] += uint16(off)
		return v
	}
	return []uint16{0xFFFD}
}

func codeValue(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

func toUnits(b []byte) []uint16 {
	if len(b)%2 == 1 {
		b = append([]byte{0}, b...)
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return u
}

type tokenKind int

const (
	tokKeyword tokenKind = iota
	tokHex
	tokArray
	tokOther
)

type cmapToken struct {
	kind  tokenKind
	text  string
	bytes []byte
	items [][]byte
}

// cmapScanner tokenizes the small PostScript subset used by CMaps. Only hex
// strings, arrays of hex strings and bare keywords matter; names, numbers,
// dictionaries and literal strings are returned as tokOther.
type cmapScanner struct {
	r *bufio.Reader
}

func newCMapScanner(r io.Reader) *cmapScanner {
	return &cmapScanner{r: bufio.NewReader(r)}
}

func (s *cmapScanner) next() (cmapToken, error) {
	c, err := s.skipSpace()
	if err != nil {
		return cmapToken{}, err
	}
	switch {
	case c == '<':
		nc, err := s.r.ReadByte()
		if err != nil {
			return cmapToken{}, err
		}
		if nc == '<' {
			return cmapToken{kind: tokOther, text: "<<"}, nil
		}
		_ = s.r.UnreadByte()
		b, err := s.readHex()
		return cmapToken{kind: tokHex, bytes: b}, err
	case c == '>':
		_, _ = s.r.ReadByte()
		return cmapToken{kind: tokOther, text: ">>"}, nil
	case c == '[':
		var items [][]byte
		for {
			tok, err := s.next()
			if err != nil {
				return cmapToken{}, err
			}
			if tok.kind == tokOther && tok.text == "]" {
				return cmapToken{kind: tokArray, items: items}, nil
			}
			if tok.kind == tokHex {
				items = append(items, tok.bytes)
			}
		}
	case c == ']':
		return cmapToken{kind: tokOther, text: "]"}, nil
	case c == '(':
		return cmapToken{kind: tokOther}, s.skipLiteral()
	case c == '/':
		return cmapToken{kind: tokOther, text: "/" + s.readRegular()}, nil
	}
	_ = s.r.UnreadByte()
	word := s.readRegular()
	if word == "" {
		_, _ = s.r.ReadByte()
		return cmapToken{kind: tokOther}, nil
	}
	if (word[0] >= '0' && word[0] <= '9') || word[0] == '-' || word[0] == '.' {
		return cmapToken{kind: tokOther, text: word}, nil
	}
	return cmapToken{kind: tokKeyword, text: word}, nil
}

func (s *cmapScanner) skipSpace() (byte, error) {
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\r', '\n', '\f', 0:
			continue
		case '%':
			if _, err := s.r.ReadString('\n'); err != nil {
				return 0, err
			}
			continue
		}
		return c, nil
	}
}

func (s *cmapScanner) readHex() ([]byte, error) {
	var digits []byte
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if c == '>' {
			break
		}
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	_, err := hex.Decode(out, digits)
	return out, err
}

func (s *cmapScanner) skipLiteral() error {
	depth := 1
	for depth > 0 {
		c, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case '\\':
			if _, err := s.r.ReadByte(); err != nil {
				return err
			}
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return nil
}

func (s *cmapScanner) readRegular() string {
	var sb strings.Builder
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			return sb.String()
		}
		if isDelimiter(c) {
			_ = s.r.UnreadByte()
			return sb.String()
		}
		sb.WriteByte(c)
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
