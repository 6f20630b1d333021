package pdfdoc

import (
	"bytes"
	"encoding/hex"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpuContent returns the decoded content of page n (1-based).
func pdfcpuContent(ctx *pdfmodel.Context, n int) ([]byte, error) {
	r, err := pdfcpu.ExtractPageContent(ctx, n)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokArray
	tokOther
)

// token is one operand of a content stream operator.
type token struct {
	kind  tokenKind
	num   float64
	str   string // raw bytes of strings, name without slash
	items []token
}

// textShowOps are the operators that paint text.
var textShowOps = map[string]bool{"Tj": true, "TJ": true, "'": true, "\"": true}

// scanContent tokenizes a content stream and calls fn for every operator
// with its operands. Inline image data and dictionaries are skipped.
func scanContent(data []byte, fn func(op string, args []token)) {
	s := &contentScanner{data: data}
	var args []token
	var stack [][]token

	push := func(t token) {
		if len(stack) > 0 {
			stack[len(stack)-1] = append(stack[len(stack)-1], t)
			return
		}
		args = append(args, t)
	}

	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return
		}
		c := s.data[s.pos]
		switch {
		case c == '(':
			push(token{kind: tokString, str: s.literal()})
		case c == '<' && s.peek(1) == '<':
			s.skipDict()
			push(token{kind: tokOther})
		case c == '<':
			push(token{kind: tokString, str: s.hexString()})
		case c == '[':
			s.pos++
			stack = append(stack, nil)
		case c == ']':
			s.pos++
			if n := len(stack); n > 0 {
				items := stack[n-1]
				stack = stack[:n-1]
				push(token{kind: tokArray, items: items})
			}
		case c == '/':
			s.pos++
			push(token{kind: tokName, str: s.word()})
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			w := s.word()
			f, err := strconv.ParseFloat(w, 64)
			if err != nil {
				push(token{kind: tokOther})
				continue
			}
			push(token{kind: tokNumber, num: f})
		case c == '{' || c == '}' || c == ')' || c == '>':
			s.pos++
		default:
			op := s.word()
			if op == "" {
				s.pos++
				continue
			}
			stack = nil
			fn(op, args)
			args = args[:0]
			if op == "ID" {
				s.skipInlineImage()
			}
		}
	}
}

type contentScanner struct {
	data []byte
	pos  int
}

func (s *contentScanner) peek(off int) byte {
	if s.pos+off < len(s.data) {
		return s.data[s.pos+off]
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *contentScanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *contentScanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literal reads a parenthesized string, resolving escapes.
func (s *contentScanner) literal() string {
	s.pos++ // (
	var b strings.Builder
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return b.String()
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\r':
				if s.peek(0) == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						v = v*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					b.WriteByte(byte(v))
				} else {
					b.WriteByte(e)
				}
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *contentScanner) hexString() string {
	s.pos++ // <
	end := bytes.IndexByte(s.data[s.pos:], '>')
	if end < 0 {
		end = len(s.data) - s.pos
	}
	var digits []byte
	for _, c := range s.data[s.pos : s.pos+end] {
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	s.pos += end + 1
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out, err := hex.DecodeString(string(digits))
	if err != nil {
		return ""
	}
	return string(out)
}

func (s *contentScanner) skipDict() {
	depth := 0
	for s.pos < len(s.data) {
		switch {
		case s.data[s.pos] == '<' && s.peek(1) == '<':
			depth++
			s.pos += 2
		case s.data[s.pos] == '>' && s.peek(1) == '>':
			depth--
			s.pos += 2
			if depth == 0 {
				return
			}
		case s.data[s.pos] == '(':
			s.literal()
		default:
			s.pos++
		}
	}
}

// skipInlineImage moves past binary inline image data to the EI operator.
func (s *contentScanner) skipInlineImage() {
	for s.pos+2 < len(s.data) {
		if isSpace(s.data[s.pos]) && s.data[s.pos+1] == 'E' && s.data[s.pos+2] == 'I' &&
			(s.pos+3 == len(s.data) || isSpace(s.data[s.pos+3])) {
			s.pos += 3
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

// decodeString converts a string operand to UTF-8. UTF-16 strings carry a
// byte order mark; everything else is read as single-byte text.
func decodeString(raw string) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		b := []byte(raw[2:])
		u := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		sb.WriteRune(rune(raw[i]))
	}
	return sb.String()
}

// hasTextOperators reports whether a content stream shows any text.
func hasTextOperators(data []byte) bool {
	found := false
	scanContent(data, func(op string, args []token) {
		if textShowOps[op] {
			found = true
		}
	})
	return found
}
