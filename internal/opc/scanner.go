package opc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
)

// Scanner is a lenient token reader over one part. Mismatched end tags
// close the open element instead of failing, and markup-compatibility
// fallbacks are skipped so each alternate is seen once. Every end element
// carries the resolved name of the start element it closes.
type Scanner struct {
	dec  *xml.Decoder
	open []xml.Name
}

// NewScanner returns a Scanner over data.
func NewScanner(data []byte) *Scanner {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	return &Scanner{dec: dec}
}

// Next returns the next token, or io.EOF at the end of the part.
func (s *Scanner) Next() (xml.Token, error) {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Fallback" {
			if err := s.dec.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		switch t := tok.(type) {
		case xml.StartElement:
			s.open = append(s.open, t.Name)
		case xml.EndElement:
			// The decoder closes an unclosed element with its raw prefix
			// in Space, not the namespace URI.
			if n := len(s.open); n > 0 {
				t.Name = s.open[n-1]
				s.open = s.open[:n-1]
				tok = t
			}
		}
		return tok, nil
	}
}

// WellFormed reads every token of data strictly. A part without a root
// element is rejected.
func WellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !sawRoot {
				return errors.New("no root element")
			}
			return nil
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawRoot = true
		}
	}
}
