package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
)

// Image codecs that end a filter chain. Their output is a complete encoded
// image file, not raw samples.
const (
	DCT   = filter.DCT
	JPX   = filter.JPX
	JBIG2 = filter.JBIG2
	CCITT = filter.CCITTFax
)

// Params holds one filter's decode parameters.
type Params map[string]int

var abbreviations = map[string]string{
	"Fl":  filter.Flate,
	"AHx": filter.ASCIIHex,
	"A85": filter.ASCII85,
	"LZW": filter.LZW,
	"RL":  filter.RunLength,
	"DCT": DCT,
	"CCF": CCITT,
}

// Canonical expands abbreviated inline-image filter names.
func Canonical(name string) string {
	if full, ok := abbreviations[name]; ok {
		return full
	}
	return name
}

// Decode applies a stream's filter chain in order. params may be shorter
// than names. Decoding stops at the first image codec, whose name is
// returned with the still-encoded data; terminal is empty when every filter
// was applied.
func Decode(data []byte, names []string, params []Params) (out []byte, terminal string, err error) {
	out = data
	for i, name := range names {
		n := Canonical(name)
		switch n {
		case DCT, JPX, JBIG2, CCITT:
			return out, n, nil
		case filter.Flate, filter.ASCIIHex, filter.ASCII85, filter.LZW, filter.RunLength:
		default:
			return nil, "", fmt.Errorf("unsupported filter: %s", name)
		}

		var p Params
		if i < len(params) {
			p = params[i]
		}
		if out, err = apply(n, out, p); err != nil {
			return nil, "", fmt.Errorf("%s: %w", n, err)
		}
	}
	return out, "", nil
}

func apply(name string, data []byte, p Params) ([]byte, error) {
	f, err := filter.NewFilter(name, p)
	if err != nil {
		return nil, err
	}
	r, err := f.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
