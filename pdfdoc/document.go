package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoPages is returned by Open for documents without a readable page tree.
var ErrNoPages = errors.New("document has no pages")

// Document is an opened PDF. Two independent parsers read the same bytes:
// ledongthuc/pdf for positioned text and drawing operators, and pdfcpu for
// validated content streams, annotations and images. The pdfcpu context is
// built on first use.
type Document struct {
	data   []byte
	reader *pdf.Reader
	pages  int

	ctxOnce sync.Once
	ctx     *pdfmodel.Context
	ctxErr  error
}

// Open parses data as a PDF. Parser panics on malformed input are returned
// as errors.
func Open(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing PDF: %w", err)
	}
	n := r.NumPage()
	if n <= 0 {
		return nil, ErrNoPages
	}
	return &Document{data: data, reader: r, pages: n}, nil
}

// NumPages returns the page count from the page tree root.
func (d *Document) NumPages() int { return d.pages }

// Info returns the /Title and /Author entries of the document
// information dictionary, if any.
func (d *Document) Info() (title, author string) {
	defer func() { _ = recover() }()
	info := d.reader.Trailer().Key("Info")
	return info.Key("Title").Text(), info.Key("Author").Text()
}

// page returns the 1-based page n. The zero Page is returned for pages the
// page tree does not resolve.
func (d *Document) page(n int) pdf.Page {
	return d.reader.Page(n)
}

// rotation returns the page's /Rotate value, inherited from ancestors in the
// page tree, normalized to 0, 90, 180 or 270.
func rotation(p pdf.Page) int {
	v := p.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if r := v.Key("Rotate"); r.Kind() == pdf.Integer {
			deg := int(r.Int64()) % 360
			if deg < 0 {
				deg += 360
			}
			return deg - deg%90
		}
		v = v.Key("Parent")
	}
	return 0
}

// context returns the pdfcpu view of the document. Validation is relaxed so
// that files with minor defects remain readable.
func (d *Document) context() (*pdfmodel.Context, error) {
	d.ctxOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				d.ctxErr = fmt.Errorf("pdfcpu: %v", r)
			}
		}()
		conf := pdfmodel.NewDefaultConfiguration()
		conf.ValidationMode = pdfmodel.ValidationRelaxed
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(d.data), conf)
		if err != nil {
			d.ctxErr = fmt.Errorf("pdfcpu read: %w", err)
			return
		}
		d.ctx = ctx
	})
	return d.ctx, d.ctxErr
}

// contentStreams returns the content streams of a page. /Contents may be a
// single stream or an array.
func contentStreams(p pdf.Page) []pdf.Value {
	c := p.V.Key("Contents")
	switch c.Kind() {
	case pdf.Stream:
		return []pdf.Value{c}
	case pdf.Array:
		out := make([]pdf.Value, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if s := c.Index(i); s.Kind() == pdf.Stream {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// rawContent returns the concatenated, decoded content streams of page n
// (1-based). pdfcpu is tried first because it supports every standard
// filter; ledongthuc is used when pdfcpu cannot read the file.
func (d *Document) rawContent(n int) []byte {
	if ctx, err := d.context(); err == nil && n <= ctx.PageCount {
		if data, err := pdfcpuContent(ctx, n); err == nil {
			return data
		}
	}

	var buf bytes.Buffer
	func() {
		defer func() { _ = recover() }()
		for _, s := range contentStreams(d.page(n)) {
			rc := s.Reader()
			_, _ = io.Copy(&buf, rc)
			_ = rc.Close()
			buf.WriteByte('\n')
		}
	}()
	return buf.Bytes()
}
