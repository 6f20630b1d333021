// Package loader validates input files and opens them with the matching
// format adapter.
//
// Usage:
//
//	l, err := loader.ForPath("slides.pptx")
//	if err != nil {
//	    // unsupported extension
//	}
//	h, err := l.Load("slides.pptx")
//	if err != nil {
//	    // *UnsupportedFormatError or *CorruptDocumentError
//	}
//	defer h.Close()
//	res := h.Adapter().Text()
package loader

import (
	"bytes"
	"os"

	"github.com/tsawler/docex/adapter"
	"github.com/tsawler/docex/docx"
	"github.com/tsawler/docex/format"
	"github.com/tsawler/docex/pdfdoc"
	"github.com/tsawler/docex/pptx"
	"github.com/tsawler/docex/tables"
)

// Loader validates and opens one document format.
type Loader interface {
	// Format returns the format this loader opens.
	Format() format.Format
	// Validate reports whether path exists, is readable, and has both the
	// extension and the signature of the format. It never panics.
	Validate(path string) bool
	// Load opens path. Validation failures return *UnsupportedFormatError;
	// parse failures return *CorruptDocumentError.
	Load(path string) (Handle, error)
}

// Handle is an opened document. It is owned by one caller and must be
// closed.
type Handle interface {
	Format() format.Format
	// Info returns the document title and author, empty when absent.
	Info() (title, author string)
	// Adapter returns the extraction operations. It is nil after Close.
	Adapter() adapter.Adapter
	Close() error
}

type config struct {
	tables tables.Config
}

// Option customises the loaders returned by ForPath.
type Option func(*config)

// WithTableConfig sets the PDF table detection parameters.
func WithTableConfig(cfg tables.Config) Option { return func(c *config) { c.tables = cfg } }

// ForPath returns the loader for the extension of path. A ".ppt" file is
// given to the PPTX loader, which rejects binary content.
func ForPath(path string, opts ...Option) (Loader, error) {
	cfg := config{tables: tables.DefaultConfig()}
	for _, o := range opts {
		o(&cfg)
	}
	switch format.Detect(path) {
	case format.PDF:
		return &PDF{Tables: cfg.tables}, nil
	case format.DOCX:
		return DOCX{}, nil
	case format.PPTX:
		return PPTX{}, nil
	default:
		return nil, &UnsupportedFormatError{Path: path, Reason: "unrecognized extension"}
	}
}

// PDF loads PDF documents.
type PDF struct {
	Tables tables.Config
}

func (*PDF) Format() format.Format { return format.PDF }

func (*PDF) Validate(path string) bool { return validate(path, format.PDF) }

func (l *PDF) Load(path string) (Handle, error) {
	return load(path, format.PDF, func(data []byte) (Handle, error) {
		doc, err := pdfdoc.Open(data)
		if err != nil {
			return nil, err
		}
		return &handle{format: format.PDF, info: doc.Info, adapter: pdfdoc.NewAdapter(doc, l.Tables)}, nil
	})
}

// DOCX loads Word documents.
type DOCX struct{}

func (DOCX) Format() format.Format { return format.DOCX }

func (DOCX) Validate(path string) bool { return validate(path, format.DOCX) }

func (DOCX) Load(path string) (Handle, error) {
	return load(path, format.DOCX, func(data []byte) (Handle, error) {
		doc, err := docx.Open(data)
		if err != nil {
			return nil, err
		}
		return &handle{format: format.DOCX, info: doc.Info, adapter: docx.NewAdapter(doc)}, nil
	})
}

// PPTX loads presentations, including OOXML packages saved as ".ppt".
type PPTX struct{}

func (PPTX) Format() format.Format { return format.PPTX }

func (PPTX) Validate(path string) bool { return validate(path, format.PPTX) }

func (PPTX) Load(path string) (Handle, error) {
	return load(path, format.PPTX, func(data []byte) (Handle, error) {
		doc, err := pptx.Open(data)
		if err != nil {
			return nil, err
		}
		return &handle{format: format.PPTX, info: doc.Info, adapter: pptx.NewAdapter(doc)}, nil
	})
}

// validate checks extension and signature without parsing the document.
func validate(path string, want format.Format) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if format.Detect(path) != want {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil || !st.Mode().IsRegular() {
		return false
	}
	got, err := format.DetectFromReader(f, st.Size())
	return err == nil && got == want
}

// load reads path and hands the bytes to open. Content that is recognisably
// another format is unsupported; content that merely fails to parse is
// corrupt.
func load(path string, want format.Format, open func([]byte) (Handle, error)) (Handle, error) {
	if format.Detect(path) != want {
		return nil, &UnsupportedFormatError{Path: path, Reason: "extension does not match " + want.String()}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: path, Reason: "unreadable", Err: err}
	}

	// A ZIP that cannot be opened reports an error here; the backend then
	// reports it as corrupt.
	got, _ := format.DetectFromReader(bytes.NewReader(data), int64(len(data)))
	switch {
	case got == format.LegacyPPT:
		return nil, &UnsupportedFormatError{Path: path, Reason: "legacy binary PowerPoint is not supported"}
	case got != format.Unknown && got != want:
		return nil, &UnsupportedFormatError{Path: path, Reason: "content is " + got.String()}
	}

	h, err := open(data)
	if err != nil {
		return nil, &CorruptDocumentError{Path: path, Format: want, Err: err}
	}
	return h, nil
}

type handle struct {
	format  format.Format
	info    func() (string, string)
	adapter adapter.Adapter
}

func (h *handle) Format() format.Format { return h.format }

func (h *handle) Info() (title, author string) {
	if h.info == nil {
		return "", ""
	}
	return h.info()
}

func (h *handle) Adapter() adapter.Adapter { return h.adapter }

// Close drops the document. Closing twice is allowed.
func (h *handle) Close() error {
	h.adapter = nil
	h.info = nil
	return nil
}
