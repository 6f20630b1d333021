// Package docex extracts text, links, images and tables from PDF, DOCX and
// PPTX files into one uniform record schema and hands them to a sink.
//
// Basic usage:
//
//	s, err := sink.New(sink.StorageFile, "output")
//	if err != nil {
//	    // handle error
//	}
//	defer s.Close()
//
//	x := docex.New(docex.WithSink(s))
//	bundle, err := x.Process("report.pdf")
//	if err != nil {
//	    // fatal for this file: unsupported, corrupt, or a storage failure
//	}
//	if bundle.Report.Partial() {
//	    // some operations fell back or failed
//	}
//
// Extract runs the same pipeline without storing anything. ProcessAll runs
// independent files in parallel.
package docex

import (
	"errors"
	"log/slog"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/sink"
	"github.com/tsawler/docex/tables"
)

// DefaultMaxFileSize is the input size limit used unless WithMaxFileSize is
// given.
const DefaultMaxFileSize = 100 * 1024 * 1024

// ErrNoSink is returned by Process when the extractor has no sink.
var ErrNoSink = errors.New("no sink configured")

// ErrFileTooLarge is returned when an input exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// Extractor runs the per-file pipeline. Its configuration is fixed at
// construction, so one Extractor may process many files concurrently.
type Extractor struct {
	logger      *slog.Logger
	sink        sink.Sink
	kinds       map[model.Kind]bool
	maxFileSize int64
	tables      tables.Config
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSink sets where Process stores records.
func WithSink(s sink.Sink) Option {
	return func(e *Extractor) { e.sink = s }
}

// WithKinds restricts extraction to the given record kinds. Operations for
// other kinds are reported as skipped.
func WithKinds(kinds ...model.Kind) Option {
	return func(e *Extractor) {
		if len(kinds) == 0 {
			return
		}
		e.kinds = make(map[model.Kind]bool, len(kinds))
		for _, k := range kinds {
			e.kinds[k] = true
		}
	}
}

// WithMaxFileSize sets the input size limit in bytes. Zero or less keeps
// the default.
func WithMaxFileSize(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFileSize = n
		}
	}
}

// WithTableConfig sets the PDF table detection parameters.
func WithTableConfig(cfg tables.Config) Option {
	return func(e *Extractor) { e.tables = cfg }
}

// New returns an Extractor. Without options it extracts every kind, logs to
// slog.Default() and has no sink.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger:      slog.Default(),
		maxFileSize: DefaultMaxFileSize,
		tables:      tables.DefaultConfig(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) wants(k model.Kind) bool {
	return e.kinds == nil || e.kinds[k]
}
