package model

import "fmt"

// Kind names a record family.
type Kind string

const (
	KindText   Kind = "text"
	KindLinks  Kind = "links"
	KindImages Kind = "images"
	KindTables Kind = "tables"
)

// AllKinds lists every record family in extraction order.
func AllKinds() []Kind {
	return []Kind{KindText, KindLinks, KindImages, KindTables}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// DocumentInfo identifies the source of a bundle.
type DocumentInfo struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Format string `json:"format"`
	SHA256 string `json:"sha256"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// Outcome describes how one extraction operation finished.
type Outcome string

const (
	// OutcomePrimary means the primary backend produced the records.
	OutcomePrimary Outcome = "primary"
	// OutcomeFallback means the secondary backend produced the records.
	OutcomeFallback Outcome = "fallback"
	// OutcomeFailed means both backends failed; no records were produced.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the operation was not requested.
	OutcomeSkipped Outcome = "skipped"
)

// OperationReport summarises one operation.
type OperationReport struct {
	Kind    Kind    `json:"kind"`
	Outcome Outcome `json:"outcome"`
	Count   int     `json:"count"`
	Warning string  `json:"warning,omitempty"`
}

// Report collects the per-operation outcomes for one file.
type Report struct {
	Operations []OperationReport `json:"operations"`
}

// Partial reports whether any operation fell back or failed.
func (r Report) Partial() bool {
	for _, op := range r.Operations {
		if op.Outcome == OutcomeFallback || op.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Get returns the report for a kind.
func (r Report) Get(k Kind) (OperationReport, bool) {
	for _, op := range r.Operations {
		if op.Kind == k {
			return op, true
		}
	}
	return OperationReport{}, false
}

// Bundle is everything extracted from one document.
type Bundle struct {
	Document DocumentInfo `json:"document"`
	Text     []TextBlock  `json:"text"`
	Links    []Link       `json:"links"`
	Images   []Image      `json:"images"`
	Tables   []Table      `json:"tables"`
	Report   Report       `json:"report"`
}

// Records returns the records of one kind as an untyped value suitable for
// a sink.
func (b *Bundle) Records(k Kind) any {
	switch k {
	case KindText:
		return b.Text
	case KindLinks:
		return b.Links
	case KindImages:
		return b.Images
	case KindTables:
		return b.Tables
	default:
		return nil
	}
}
