package pdfdoc

import (
	"github.com/tsawler/docex/adapter"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/tables"
)

// NewAdapter wires the two PDF backends into one chain per operation.
func NewAdapter(doc *Document, cfg tables.Config) *adapter.Chains {
	return &adapter.Chains{
		Name: "pdf",
		TextOps: adapter.Chain[model.TextBlock]{
			Primary:   doc.RichText,
			Secondary: doc.PlainText,
			Probe:     doc.HasText,
		},
		LinkOps: adapter.Chain[model.Link]{
			Primary:   doc.AnnotationLinks,
			Secondary: doc.CatalogLinks,
			Probe:     doc.HasLinkAnnotations,
		},
		ImageOps: adapter.Chain[model.Image]{
			Primary:   doc.EmbeddedImages,
			Secondary: doc.XObjectImages,
			Probe:     doc.HasImages,
		},
		TableOps: adapter.Chain[model.Table]{
			Primary:   func() ([]model.Table, error) { return doc.RuledTables(cfg) },
			Secondary: func() ([]model.Table, error) { return doc.AlignedTables(cfg) },
			Probe:     doc.HasRules,
		},
	}
}
