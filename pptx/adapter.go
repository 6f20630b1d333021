package pptx

import (
	"github.com/tsawler/docex/adapter"
	"github.com/tsawler/docex/model"
)

// NewAdapter wires the shape walk and the raw scans into one chain per
// operation.
func NewAdapter(doc *Document) *adapter.Chains {
	return &adapter.Chains{
		Name: "pptx",
		TextOps: adapter.Chain[model.TextBlock]{
			Primary:   doc.ShapeText,
			Secondary: doc.TokenText,
			Probe:     doc.HasText,
		},
		LinkOps: adapter.Chain[model.Link]{
			Primary:   doc.ShapeLinks,
			Secondary: doc.RelationshipLinks,
			Probe:     doc.HasHyperlinks,
		},
		ImageOps: adapter.Chain[model.Image]{
			Primary:   doc.ShapeImages,
			Secondary: doc.RelationshipImages,
			Probe:     doc.HasImages,
		},
		TableOps: adapter.Chain[model.Table]{
			Primary:   doc.ShapeTables,
			Secondary: doc.TokenTables,
			Probe:     doc.HasTables,
		},
	}
}
