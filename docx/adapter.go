package docx

import (
	"github.com/tsawler/docex/adapter"
	"github.com/tsawler/docex/model"
)

// NewAdapter wires the structured walk and the raw scans into one chain per
// operation.
func NewAdapter(doc *Document) *adapter.Chains {
	return &adapter.Chains{
		Name: "docx",
		TextOps: adapter.Chain[model.TextBlock]{
			Primary:   doc.StyledText,
			Secondary: doc.TokenText,
			Probe:     doc.HasText,
		},
		LinkOps: adapter.Chain[model.Link]{
			Primary:   doc.Hyperlinks,
			Secondary: doc.RelationshipLinks,
			Probe:     doc.HasHyperlinks,
		},
		ImageOps: adapter.Chain[model.Image]{
			Primary:   doc.DrawingImages,
			Secondary: doc.RelationshipImages,
			Probe:     doc.HasImages,
		},
		TableOps: adapter.Chain[model.Table]{
			Primary:   doc.StructuredTables,
			Secondary: doc.TokenTables,
			Probe:     doc.HasTables,
		},
	}
}
