package docx

import (
	"slices"

	"github.com/tsawler/docex/internal/imagemeta"
	"github.com/tsawler/docex/internal/opc"
	"github.com/tsawler/docex/model"
)

// StyledText returns one block per run of uniformly styled text, with font
// properties resolved through the style hierarchy. Table cell text is
// included where the table appears.
func (d *Document) StyledText() ([]model.TextBlock, error) {
	b, err := d.walk()
	if err != nil {
		return nil, err
	}
	return slices.Clone(b.blocks), nil
}

// Hyperlinks returns <w:hyperlink> elements, HYPERLINK fields, and URL or
// email patterns in text that is not already part of a link.
func (d *Document) Hyperlinks() ([]model.Link, error) {
	b, err := d.walk()
	if err != nil {
		return nil, err
	}
	return slices.Clone(b.links), nil
}

// DrawingImages returns the images referenced from drawings and VML shapes,
// followed by images that are related to the document but referenced from
// nowhere in the body.
func (d *Document) DrawingImages() ([]model.Image, error) {
	b, err := d.walk()
	if err != nil {
		return nil, err
	}

	var out []model.Image
	seen := make(map[string]bool)
	for _, ref := range b.images {
		rel, ok := d.relMap[ref.relID]
		if !ok || rel.External {
			continue
		}
		data, err := d.pkg.Read(rel.Part)
		if err != nil {
			continue
		}
		seen[rel.Part] = true
		img, ok := imagemeta.Record(ref.location, data, rel.Part, model.OriginDirectShape, rel.Part)
		if !ok {
			continue
		}
		out = append(out, imagemeta.WithSize(img, ref.width, ref.height))
	}

	return append(out, d.relationshipImages(seen)...), nil
}

// relationshipImages returns an image record for every internal image
// relationship whose part is not in seen. There is no page to attribute
// them to, so they are placed at location 0.
func (d *Document) relationshipImages(seen map[string]bool) []model.Image {
	var out []model.Image
	for _, rel := range d.rels {
		if rel.External || !rel.Is(opc.RelImage) || seen[rel.Part] {
			continue
		}
		seen[rel.Part] = true
		data, err := d.pkg.Read(rel.Part)
		if err != nil {
			continue
		}
		if img, ok := imagemeta.Record(0, data, rel.Part, model.OriginRelationship, rel.Part); ok {
			out = append(out, img)
		}
	}
	return out
}
