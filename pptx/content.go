package pptx

import (
	"maps"

	"github.com/tsawler/docex/internal/imagemeta"
	"github.com/tsawler/docex/internal/opc"
	"github.com/tsawler/docex/model"
)

// ShapeText returns the text of every shape, table cell and group member,
// one block per run of uniform style within a paragraph, positioned by the
// shape's transform.
func (d *Document) ShapeText() ([]model.TextBlock, error) {
	slides, err := d.walk()
	if err != nil {
		return nil, err
	}
	var out []model.TextBlock
	for _, s := range slides {
		out = append(out, s.blocks...)
	}
	return out, nil
}

// ShapeLinks returns run and shape click actions, followed on each slide by
// URL and email patterns in unlinked text.
func (d *Document) ShapeLinks() ([]model.Link, error) {
	slides, err := d.walk()
	if err != nil {
		return nil, err
	}
	var out []model.Link
	for _, s := range slides {
		out = append(out, s.links...)
	}
	return out, nil
}

// ShapeImages returns the pictures and picture fills of each slide, then the
// slide's image relationships that no shape referenced. A part is reported
// at most once per slide.
func (d *Document) ShapeImages() ([]model.Image, error) {
	slides, err := d.walk()
	if err != nil {
		return nil, err
	}
	var out []model.Image
	for i, s := range slides {
		out = append(out, s.images...)
		out = append(out, d.relationshipImages(i, maps.Clone(s.seen))...)
	}
	return out, nil
}

// ShapeTables returns the DrawingML tables in graphic frames, including
// frames inside groups.
func (d *Document) ShapeTables() ([]model.Table, error) {
	slides, err := d.walk()
	if err != nil {
		return nil, err
	}
	var out []model.Table
	for _, s := range slides {
		out = append(out, s.tables...)
	}
	return out, nil
}

// relationshipImages emits the image relationships of slide i whose part is
// not in seen, marking each as it goes.
func (d *Document) relationshipImages(i int, seen map[string]bool) []model.Image {
	var out []model.Image
	for _, rel := range d.slides[i].rels {
		if !rel.Is(opc.RelImage) || rel.External || rel.Part == "" || seen[rel.Part] {
			continue
		}
		seen[rel.Part] = true
		data, err := d.pkg.Read(rel.Part)
		if err != nil {
			continue
		}
		if img, ok := imagemeta.Record(i, data, rel.Part, model.OriginRelationship, rel.Part); ok {
			out = append(out, img)
		}
	}
	return out
}
