package pdfdoc

import (
	"fmt"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/tables"
	"github.com/tsawler/docex/text"
)

// pageLayout is the positioned input of table detection for one page.
type pageLayout struct {
	fragments []model.Fragment
	segments  []model.Segment
}

// layout returns the text fragments and painted rules of page n (1-based),
// with text positioned by the ledongthuc content walk.
func (d *Document) layout(n int) (pageLayout, error) {
	p := d.page(n)
	if p.V.IsNull() {
		return pageLayout{}, nil
	}
	content, err := pageContent(p)
	if err != nil {
		return pageLayout{}, err
	}
	segments := pageSegments(d.rawContent(n))
	if len(segments) == 0 {
		// Rectangles as reported by the content walk, without the CTM.
		for _, r := range content.Rect {
			box := model.NewBBoxFromPoints(
				model.Point{X: r.Min.X, Y: r.Min.Y},
				model.Point{X: r.Max.X, Y: r.Max.Y},
			)
			segments = append(segments, tables.SegmentsFromRect(box, 1)...)
		}
	}
	return pageLayout{
		fragments: text.Fragments(glyphs(content)),
		segments:  segments,
	}, nil
}

// streamLayout returns the layout of page n (1-based) read from the
// pdfcpu-decoded content stream alone. Multi-stream pages are concatenated.
func (d *Document) streamLayout(n int) (pageLayout, error) {
	ctx, err := d.context()
	if err != nil {
		return pageLayout{}, err
	}
	if n > ctx.PageCount {
		return pageLayout{}, nil
	}
	data, err := pdfcpuContent(ctx, n)
	if err != nil {
		return pageLayout{}, err
	}
	return pageLayout{
		fragments: text.Fragments(streamGlyphs(data)),
		segments:  pageSegments(data),
	}, nil
}

// detectTables runs det over the layout of every page. Any page whose
// layout cannot be read fails the whole operation.
func (d *Document) detectTables(det tables.Detector, layout func(int) (pageLayout, error)) ([]model.Table, error) {
	var out []model.Table
	for n := 1; n <= d.pages; n++ {
		l, err := layout(n)
		if err != nil {
			return nil, fmt.Errorf("%s tables, page %d: %w", det.Name(), n, err)
		}
		for _, t := range det.Detect(l.fragments, l.segments) {
			rec := model.NewTable(n-1, t.Cells, "")
			if rec.IsEmpty() {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// RuledTables finds tables drawn with ruling lines.
func (d *Document) RuledTables(cfg tables.Config) ([]model.Table, error) {
	return d.detectTables(tables.NewGridDetector(cfg), d.layout)
}

// AlignedTables finds tables from text alignment, using any rules present
// only to raise confidence. It reads pages through pdfcpu, so it does not
// share the ledongthuc limits of RuledTables.
func (d *Document) AlignedTables(cfg tables.Config) ([]model.Table, error) {
	return d.detectTables(tables.NewGeometricDetector(cfg), d.streamLayout)
}

// HasRules reports whether some page paints at least four straight
// segments, the least a ruled grid needs.
func (d *Document) HasRules() bool {
	for n := 1; n <= d.pages; n++ {
		if len(pageSegments(d.rawContent(n))) >= 4 {
			return true
		}
	}
	return false
}
