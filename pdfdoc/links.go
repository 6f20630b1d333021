package pdfdoc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/docex/internal/linkscan"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// AnnotationLinks walks each page's /Link annotations with the ledongthuc
// backend and adds URL and email patterns found in the page text.
func (d *Document) AnnotationLinks() ([]model.Link, error) {
	var pageIndex map[string]int
	destPage := func(v pdf.Value) int {
		if pageIndex == nil {
			pageIndex = make(map[string]int, d.pages)
			for n := 1; n <= d.pages; n++ {
				pageIndex[d.page(n).V.String()] = n
			}
		}
		if n, ok := pageIndex[v.String()]; ok {
			return n
		}
		return 0
	}

	var links []model.Link
	for n := 1; n <= d.pages; n++ {
		p := d.page(n)
		if p.V.IsNull() {
			continue
		}
		content, err := pageContent(p)
		if err != nil && !errors.Is(err, errMultiStream) {
			return nil, err
		}
		gs := glyphs(content)

		annots := p.V.Key("Annots")
		for i := 0; i < annots.Len(); i++ {
			a := annots.Index(i)
			if a.Key("Subtype").Name() != "Link" {
				continue
			}
			target := annotationTarget(a, destPage)
			if target == "" {
				continue
			}
			link := model.Link{
				Location: n - 1,
				Target:   linkscan.Normalize(target),
				Kind:     linkscan.Classify(target),
			}
			if r, ok := rectOf(a.Key("Rect")); ok {
				link.Region = r.Ptr()
				link.Text = textIn(gs, r)
			}
			links = append(links, link)
		}

		var page []string
		for _, r := range text.Runs(gs) {
			page = append(page, r.Text)
		}
		links = append(links, linkscan.Links(n-1, strings.Join(page, "\n"))...)
	}
	return links, nil
}

// annotationTarget resolves the action or destination of a link annotation.
// Page destinations become "#page=N".
func annotationTarget(a pdf.Value, destPage func(pdf.Value) int) string {
	action := a.Key("A")
	switch action.Key("S").Name() {
	case "URI":
		return strings.TrimSpace(action.Key("URI").RawString())
	case "GoTo":
		return destination(action.Key("D"), destPage)
	case "GoToR", "Launch":
		f := action.Key("F")
		if f.Kind() == pdf.Dict {
			f = f.Key("F")
		}
		return f.Text()
	}
	return destination(a.Key("Dest"), destPage)
}

func destination(dest pdf.Value, destPage func(pdf.Value) int) string {
	switch dest.Kind() {
	case pdf.Name:
		return "#" + dest.Name()
	case pdf.String:
		return "#" + dest.Text()
	case pdf.Array:
		if n := destPage(dest.Index(0)); n > 0 {
			return fmt.Sprintf("#page=%d", n)
		}
	}
	return ""
}

func rectOf(v pdf.Value) (model.BBox, bool) {
	if v.Len() != 4 {
		return model.BBox{}, false
	}
	return model.NewBBoxFromPoints(
		model.Point{X: v.Index(0).Float64(), Y: v.Index(1).Float64()},
		model.Point{X: v.Index(2).Float64(), Y: v.Index(3).Float64()},
	), true
}

// textIn returns the text of the glyphs whose origin lies inside r.
func textIn(gs []text.Glyph, r model.BBox) string {
	var inside []text.Glyph
	for _, g := range gs {
		if r.Contains(model.Point{X: g.X + g.Width/2, Y: g.Y + 1}) {
			inside = append(inside, g)
		}
	}
	var parts []string
	for _, run := range text.Runs(inside) {
		parts = append(parts, run.Text)
	}
	return strings.Join(parts, " ")
}

// CatalogLinks reads link annotations through pdfcpu and adds patterns found
// in the operator-level page text.
func (d *Document) CatalogLinks() ([]model.Link, error) {
	ctx, err := d.context()
	if err != nil {
		return nil, err
	}

	pageOf := make(map[int]int, ctx.PageCount)
	for n := 1; n <= ctx.PageCount; n++ {
		if _, ref, _, err := ctx.PageDict(n, false); err == nil && ref != nil {
			pageOf[int(ref.ObjectNumber)] = n
		}
	}

	var links []model.Link
	for n := 1; n <= ctx.PageCount; n++ {
		pageDict, _, _, err := ctx.PageDict(n, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		for _, a := range pdfcpuAnnotations(ctx, pageDict) {
			target := pdfcpuTarget(ctx, a, pageOf)
			if target == "" {
				continue
			}
			link := model.Link{
				Location: n - 1,
				Target:   linkscan.Normalize(target),
				Kind:     linkscan.Classify(target),
			}
			if r, ok := pdfcpuRect(ctx, a); ok {
				link.Region = r.Ptr()
			}
			links = append(links, link)
		}

		data, err := pdfcpuContent(ctx, n)
		if err != nil {
			return nil, err
		}
		links = append(links, linkscan.Links(n-1, strings.Join(textLines(data), "\n"))...)
	}
	return links, nil
}

func pdfcpuAnnotations(ctx *pdfmodel.Context, page types.Dict) []types.Dict {
	obj, ok := page.Find("Annots")
	if !ok {
		return nil
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	var out []types.Dict
	for _, o := range arr {
		a, err := ctx.DereferenceDict(o)
		if err != nil || a == nil {
			continue
		}
		if st, ok := a.Find("Subtype"); ok {
			if name, ok := st.(types.Name); ok && name == "Link" {
				out = append(out, a)
			}
		}
	}
	return out
}

func pdfcpuTarget(ctx *pdfmodel.Context, a types.Dict, pageOf map[int]int) string {
	if obj, ok := a.Find("A"); ok {
		if action, err := ctx.DereferenceDict(obj); err == nil && action != nil {
			s, _ := action.Find("S")
			switch name, _ := s.(types.Name); name {
			case "URI":
				uri, _ := action.Find("URI")
				return strings.TrimSpace(pdfcpuString(ctx, uri))
			case "GoTo":
				d, _ := action.Find("D")
				return pdfcpuDestination(ctx, d, pageOf)
			}
		}
	}
	if d, ok := a.Find("Dest"); ok {
		return pdfcpuDestination(ctx, d, pageOf)
	}
	return ""
}

func pdfcpuDestination(ctx *pdfmodel.Context, obj types.Object, pageOf map[int]int) string {
	switch v := obj.(type) {
	case types.Name:
		return "#" + string(v)
	case types.StringLiteral, types.HexLiteral:
		return "#" + pdfcpuString(ctx, v)
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) == 0 {
		return ""
	}
	if ref, ok := arr[0].(types.IndirectRef); ok {
		if n, ok := pageOf[int(ref.ObjectNumber)]; ok {
			return fmt.Sprintf("#page=%d", n)
		}
	}
	return ""
}

func pdfcpuRect(ctx *pdfmodel.Context, a types.Dict) (model.BBox, bool) {
	obj, ok := a.Find("Rect")
	if !ok {
		return model.BBox{}, false
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return model.BBox{}, false
	}
	var v [4]float64
	for i, o := range arr {
		switch n := o.(type) {
		case types.Integer:
			v[i] = float64(n)
		case types.Float:
			v[i] = float64(n)
		default:
			return model.BBox{}, false
		}
	}
	return model.NewBBoxFromPoints(model.Point{X: v[0], Y: v[1]}, model.Point{X: v[2], Y: v[3]}), true
}

// pdfcpuString converts a string object to UTF-8.
func pdfcpuString(ctx *pdfmodel.Context, obj types.Object) string {
	if ref, ok := obj.(types.IndirectRef); ok {
		o, err := ctx.Dereference(ref)
		if err != nil {
			return ""
		}
		obj = o
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		s := &contentScanner{data: []byte("(" + string(v) + ")")}
		return decodeString(s.literal())
	case types.HexLiteral:
		b, err := hex.DecodeString(string(v))
		if err != nil {
			return ""
		}
		return decodeString(string(b))
	}
	return ""
}

// HasLinkAnnotations reports whether any page carries a /Link annotation.
// Comments, highlights and other annotation types do not count.
func (d *Document) HasLinkAnnotations() bool {
	for n := 1; n <= d.pages; n++ {
		annots := d.page(n).V.Key("Annots")
		for i := 0; i < annots.Len(); i++ {
			if annots.Index(i).Key("Subtype").Name() == "Link" {
				return true
			}
		}
	}
	return false
}
