package docx

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/tsawler/docex/internal/imagemeta"
	"github.com/tsawler/docex/internal/linkscan"
	"github.com/tsawler/docex/internal/opc"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// scanner is a lenient token pass over the document part that counts
// page breaks. The secondary backends and the probes build on it without
// the styles or the structured walk.
type scanner struct {
	*opc.Scanner
	page int
}

func newScanner(data []byte) *scanner {
	return &scanner{Scanner: opc.NewScanner(data)}
}

// isWord reports whether name is in the WordprocessingML namespace, in
// either its transitional or strict form.
func isWord(name xml.Name) bool {
	return name.Space == nsW || strings.HasSuffix(name.Space, "/wordprocessingml/main")
}

func isPageBreak(se xml.StartElement) bool {
	return se.Name.Local == "br" && attr(se, "type") == "page"
}

// TokenText returns the text of each paragraph as a plain block, gathered
// from <w:t> elements only. Font fields carry the sentinels.
func (d *Document) TokenText() ([]model.TextBlock, error) {
	s := newScanner(d.body)
	var out []model.TextBlock
	var para strings.Builder
	inText := false

	flush := func() {
		if content := text.Clean(para.String()); content != "" {
			out = append(out, model.TextBlock{
				Location: s.page,
				Content:  content,
				FontName: model.UnknownFont,
				FontSize: model.UnknownFontSize,
			})
		}
		para.Reset()
	}

	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "t" && isWord(t.Name):
				inText = true
			case isPageBreak(t):
				flush()
				s.page++
			case t.Name.Local == "tab", t.Name.Local == "br", t.Name.Local == "cr":
				para.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "t":
				inText = false
			case t.Name.Local == "p" && isWord(t.Name):
				flush()
			}
		}
	}
	flush()
	return out, nil
}

// HasText reports whether any <w:t> holds non-whitespace text.
func (d *Document) HasText() bool {
	s := newScanner(d.body)
	inText := false
	for {
		tok, err := s.Next()
		if err != nil {
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t" && isWord(t.Name)
		case xml.CharData:
			if inText && len(bytes.TrimSpace(t)) > 0 {
				return true
			}
		case xml.EndElement:
			inText = false
		}
	}
}

// RelationshipLinks returns one link per hyperlink relationship of the
// document part. Relationships carry no position, so every link is placed
// at location 0.
func (d *Document) RelationshipLinks() ([]model.Link, error) {
	var out []model.Link
	for _, rel := range d.rels {
		if !rel.Is(opc.RelHyperlink) || rel.Target == "" {
			continue
		}
		out = append(out, model.Link{
			Target: linkscan.Normalize(rel.Target),
			Kind:   linkscan.Classify(rel.Target),
		})
	}
	return out, nil
}

// HasHyperlinks reports whether the document part has a hyperlink
// relationship.
func (d *Document) HasHyperlinks() bool {
	return d.hasRel(opc.RelHyperlink)
}

// HasImages reports whether the document part has an image relationship.
func (d *Document) HasImages() bool {
	return d.hasRel(opc.RelImage)
}

func (d *Document) hasRel(suffix string) bool {
	for _, rel := range d.rels {
		if rel.Is(suffix) {
			return true
		}
	}
	return false
}

// RelationshipImages returns every image reachable from the document
// part's relationships, then any media part no relationship names.
func (d *Document) RelationshipImages() ([]model.Image, error) {
	seen := make(map[string]bool)
	out := d.relationshipImages(seen)
	for _, name := range d.pkg.Names() {
		if !strings.HasPrefix(name, "word/media/") || seen[name] {
			continue
		}
		data, err := d.pkg.Read(name)
		if err != nil {
			continue
		}
		if img, ok := imagemeta.Record(0, data, name, model.OriginRelationship, name); ok {
			out = append(out, img)
		}
	}
	return out, nil
}

// TokenTables rebuilds tables from row, cell and text tokens alone. Column
// spans are honoured; vertical merges and styles are not.
func (d *Document) TokenTables() ([]model.Table, error) {
	s := newScanner(d.body)
	var stack []*tableBuilder
	var slots []*model.Table
	inText := false

	top := func() *tableBuilder {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "br":
				if isPageBreak(t) {
					s.page++
				}
			case "tbl":
				tb := newTableBuilder(s.page)
				tb.slot = len(slots)
				slots = append(slots, nil)
				stack = append(stack, tb)
			case "tr":
				if tb := top(); tb != nil {
					tb.startRow()
				}
			case "tc":
				if tb := top(); tb != nil {
					tb.startCell()
				}
			case "gridSpan":
				if tb := top(); tb != nil {
					if n, err := strconv.Atoi(attr(t, "val")); err == nil && n > 1 {
						tb.span = n
					}
				}
			case "t":
				inText = true
			}
		case xml.CharData:
			if tb := top(); tb != nil && inText {
				tb.write(string(t))
			}
		case xml.EndElement:
			if !isWord(t.Name) {
				continue
			}
			tb := top()
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tb != nil {
					tb.write("\n")
				}
			case "tc":
				if tb != nil {
					tb.endCell()
				}
			case "tr":
				if tb != nil {
					tb.endRow()
				}
			case "tbl":
				if tb != nil {
					stack = stack[:len(stack)-1]
					if rec, ok := tb.build(); ok {
						slots[tb.slot] = &rec
					}
				}
			}
		}
	}

	var out []model.Table
	for _, t := range slots {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

// HasTables reports whether the document contains a <w:tbl> element.
func (d *Document) HasTables() bool {
	s := newScanner(d.body)
	for {
		tok, err := s.Next()
		if err != nil {
			return false
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "tbl" && isWord(se.Name) {
			return true
		}
	}
}
