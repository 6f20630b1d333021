package pptx

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/tsawler/docex/internal/linkscan"
	"github.com/tsawler/docex/internal/opc"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// isDrawing reports whether name is in the DrawingML namespace, in either
// its transitional or strict form.
func isDrawing(name xml.Name) bool {
	return name.Space == nsDrawingML || strings.HasSuffix(name.Space, "/drawingml/main")
}

// TokenText returns the text of each <a:p> on each slide as a plain block,
// gathered from <a:t> elements only. Font fields carry the sentinels.
func (d *Document) TokenText() ([]model.TextBlock, error) {
	var out []model.TextBlock
	for i, s := range d.slides {
		sc := opc.NewScanner(s.data)
		var para strings.Builder
		inText := false

		flush := func() {
			if content := text.Clean(para.String()); content != "" {
				out = append(out, model.TextBlock{
					Location: i,
					Content:  content,
					FontName: model.UnknownFont,
					FontSize: model.UnknownFontSize,
				})
			}
			para.Reset()
		}

		for {
			tok, err := sc.Next()
			if err != nil {
				break
			}
			switch t := tok.(type) {
			case xml.StartElement:
				switch {
				case t.Name.Local == "t" && isDrawing(t.Name):
					inText = true
				case t.Name.Local == "br" && isDrawing(t.Name):
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
				case t.Name.Local == "p" && isDrawing(t.Name):
					flush()
				}
			}
		}
		flush()
	}
	return out, nil
}

// HasText reports whether any <a:t> holds non-whitespace text.
func (d *Document) HasText() bool {
	for _, s := range d.slides {
		sc := opc.NewScanner(s.data)
		inText := false
		for {
			tok, err := sc.Next()
			if err != nil {
				break
			}
			switch t := tok.(type) {
			case xml.StartElement:
				inText = t.Name.Local == "t" && isDrawing(t.Name)
			case xml.CharData:
				if inText && len(bytes.TrimSpace(t)) > 0 {
					return true
				}
			case xml.EndElement:
				inText = false
			}
		}
	}
	return false
}

// RelationshipLinks returns the hyperlink and slide relationships of each
// slide. Slide relationships become internal "#slide=N" targets.
func (d *Document) RelationshipLinks() ([]model.Link, error) {
	var out []model.Link
	for i, s := range d.slides {
		for _, rel := range s.rels {
			var target string
			switch {
			case rel.Is(opc.RelHyperlink):
				target = rel.Target
			case rel.Is(opc.RelSlide):
				target, _ = d.slideTarget(rel.Part)
			}
			if target == "" {
				continue
			}
			out = append(out, model.Link{
				Location: i,
				Target:   linkscan.Normalize(target),
				Kind:     linkscan.Classify(target),
			})
		}
	}
	return out, nil
}

// HasHyperlinks reports whether any slide has a hyperlink or slide
// relationship.
func (d *Document) HasHyperlinks() bool {
	return d.hasRel(opc.RelHyperlink) || d.hasRel(opc.RelSlide)
}

// HasImages reports whether any slide has an image relationship.
func (d *Document) HasImages() bool {
	return d.hasRel(opc.RelImage)
}

func (d *Document) hasRel(suffix string) bool {
	for _, s := range d.slides {
		for _, rel := range s.rels {
			if rel.Is(suffix) {
				return true
			}
		}
	}
	return false
}

// RelationshipImages returns the image relationships of each slide, one
// record per part and slide.
func (d *Document) RelationshipImages() ([]model.Image, error) {
	var out []model.Image
	for i := range d.slides {
		out = append(out, d.relationshipImages(i, make(map[string]bool))...)
	}
	return out, nil
}

// TokenTables rebuilds tables from <a:tr>, <a:tc> and <a:t> tokens. Merged
// cells are blanked as in the shape walk; styles are not read.
func (d *Document) TokenTables() ([]model.Table, error) {
	var out []model.Table
	for i, s := range d.slides {
		sc := opc.NewScanner(s.data)
		var (
			rows     [][]string
			row      []string
			cell     strings.Builder
			inTable  bool
			inText   bool
			merged   bool
			cellOpen bool
		)

		for {
			tok, err := sc.Next()
			if err != nil {
				break
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if !isDrawing(t.Name) {
					continue
				}
				switch t.Name.Local {
				case "tbl":
					inTable, rows = true, nil
				case "tr":
					row = []string{}
				case "tc":
					cell.Reset()
					cellOpen = true
					merged = false
					for _, a := range t.Attr {
						if (a.Name.Local == "hMerge" || a.Name.Local == "vMerge") && (a.Value == "1" || a.Value == "true") {
							merged = true
						}
					}
				case "t":
					inText = inTable && cellOpen
				case "p":
					if cellOpen {
						cell.WriteByte(' ')
					}
				}
			case xml.CharData:
				if inText {
					cell.Write(t)
				}
			case xml.EndElement:
				if !isDrawing(t.Name) {
					continue
				}
				switch t.Name.Local {
				case "t":
					inText = false
				case "tc":
					content := text.Clean(cell.String())
					if merged {
						content = ""
					}
					row = append(row, content)
					cellOpen = false
				case "tr":
					rows = append(rows, row)
				case "tbl":
					if inTable && len(rows) > 0 {
						out = append(out, model.NewTable(i, rows, ""))
					}
					inTable = false
				}
			}
		}
	}
	return out, nil
}

// HasTables reports whether any slide contains an <a:tbl> element.
func (d *Document) HasTables() bool {
	for _, s := range d.slides {
		sc := opc.NewScanner(s.data)
		for {
			tok, err := sc.Next()
			if err != nil {
				break
			}
			if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "tbl" && isDrawing(se.Name) {
				return true
			}
		}
	}
	return false
}
