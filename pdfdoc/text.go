package pdfdoc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// errMultiStream is returned for pages whose /Contents is an array, which
// the positioned-text backend cannot interpret.
var errMultiStream = errors.New("page content split across several streams")

// pageContent returns the positioned text and rectangles of a page. Pages
// without content yield an empty result.
func pageContent(p pdf.Page) (pdf.Content, error) {
	switch p.V.Key("Contents").Kind() {
	case pdf.Null:
		return pdf.Content{}, nil
	case pdf.Stream:
		return p.Content(), nil
	default:
		return pdf.Content{}, errMultiStream
	}
}

// glyphs converts a page's positioned text into glyphs for run assembly.
func glyphs(content pdf.Content) []text.Glyph {
	out := make([]text.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		out = append(out, text.Glyph{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			Width:    t.W,
			FontName: t.Font,
			FontSize: t.FontSize,
		})
	}
	return out
}

// RichText extracts styled text blocks with the ledongthuc backend. A
// parser panic on any page aborts the whole operation.
func (d *Document) RichText() ([]model.TextBlock, error) {
	var blocks []model.TextBlock
	for n := 1; n <= d.pages; n++ {
		p := d.page(n)
		if p.V.IsNull() {
			continue
		}
		content, err := pageContent(p)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		rot := rotation(p)
		for _, r := range text.Runs(glyphs(content)) {
			blocks = append(blocks, runBlock(n-1, rot, r))
		}
	}
	return blocks, nil
}

func runBlock(location, rot int, r text.Run) model.TextBlock {
	font := r.FontName
	if font == "" {
		font = model.UnknownFont
	}
	size := r.FontSize
	if size < 0 || math.IsNaN(size) {
		size = model.UnknownFontSize
	}
	bold, italic := text.FontStyle(font)
	return model.TextBlock{
		Location: location,
		Content:  r.Text,
		FontName: font,
		FontSize: math.Abs(size),
		Bold:     bold,
		Italic:   italic,
		Rotation: rot,
		BBox:     r.BBox.Ptr(),
	}
}

// PlainText extracts text from content-stream operators read through
// pdfcpu. Blocks are one per text line and carry no font metadata or
// geometry.
func (d *Document) PlainText() ([]model.TextBlock, error) {
	ctx, err := d.context()
	if err != nil {
		return nil, err
	}
	var blocks []model.TextBlock
	for n := 1; n <= ctx.PageCount; n++ {
		data, err := pdfcpuContent(ctx, n)
		if err != nil {
			return nil, err
		}
		rot := d.safeRotation(n)
		for _, line := range textLines(data) {
			blocks = append(blocks, model.TextBlock{
				Location: n - 1,
				Content:  line,
				FontName: model.UnknownFont,
				FontSize: model.UnknownFontSize,
				Rotation: rot,
			})
		}
	}
	return blocks, nil
}

func (d *Document) safeRotation(n int) (rot int) {
	defer func() { _ = recover() }()
	return rotation(d.page(n))
}

// textLines collects the strings shown by a content stream, one entry per
// text line. Large negative TJ adjustments become word spaces.
func textLines(data []byte) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := text.Clean(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	scanContent(data, func(op string, args []token) {
		switch op {
		case "BT", "ET", "T*", "TD", "Td", "Tm":
			if op == "Td" && len(args) == 2 && args[1].kind == tokNumber && args[1].num == 0 {
				// Horizontal move on the same line.
				cur.WriteByte(' ')
				return
			}
			flush()
		case "Tj":
			if len(args) > 0 {
				cur.WriteString(decodeString(args[len(args)-1].str))
			}
		case "'", "\"":
			flush()
			if len(args) > 0 {
				cur.WriteString(decodeString(args[len(args)-1].str))
			}
		case "TJ":
			if len(args) == 0 {
				return
			}
			for _, it := range args[len(args)-1].items {
				switch it.kind {
				case tokString:
					cur.WriteString(decodeString(it.str))
				case tokNumber:
					if it.num < -200 {
						cur.WriteByte(' ')
					}
				}
			}
		}
	})
	flush()
	return lines
}

// HasText reports whether any page content stream shows text.
func (d *Document) HasText() bool {
	for n := 1; n <= d.pages; n++ {
		if hasTextOperators(d.rawContent(n)) {
			return true
		}
	}
	return false
}
