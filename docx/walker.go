package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tsawler/docex/internal/linkscan"
	"github.com/tsawler/docex/internal/opc"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// body is everything the structured pass finds, in document order.
type body struct {
	blocks []model.TextBlock
	links  []model.Link
	images []drawingRef
	tables []model.Table
}

// drawingRef is an image reference found in a drawing or VML shape.
type drawingRef struct {
	location int
	relID    string
	width    int // pixels at 96 dpi, from the drawing extent
	height   int
}

// pendingLink is an open <w:hyperlink>.
type pendingLink struct {
	location int
	target   string
	text     strings.Builder
}

// field is an open complex or simple field.
type field struct {
	location int
	instr    strings.Builder
	result   bool   // past the separator, text is the field result
	target   string // set for HYPERLINK fields once the instruction is complete
	text     strings.Builder
}

// walker is a single streaming pass over word/document.xml. Elements whose
// content is needed as a whole (pPr, rPr, tblPr, tcPr) are decoded in
// place; everything else is handled token by token so that paragraphs,
// tables and drawings keep their physical order.
type walker struct {
	dec    *xml.Decoder
	rels   map[string]opc.Relationship
	styles *StyleResolver
	out    body

	page      int
	started   bool // a paragraph has ended; pageBreakBefore now counts
	paraStyle string
	paraText  strings.Builder // text outside explicit links, scanned for patterns
	runProps  runPropsXML

	block     *model.TextBlock
	blockText strings.Builder

	link   *pendingLink
	fields []*field

	tables []*tableBuilder
	slots  []*model.Table
}

func walkDocument(data []byte, rels map[string]opc.Relationship, styles *StyleResolver) (*body, error) {
	w := &walker{
		dec:    xml.NewDecoder(bytes.NewReader(data)),
		rels:   rels,
		styles: styles,
	}
	if err := w.walk(); err != nil {
		return nil, fmt.Errorf("walking document: %w", err)
	}
	return &w.out, nil
}

func (w *walker) walk() error {
	for {
		tok, err := w.dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := w.start(t); err != nil {
				return err
			}
		case xml.EndElement:
			w.end(t)
		}
	}

	w.endParagraph()
	for _, t := range w.slots {
		if t != nil {
			w.out.tables = append(w.out.tables, *t)
		}
	}
	return nil
}

func (w *walker) start(se xml.StartElement) error {
	switch se.Name.Local {
	case "p":
		w.paraStyle = ""
		w.paraText.Reset()

	case "pPr":
		var ppr paragraphPropsXML
		if err := w.dec.DecodeElement(&ppr, &se); err != nil {
			return err
		}
		w.paraStyle = ppr.Style.Val
		if ppr.PageBreakBefore.On() && w.started {
			w.breakPage()
		}

	case "r":
		w.runProps = runPropsXML{}

	case "rPr":
		return w.dec.DecodeElement(&w.runProps, &se)

	case "t":
		var s string
		if err := w.dec.DecodeElement(&s, &se); err != nil {
			return err
		}
		w.emit(s)

	case "tab", "ptab":
		w.emit("\t")

	case "br", "cr":
		if attr(se, "type") == "page" {
			w.breakPage()
		} else {
			w.emit("\n")
		}

	case "noBreakHyphen":
		w.emit("-")

	case "sym":
		if r, err := strconv.ParseUint(attr(se, "char"), 16, 32); err == nil && r > 0 {
			w.emit(string(rune(r)))
		}

	case "instrText":
		var s string
		if err := w.dec.DecodeElement(&s, &se); err != nil {
			return err
		}
		if n := len(w.fields); n > 0 && !w.fields[n-1].result {
			w.fields[n-1].instr.WriteString(s)
		}

	case "fldChar":
		switch attr(se, "fldCharType") {
		case "begin":
			w.fields = append(w.fields, &field{location: w.page})
		case "separate":
			if n := len(w.fields); n > 0 {
				w.fields[n-1].separate()
			}
		case "end":
			w.closeField()
		}

	case "fldSimple":
		f := &field{location: w.page}
		f.instr.WriteString(attr(se, "instr"))
		f.separate()
		w.fields = append(w.fields, f)

	case "hyperlink":
		w.openLink(se)

	case "drawing":
		return w.collect(se, "blip", "embed")

	case "pict", "object":
		return w.collect(se, "imagedata", "id")

	case "Fallback", "del", "moveFrom", "sectPr":
		// Fallback duplicates the Choice branch of mc:AlternateContent.
		return w.dec.Skip()

	case "tbl":
		w.flushBlock()
		w.tables = append(w.tables, newTableBuilder(w.page))
		w.slots = append(w.slots, nil)
		w.tables[len(w.tables)-1].slot = len(w.slots) - 1

	case "tblPr":
		var tp tablePropsXML
		if err := w.dec.DecodeElement(&tp, &se); err != nil {
			return err
		}
		if tb := w.table(); tb != nil && tp.Style.Val != "" {
			tb.style = w.styles.StyleName(tp.Style.Val)
		}

	case "tr":
		if tb := w.table(); tb != nil {
			tb.startRow()
		}

	case "gridBefore":
		if tb := w.table(); tb != nil {
			n, _ := strconv.Atoi(attr(se, "val"))
			tb.pad(n)
		}

	case "tc":
		if tb := w.table(); tb != nil {
			tb.startCell()
		}

	case "tcPr":
		var cp cellPropsXML
		if err := w.dec.DecodeElement(&cp, &se); err != nil {
			return err
		}
		if tb := w.table(); tb != nil {
			tb.span = cp.GridSpan.span()
			tb.continued = cp.VMerge != nil && cp.VMerge.Val != "restart"
		}
	}
	return nil
}

func (w *walker) end(e xml.EndElement) {
	switch e.Name.Local {
	case "p":
		w.endParagraph()
		w.started = true
		if tb := w.table(); tb != nil {
			tb.write("\n")
		}
	case "r":
		w.runProps = runPropsXML{}
	case "hyperlink":
		w.closeLink()
	case "fldSimple":
		w.closeField()
	case "tc":
		if tb := w.table(); tb != nil {
			tb.endCell()
		}
	case "tr":
		if tb := w.table(); tb != nil {
			tb.endRow()
		}
	case "tbl":
		w.endTable()
	}
}

// emit appends run text to the current block, starting a new block when the
// resolved style differs from the previous run's.
func (w *walker) emit(s string) {
	if s == "" {
		return
	}

	rs := w.styles.ResolveRun(w.paraStyle, w.runProps)
	if b := w.block; b == nil || b.FontName != rs.FontName || b.FontSize != rs.FontSize ||
		b.Bold != rs.Bold || b.Italic != rs.Italic {
		w.flushBlock()
		w.block = &model.TextBlock{
			Location: w.page,
			FontName: rs.FontName,
			FontSize: rs.FontSize,
			Bold:     rs.Bold,
			Italic:   rs.Italic,
		}
	}
	w.blockText.WriteString(s)

	linked := false
	if w.link != nil {
		w.link.text.WriteString(s)
		linked = true
	}
	for _, f := range w.fields {
		if f.result {
			f.text.WriteString(s)
			linked = linked || f.target != ""
		}
	}
	if linked {
		w.paraText.WriteByte(' ')
	} else {
		w.paraText.WriteString(s)
	}

	if tb := w.table(); tb != nil {
		tb.write(s)
	}
}

func (w *walker) flushBlock() {
	if w.block == nil {
		return
	}
	if content := text.Clean(w.blockText.String()); content != "" {
		w.block.Content = content
		w.out.blocks = append(w.out.blocks, *w.block)
	}
	w.block = nil
	w.blockText.Reset()
}

// endParagraph closes the current block and scans the paragraph's unlinked
// text for URL and email patterns.
func (w *walker) endParagraph() {
	w.flushBlock()
	w.out.links = append(w.out.links, linkscan.Links(w.page, w.paraText.String())...)
	w.paraText.Reset()
}

// breakPage ends the text on the current page. Text after the break belongs
// to the next page even within the same paragraph.
func (w *walker) breakPage() {
	w.endParagraph()
	w.page++
}

func (w *walker) openLink(se xml.StartElement) {
	var target string
	if id := relAttr(se, "id"); id != "" {
		if rel, ok := w.rels[id]; ok {
			target = rel.Target
		}
	}
	if anchor := attr(se, "anchor"); anchor != "" {
		target += "#" + anchor
	}
	w.link = &pendingLink{location: w.page, target: target}
}

func (w *walker) closeLink() {
	l := w.link
	w.link = nil
	if l == nil || l.target == "" {
		return
	}
	w.addLink(l.location, l.target, l.text.String())
}

func (w *walker) closeField() {
	n := len(w.fields)
	if n == 0 {
		return
	}
	f := w.fields[n-1]
	w.fields = w.fields[:n-1]
	if !f.result {
		f.separate()
	}
	if f.target != "" {
		w.addLink(f.location, f.target, f.text.String())
	}
}

func (w *walker) addLink(location int, target, label string) {
	w.out.links = append(w.out.links, model.Link{
		Location: location,
		Target:   linkscan.Normalize(target),
		Text:     text.Clean(label),
		Kind:     linkscan.Classify(target),
	})
}

// separate marks the end of the field instruction.
func (f *field) separate() {
	f.result = true
	f.target = hyperlinkTarget(f.instr.String())
}

// hyperlinkTarget returns the target of a HYPERLINK field instruction such
// as `HYPERLINK "https://example.com" \o "tip"` or `HYPERLINK \l "intro"`,
// or "" for any other field.
func hyperlinkTarget(instr string) string {
	args := fieldArgs(instr)
	if len(args) == 0 || !strings.EqualFold(args[0], "HYPERLINK") {
		return ""
	}

	var target, anchor string
	for i := 1; i < len(args); i++ {
		switch strings.ToLower(args[i]) {
		case `\l`:
			if i+1 < len(args) {
				anchor = args[i+1]
				i++
			}
		case `\o`, `\t`:
			i++
		case `\m`, `\n`, `\h`:
		default:
			if target == "" {
				target = args[i]
			}
		}
	}
	if anchor != "" {
		return target + "#" + anchor
	}
	return target
}

// fieldArgs splits a field instruction into words. Double-quoted arguments
// are kept whole without their quotes.
func fieldArgs(instr string) []string {
	var args []string
	var cur strings.Builder
	quoted, have := false, false
	for _, r := range instr {
		switch {
		case r == '"':
			quoted = !quoted
			have = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if have {
				args = append(args, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if have {
		args = append(args, cur.String())
	}
	return args
}

// collect consumes a drawing or VML element and records every image
// reference held in the given element and relationship attribute.
func (w *walker) collect(start xml.StartElement, element, relAttribute string) error {
	width, height := 0, 0
	var ids []string
	for depth := 1; depth > 0; {
		tok, err := w.dec.Token()
		if err != nil {
			return fmt.Errorf("reading %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "extent":
				width, height = emuToPixels(attr(t, "cx")), emuToPixels(attr(t, "cy"))
			case element:
				if id := relAttr(t, relAttribute); id != "" {
					ids = append(ids, id)
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	for _, id := range ids {
		w.out.images = append(w.out.images, drawingRef{
			location: w.page,
			relID:    id,
			width:    width,
			height:   height,
		})
	}
	return nil
}

// emuToPixels converts English Metric Units to pixels at 96 dpi.
func emuToPixels(s string) int {
	emu, err := strconv.ParseInt(s, 10, 64)
	if err != nil || emu <= 0 {
		return 0
	}
	return int(emu / 9525)
}

func (w *walker) table() *tableBuilder {
	if n := len(w.tables); n > 0 {
		return w.tables[n-1]
	}
	return nil
}

// endTable closes the innermost table. Its record fills the slot reserved
// when the table opened, so outer tables precede the tables nested in them.
func (w *walker) endTable() {
	n := len(w.tables)
	if n == 0 {
		return
	}
	tb := w.tables[n-1]
	w.tables = w.tables[:n-1]
	if t, ok := tb.build(); ok {
		w.slots[tb.slot] = &t
	}
}
