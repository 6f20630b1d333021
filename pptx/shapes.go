package pptx

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tsawler/docex/internal/imagemeta"
	"github.com/tsawler/docex/internal/linkscan"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// slideResult holds the records found on one slide by the shape walk.
type slideResult struct {
	blocks []model.TextBlock
	links  []model.Link
	images []model.Image
	tables []model.Table
	seen   map[string]bool // image parts already emitted
}

// affine maps child coordinates to slide coordinates, per axis: x' = ax*x + bx.
type affine struct {
	ax, bx, ay, by float64
}

var identity = affine{ax: 1, ay: 1}

// group composes a with the child transform of a group's <a:xfrm>.
func (a affine) group(xfrm *node) affine {
	if xfrm == nil {
		return a
	}
	off, ext := xfrm.child("off"), xfrm.child("ext")
	chOff, chExt := xfrm.child("chOff"), xfrm.child("chExt")

	sx, sy := 1.0, 1.0
	if cx := float64(chExt.intAttr("cx")); cx > 0 && ext != nil {
		sx = float64(ext.intAttr("cx")) / cx
	}
	if cy := float64(chExt.intAttr("cy")); cy > 0 && ext != nil {
		sy = float64(ext.intAttr("cy")) / cy
	}
	local := affine{
		ax: sx,
		bx: float64(off.intAttr("x")) - float64(chOff.intAttr("x"))*sx,
		ay: sy,
		by: float64(off.intAttr("y")) - float64(chOff.intAttr("y"))*sy,
	}
	return affine{
		ax: a.ax * local.ax,
		bx: a.ax*local.bx + a.bx,
		ay: a.ay * local.ay,
		by: a.ay*local.by + a.by,
	}
}

// placement is a shape's position on the slide.
type placement struct {
	box      *model.BBox // points
	rotation int         // degrees
	width    int         // pixels
	height   int
}

func place(xfrm *node, xf affine) placement {
	if xfrm == nil {
		return placement{}
	}
	off, ext := xfrm.child("off"), xfrm.child("ext")
	x := xf.ax*float64(off.intAttr("x")) + xf.bx
	y := xf.ay*float64(off.intAttr("y")) + xf.by
	w := xf.ax * float64(ext.intAttr("cx"))
	h := xf.ay * float64(ext.intAttr("cy"))

	rot := int(xfrm.intAttr("rot")/rotPerDeg) % 360
	if rot < 0 {
		rot += 360
	}
	return placement{
		box:      model.NewBBox(x/emuPerPoint, y/emuPerPoint, w/emuPerPoint, h/emuPerPoint).Ptr(),
		rotation: rot,
		width:    int(w/emuPerPixel + 0.5),
		height:   int(h/emuPerPixel + 0.5),
	}
}

// item is a pending shape on the worklist.
type item struct {
	n  *node
	xf affine
}

// push adds the children of parent in reverse, so they pop in document order.
func push(stack []item, parent *node, xf affine) []item {
	for i := len(parent.Nodes) - 1; i >= 0; i-- {
		stack = append(stack, item{n: &parent.Nodes[i], xf: xf})
	}
	return stack
}

// slideWalker collects records from one slide.
type slideWalker struct {
	doc   *Document
	slide *slide
	index int
	res   *slideResult
}

func (d *Document) walkSlides() ([]slideResult, error) {
	out := make([]slideResult, len(d.slides))
	for i, s := range d.slides {
		var sx slideXML
		if err := xml.Unmarshal(s.data, &sx); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", s.name, err)
		}
		out[i].seen = make(map[string]bool)
		w := &slideWalker{doc: d, slide: s, index: i, res: &out[i]}
		w.run(&sx.CSld.SpTree)
	}
	return out, nil
}

// run visits the shape tree with an explicit stack. Groups and
// markup-compatibility choices push their children; nesting depth is
// bounded only by the input.
func (w *slideWalker) run(tree *node) {
	stack := push(nil, tree, identity)
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch it.n.XMLName.Local {
		case "sp":
			w.shape(it)
		case "pic":
			w.picture(it)
		case "graphicFrame":
			w.frame(it)
		case "grpSp":
			stack = push(stack, it.n, it.xf.group(it.n.path("grpSpPr", "xfrm")))
		case "AlternateContent":
			if choice := it.n.child("Choice"); choice != nil {
				stack = push(stack, choice, it.xf)
			}
		}
	}
}

func (w *slideWalker) shape(it item) {
	p := place(it.n.path("spPr", "xfrm"), it.xf)
	content := w.textBody(it.n.child("txBody"), p)
	if h := it.n.path("nvSpPr", "cNvPr", "hlinkClick"); h != nil {
		w.shapeLink(h, content, p)
	}
	// Picture fill on an ordinary shape.
	if blip := it.n.path("spPr", "blipFill", "blip"); blip != nil {
		w.image(blip, p)
	}
}

func (w *slideWalker) picture(it item) {
	p := place(it.n.path("spPr", "xfrm"), it.xf)
	if blip := it.n.path("blipFill", "blip"); blip != nil {
		w.image(blip, p)
	}
	cNvPr := it.n.path("nvPicPr", "cNvPr")
	if h := cNvPr.child("hlinkClick"); h != nil {
		label := cNvPr.attr("descr")
		if label == "" {
			label = cNvPr.attr("name")
		}
		w.shapeLink(h, text.Clean(label), p)
	}
}

func (w *slideWalker) frame(it item) {
	p := place(it.n.child("xfrm"), it.xf)
	if tbl := it.n.path("graphic", "graphicData", "tbl"); tbl != nil {
		w.table(tbl, p)
	}
	cNvPr := it.n.path("nvGraphicFramePr", "cNvPr")
	if h := cNvPr.child("hlinkClick"); h != nil {
		w.shapeLink(h, text.Clean(cNvPr.attr("name")), p)
	}
}

// table records a DrawingML table. Every <a:tc> is one grid column; cells
// covered by a span or merge carry empty text.
func (w *slideWalker) table(tbl *node, p placement) {
	var rows [][]string
	for _, tr := range tbl.children("tr") {
		row := []string{}
		for _, tc := range tr.children("tc") {
			content := w.textBody(tc.child("txBody"), p)
			if tc.flag("hMerge") || tc.flag("vMerge") {
				content = ""
			}
			row = append(row, content)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return
	}
	style := strings.TrimSpace(tbl.path("tblPr", "tableStyleId").text())
	w.res.tables = append(w.res.tables, model.NewTable(w.index, rows, style))
}

// image records the picture a blip embeds, once per slide and part.
func (w *slideWalker) image(blip *node, p placement) {
	rel, ok := w.slide.relMap[blip.relAttr("embed")]
	if !ok || rel.External || rel.Part == "" || w.res.seen[rel.Part] {
		return
	}
	w.res.seen[rel.Part] = true

	data, err := w.doc.pkg.Read(rel.Part)
	if err != nil {
		return
	}
	img, ok := imagemeta.Record(w.index, data, rel.Part, model.OriginDirectShape, rel.Part)
	if !ok {
		return
	}
	w.res.images = append(w.res.images, imagemeta.WithSize(img, p.width, p.height))
}

// shapeLink records a click action on a whole shape.
func (w *slideWalker) shapeLink(h *node, label string, p placement) {
	target, ok := w.linkTarget(h)
	if !ok {
		return
	}
	w.res.links = append(w.res.links, model.Link{
		Location: w.index,
		Target:   linkscan.Normalize(target),
		Text:     label,
		Region:   p.box,
		Kind:     linkscan.Classify(target),
	})
}

// linkTarget resolves an <a:hlinkClick>. Slide jumps become "#slide=N";
// other actions without a relationship keep the action URL.
func (w *slideWalker) linkTarget(h *node) (string, bool) {
	action := h.attr("action")
	rel, hasRel := w.slide.relMap[h.relAttr("id")]

	switch {
	case strings.HasPrefix(action, "ppaction://hlinksldjump"):
		if !hasRel {
			return "", false
		}
		return w.doc.slideTarget(rel.Part)
	case hasRel && rel.External:
		return rel.Target, rel.Target != ""
	case hasRel:
		if target, ok := w.doc.slideTarget(rel.Part); ok {
			return target, true
		}
		return rel.Target, rel.Target != ""
	case action != "":
		return action, true
	}
	return "", false
}

// runStyle is the font of one text run.
type runStyle struct {
	font   string
	size   float64
	bold   bool
	italic bool
}

// styleOf reads <a:rPr>. Theme font references ("+mn-lt") are not resolved.
func styleOf(rPr *node) runStyle {
	st := runStyle{font: model.UnknownFont, size: model.UnknownFontSize}
	if rPr == nil {
		return st
	}
	if sz := rPr.intAttr("sz"); sz > 0 {
		st.size = float64(sz) / 100
	}
	st.bold = rPr.flag("b")
	st.italic = rPr.flag("i")
	if tf := rPr.child("latin").attr("typeface"); tf != "" && !strings.HasPrefix(tf, "+") {
		st.font = tf
	}
	return st
}

// textBody emits the blocks and links of a text body and returns its plain
// text.
func (w *slideWalker) textBody(body *node, p placement) string {
	var parts []string
	for _, para := range body.children("p") {
		if s := w.paragraph(para, p); s != "" {
			parts = append(parts, s)
		}
	}
	return text.Clean(strings.Join(parts, " "))
}

// paragraph merges consecutive runs of the same style into one block and
// consecutive runs with the same click target into one link.
func (w *slideWalker) paragraph(para *node, p placement) string {
	var (
		full, plain strings.Builder
		block       strings.Builder
		style       *runStyle
		link        strings.Builder
		linkTarget  string
	)

	flushBlock := func() {
		if style != nil {
			if content := text.Clean(block.String()); content != "" {
				w.res.blocks = append(w.res.blocks, model.TextBlock{
					Location: w.index,
					Content:  content,
					FontName: style.font,
					FontSize: style.size,
					Bold:     style.bold,
					Italic:   style.italic,
					Rotation: p.rotation,
					BBox:     p.box,
				})
			}
		}
		block.Reset()
		style = nil
	}
	flushLink := func() {
		if linkTarget != "" {
			w.res.links = append(w.res.links, model.Link{
				Location: w.index,
				Target:   linkscan.Normalize(linkTarget),
				Text:     text.Clean(link.String()),
				Region:   p.box,
				Kind:     linkscan.Classify(linkTarget),
			})
		}
		link.Reset()
		linkTarget = ""
	}

	for i := range para.Nodes {
		c := &para.Nodes[i]
		switch c.XMLName.Local {
		case "r", "fld":
			t := c.child("t")
			if t == nil || t.Text == "" {
				continue
			}
			rPr := c.child("rPr")
			st := styleOf(rPr)
			if style == nil || *style != st {
				flushBlock()
				style = &st
			}
			block.WriteString(t.Text)
			full.WriteString(t.Text)

			target := ""
			if h := rPr.child("hlinkClick"); h != nil {
				target, _ = w.linkTarget(h)
			}
			if target != linkTarget {
				flushLink()
			}
			if target == "" {
				plain.WriteString(t.Text)
				continue
			}
			linkTarget = target
			link.WriteString(t.Text)
			plain.WriteByte(' ')
		case "br":
			block.WriteByte('\n')
			full.WriteByte(' ')
			plain.WriteByte(' ')
		}
	}
	flushBlock()
	flushLink()

	w.res.links = append(w.res.links, linkscan.Links(w.index, plain.String())...)
	return full.String()
}

// slideAnchor is the internal link target of the slide at index i.
func slideAnchor(i int) string {
	return fmt.Sprintf("#slide=%d", i+1)
}
