package pdfdoc

import (
	"math"
	"unicode/utf8"

	"github.com/tsawler/docex/text"
)

// averageAdvance is the assumed glyph width in text space units per unit
// of font size. No font programs are read, so widths are estimates.
const averageAdvance = 0.5

// textState follows the text and graphics state of a content stream far
// enough to place each shown string on the page.
type textState struct {
	ctm   matrix
	saved []matrix
	tm    matrix // text matrix
	tlm   matrix // text line matrix

	font       string
	size       float64
	leading    float64
	charSpace  float64
	wordSpace  float64
	scale      float64 // horizontal scaling, 1 = 100%
	rise       float64
	savedState []textParams

	glyphs []text.Glyph
}

// textParams are the text state parameters saved by q and restored by Q.
type textParams struct {
	font                                             string
	size, leading, charSpace, wordSpace, scale, rise float64
}

// streamGlyphs returns the strings a content stream shows, positioned in
// user space. Each string, and each string element of a TJ array, becomes
// one glyph run.
func streamGlyphs(data []byte) []text.Glyph {
	ts := &textState{ctm: identity, tm: identity, tlm: identity, scale: 1}
	scanContent(data, ts.processOperation)
	return ts.glyphs
}

func (ts *textState) processOperation(op string, args []token) {
	switch op {
	case "q":
		ts.saved = append(ts.saved, ts.ctm)
		ts.savedState = append(ts.savedState, ts.params())
	case "Q":
		if n := len(ts.saved); n > 0 {
			ts.ctm = ts.saved[n-1]
			ts.saved = ts.saved[:n-1]
		}
		if n := len(ts.savedState); n > 0 {
			ts.restore(ts.savedState[n-1])
			ts.savedState = ts.savedState[:n-1]
		}
	case "cm":
		if v, ok := operands(args, 6); ok {
			ts.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.multiply(ts.ctm)
		}

	case "BT":
		ts.tm, ts.tlm = identity, identity
	case "Tf":
		if len(args) >= 2 && args[len(args)-1].kind == tokNumber {
			ts.size = args[len(args)-1].num
			if name := args[len(args)-2]; name.kind == tokName {
				ts.font = name.str
			}
		}
	case "TL":
		if v, ok := operands(args, 1); ok {
			ts.leading = v[0]
		}
	case "Tc":
		if v, ok := operands(args, 1); ok {
			ts.charSpace = v[0]
		}
	case "Tw":
		if v, ok := operands(args, 1); ok {
			ts.wordSpace = v[0]
		}
	case "Tz":
		if v, ok := operands(args, 1); ok {
			ts.scale = v[0] / 100
		}
	case "Ts":
		if v, ok := operands(args, 1); ok {
			ts.rise = v[0]
		}
	case "Td":
		if v, ok := operands(args, 2); ok {
			ts.moveLine(v[0], v[1])
		}
	case "TD":
		if v, ok := operands(args, 2); ok {
			ts.leading = -v[1]
			ts.moveLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := operands(args, 6); ok {
			ts.tm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			ts.tlm = ts.tm
		}
	case "T*":
		ts.moveLine(0, -ts.leading)

	case "Tj":
		if len(args) > 0 {
			ts.show(args[len(args)-1].str)
		}
	case "'":
		ts.moveLine(0, -ts.leading)
		if len(args) > 0 {
			ts.show(args[len(args)-1].str)
		}
	case "\"":
		if v, ok := operands(args[:max(len(args)-1, 0)], 2); ok {
			ts.wordSpace, ts.charSpace = v[0], v[1]
		}
		ts.moveLine(0, -ts.leading)
		if len(args) > 0 {
			ts.show(args[len(args)-1].str)
		}
	case "TJ":
		if len(args) == 0 {
			return
		}
		for _, it := range args[len(args)-1].items {
			switch it.kind {
			case tokString:
				ts.show(it.str)
			case tokNumber:
				ts.advance(-it.num / 1000 * ts.size * ts.scale)
			}
		}
	}
}

func (ts *textState) params() textParams {
	return textParams{ts.font, ts.size, ts.leading, ts.charSpace, ts.wordSpace, ts.scale, ts.rise}
}

func (ts *textState) restore(p textParams) {
	ts.font, ts.size, ts.leading = p.font, p.size, p.leading
	ts.charSpace, ts.wordSpace, ts.scale, ts.rise = p.charSpace, p.wordSpace, p.scale, p.rise
}

// moveLine starts a new line offset from the start of the current one.
func (ts *textState) moveLine(tx, ty float64) {
	ts.tlm = matrix{1, 0, 0, 1, tx, ty}.multiply(ts.tlm)
	ts.tm = ts.tlm
}

// advance moves the text matrix tx units along the baseline.
func (ts *textState) advance(tx float64) {
	ts.tm = matrix{1, 0, 0, 1, tx, 0}.multiply(ts.tm)
}

// show records raw as one glyph run at the current position and moves past
// its estimated width.
func (ts *textState) show(raw string) {
	s := decodeString(raw)
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return
	}
	spaces := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == ' ' {
			spaces++
		}
	}
	tx := (float64(n)*(averageAdvance*ts.size+ts.charSpace) + float64(spaces)*ts.wordSpace) * ts.scale

	trm := matrix{ts.size * ts.scale, 0, 0, ts.size, 0, ts.rise}.multiply(ts.tm.multiply(ts.ctm))
	start := trm.apply(0, 0)
	end := ts.tm.multiply(ts.ctm).apply(tx, ts.rise)
	ts.glyphs = append(ts.glyphs, text.Glyph{
		Text:     s,
		X:        start.X,
		Y:        start.Y,
		Width:    math.Hypot(end.X-start.X, end.Y-start.Y),
		FontName: ts.font,
		FontSize: math.Hypot(trm[2], trm[3]),
	})
	ts.advance(tx)
}
