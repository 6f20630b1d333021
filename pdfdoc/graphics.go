package pdfdoc

import (
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/tables"
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// multiply returns m × n: m applied first, then n.
func (m matrix) multiply(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) model.Point {
	return model.Point{X: m[0]*x + m[2]*y + m[4], Y: m[1]*x + m[3]*y + m[5]}
}

// ruleExtractor collects the straight segments a content stream paints.
// Curves end the current subpath without contributing segments.
type ruleExtractor struct {
	ctm     matrix
	saved   []matrix
	pending []model.Segment
	painted []model.Segment

	current, start model.Point
}

func newRuleExtractor() *ruleExtractor {
	return &ruleExtractor{ctm: identity}
}

// pageSegments returns the stroked or filled line segments of a content
// stream in user space.
func pageSegments(data []byte) []model.Segment {
	re := newRuleExtractor()
	scanContent(data, re.processOperation)
	return re.painted
}

// operands returns the trailing n numeric operands.
func operands(args []token, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, t := range args[len(args)-n:] {
		if t.kind != tokNumber {
			return nil, false
		}
		out[i] = t.num
	}
	return out, true
}

func (re *ruleExtractor) processOperation(op string, args []token) {
	switch op {
	case "q":
		re.saved = append(re.saved, re.ctm)
	case "Q":
		if n := len(re.saved); n > 0 {
			re.ctm = re.saved[n-1]
			re.saved = re.saved[:n-1]
		}
	case "cm":
		if v, ok := operands(args, 6); ok {
			re.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.multiply(re.ctm)
		}

	case "m":
		if v, ok := operands(args, 2); ok {
			re.current = re.ctm.apply(v[0], v[1])
			re.start = re.current
		}
	case "l":
		if v, ok := operands(args, 2); ok {
			p := re.ctm.apply(v[0], v[1])
			re.pending = append(re.pending, model.Segment{Start: re.current, End: p})
			re.current = p
		}
	case "c", "v", "y":
		if v, ok := operands(args, 2); ok {
			re.current = re.ctm.apply(v[0], v[1])
		}
	case "h":
		re.closePath()
	case "re":
		if v, ok := operands(args, 4); ok {
			r := model.NewBBoxFromPoints(re.ctm.apply(v[0], v[1]), re.ctm.apply(v[0]+v[2], v[1]+v[3]))
			re.pending = append(re.pending, tables.SegmentsFromRect(r, 1)...)
			re.current = re.ctm.apply(v[0], v[1])
			re.start = re.current
		}

	case "s", "b", "b*":
		re.closePath()
		re.paint()
	case "S", "f", "F", "f*", "B", "B*":
		re.paint()
	case "n":
		re.pending = nil
	}
}

func (re *ruleExtractor) closePath() {
	if re.current != re.start {
		re.pending = append(re.pending, model.Segment{Start: re.current, End: re.start})
	}
	re.current = re.start
}

func (re *ruleExtractor) paint() {
	re.painted = append(re.painted, re.pending...)
	re.pending = nil
}
