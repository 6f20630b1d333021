package text

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/docex/model"
)

// Glyph is one positioned piece of text as reported by a PDF backend.
// Y is the baseline; coordinates are PDF user space.
type Glyph struct {
	Text     string
	X, Y     float64
	Width    float64
	FontName string
	FontSize float64
}

// Run is a contiguous piece of uniformly styled text.
type Run struct {
	Text     string
	FontName string
	FontSize float64
	BBox     model.BBox
}

// Runs converts glyphs in content-stream order into styled runs.
func Runs(glyphs []Glyph) []Run {
	var lineRuns [][]Run
	for _, line := range groupByLine(glyphs) {
		if rs := splitLine(line); len(rs) > 0 {
			lineRuns = append(lineRuns, rs)
		}
	}
	return joinLines(lineRuns)
}

// groupByLine groups consecutive glyphs whose baselines are within half a
// font size of each other. Line feed glyphs are dropped.
func groupByLine(glyphs []Glyph) [][]Glyph {
	var lines [][]Glyph
	var current []Glyph

	for _, g := range glyphs {
		if g.Text == "" || g.Text == "\n" || g.Text == "\r" {
			continue
		}
		if len(current) > 0 {
			prev := current[len(current)-1]
			if math.Abs(g.Y-prev.Y) > math.Max(prev.FontSize*0.5, 1) {
				lines = append(lines, current)
				current = nil
			}
		}
		current = append(current, g)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// splitLine orders a line for reading and splits it into runs at every
// font change.
func splitLine(line []Glyph) []Run {
	dir := lineDirection(line)

	ordered := make([]Glyph, len(line))
	copy(ordered, line)
	sort.SliceStable(ordered, func(i, j int) bool {
		if dir == RTL {
			return ordered[i].X > ordered[j].X
		}
		return ordered[i].X < ordered[j].X
	})

	metrics := measureLine(ordered, dir)

	var runs []Run
	var sb strings.Builder
	var cur Run
	flush := func() {
		cur.Text = Clean(sb.String())
		if cur.Text != "" {
			runs = append(runs, cur)
		}
		sb.Reset()
	}

	for i, g := range ordered {
		box := glyphBox(g)
		if i == 0 || !sameStyle(ordered[i-1], g) {
			if i > 0 {
				flush()
			}
			cur = Run{FontName: g.FontName, FontSize: g.FontSize, BBox: box}
		} else {
			if insertSpace(ordered[i-1], g, gap(ordered[i-1], g, dir), metrics) {
				sb.WriteByte(' ')
			}
			cur.BBox = cur.BBox.Union(box)
		}
		sb.WriteString(g.Text)
	}
	flush()
	return runs
}

// joinLines merges the last run of a line with the first run of the next
// when they share a style and the vertical gap is not a paragraph break.
func joinLines(lines [][]Run) []Run {
	var out []Run
	for _, line := range lines {
		for i, r := range line {
			if i == 0 && len(out) > 0 {
				prev := &out[len(out)-1]
				if prev.FontName == r.FontName && sizeEqual(prev.FontSize, r.FontSize) &&
					verticalGap(prev.BBox, r.BBox) <= math.Max(r.FontSize, 1)*1.5 {
					prev.Text = prev.Text + " " + r.Text
					prev.BBox = prev.BBox.Union(r.BBox)
					continue
				}
			}
			out = append(out, r)
		}
	}
	return out
}

func verticalGap(a, b model.BBox) float64 {
	return math.Abs(a.Bottom() - b.Bottom())
}

func sameStyle(a, b Glyph) bool {
	return a.FontName == b.FontName && sizeEqual(a.FontSize, b.FontSize)
}

func sizeEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func glyphBox(g Glyph) model.BBox {
	return model.NewBBox(g.X, g.Y, g.Width, g.FontSize)
}

// gap is the horizontal distance from the end of a to the start of b in
// reading order.
func gap(a, b Glyph, dir Direction) float64 {
	if dir == RTL {
		return a.X - (b.X + b.Width)
	}
	return b.X - (a.X + a.Width)
}

// lineMetrics holds per-line measurements used for word spacing.
type lineMetrics struct {
	characterLevel bool    // fragments average two runes or fewer
	explicitSpaces bool    // the line contains space glyphs
	smallGap       float64 // 10th percentile of positive gaps
	typicalGap     float64 // 25th percentile of positive gaps
}

func measureLine(glyphs []Glyph, dir Direction) lineMetrics {
	var m lineMetrics
	if len(glyphs) == 0 {
		return m
	}

	runes := 0
	for _, g := range glyphs {
		runes += len([]rune(g.Text))
		if strings.TrimSpace(g.Text) == "" || strings.Contains(g.Text, " ") {
			m.explicitSpaces = true
		}
	}
	m.characterLevel = float64(runes)/float64(len(glyphs)) <= 2.0

	var gaps []float64
	for i := 0; i+1 < len(glyphs); i++ {
		if strings.TrimSpace(glyphs[i].Text) == "" || strings.TrimSpace(glyphs[i+1].Text) == "" {
			continue
		}
		if d := gap(glyphs[i], glyphs[i+1], dir); d > 0 {
			gaps = append(gaps, d)
		}
	}
	if len(gaps) > 0 {
		sort.Float64s(gaps)
		m.smallGap = gaps[len(gaps)/10]
		m.typicalGap = gaps[len(gaps)/4]
	}
	return m
}

// insertSpace decides whether a word space separates a and b.
func insertSpace(a, b Glyph, dist float64, m lineMetrics) bool {
	if strings.HasSuffix(a.Text, " ") || strings.HasPrefix(b.Text, " ") {
		return false
	}
	if dist < 0 || dist < a.FontSize*0.05 {
		return false
	}

	if m.characterLevel && m.explicitSpaces {
		// Trust the space glyphs; only very wide gaps count.
		if m.typicalGap > 0 {
			return dist >= m.typicalGap*5.0
		}
		return false
	}

	if m.characterLevel {
		threshold := a.FontSize * 0.8
		if m.smallGap*3.0 > threshold {
			threshold = m.smallGap * 3.0
		}
		return dist >= threshold
	}

	// Word-level fragments: half of an estimated space width.
	return dist >= a.FontSize*0.25*0.5
}

// Fragments converts glyphs into line fragments for table detection. Lines
// are never joined; a line is split wherever the gap between glyphs exceeds
// one and a half font sizes, regardless of style.
func Fragments(glyphs []Glyph) []model.Fragment {
	var out []model.Fragment
	for _, line := range groupByLine(glyphs) {
		dir := lineDirection(line)
		ordered := make([]Glyph, len(line))
		copy(ordered, line)
		sort.SliceStable(ordered, func(i, j int) bool {
			if dir == RTL {
				return ordered[i].X > ordered[j].X
			}
			return ordered[i].X < ordered[j].X
		})
		metrics := measureLine(ordered, dir)

		var sb strings.Builder
		var cur model.Fragment
		flush := func() {
			cur.Text = Clean(sb.String())
			if cur.Text != "" {
				out = append(out, cur)
			}
			sb.Reset()
		}
		for i, g := range ordered {
			box := glyphBox(g)
			if i > 0 {
				prev := ordered[i-1]
				d := gap(prev, g, dir)
				if d > math.Max(prev.FontSize, 1)*1.5 {
					flush()
				} else {
					if insertSpace(prev, g, d, metrics) {
						sb.WriteByte(' ')
					}
					cur.BBox = cur.BBox.Union(box)
					sb.WriteString(g.Text)
					continue
				}
			}
			cur = model.Fragment{BBox: box, FontSize: g.FontSize}
			sb.WriteString(g.Text)
		}
		flush()
	}
	return out
}
