package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// Detector is the interface for table detection algorithms
type Detector interface {
	// Name returns the detector name
	Name() string

	// Detect finds tables among a page's text fragments and ruling segments.
	// Tables are returned top to bottom.
	Detect(fragments []model.Fragment, segments []model.Segment) []Table
}

// Config holds detector configuration
type Config struct {
	// Minimum rows for a valid table
	MinRows int `yaml:"min_rows"`

	// Minimum columns for a valid table
	MinCols int `yaml:"min_cols"`

	// Minimum confidence threshold (0-1)
	MinConfidence float64 `yaml:"min_confidence"`

	// Tolerance for row/column alignment (points)
	AlignmentTolerance float64 `yaml:"alignment_tolerance"`

	// Minimum ruling line length (points)
	MinLineLength float64 `yaml:"min_line_length"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		AlignmentTolerance: 2.0,
		MinLineLength:      10.0,
	}
}

// Table is a detected table: a grid of trimmed cell text.
type Table struct {
	BBox       model.BBox
	Cells      [][]string
	Confidence float64
}

// grid holds cell boundaries. rows are Y coordinates from top to bottom
// (descending), cols are X coordinates from left to right.
type grid struct {
	rows []float64
	cols []float64
}

func (g grid) rowCount() int { return max(len(g.rows)-1, 0) }
func (g grid) colCount() int { return max(len(g.cols)-1, 0) }

// cellOf returns the cell containing p, or -1, -1 outside the grid.
func (g grid) cellOf(p model.Point) (row, col int) {
	row, col = -1, -1
	for i := 0; i < g.rowCount(); i++ {
		if p.Y <= g.rows[i] && p.Y >= g.rows[i+1] {
			row = i
			break
		}
	}
	for i := 0; i < g.colCount(); i++ {
		if p.X >= g.cols[i] && p.X <= g.cols[i+1] {
			col = i
			break
		}
	}
	return row, col
}

func (g grid) bbox() model.BBox {
	if g.rowCount() == 0 || g.colCount() == 0 {
		return model.BBox{}
	}
	return model.NewBBoxFromPoints(
		model.Point{X: g.cols[0], Y: g.rows[len(g.rows)-1]},
		model.Point{X: g.cols[len(g.cols)-1], Y: g.rows[0]},
	)
}

// fill assigns fragments to cells by an anchor point. Fragments sharing a
// cell are joined in reading order. Fragments outside the grid are ignored.
func (g grid) fill(fragments []model.Fragment, anchor func(model.Fragment) model.Point) (cells [][]string, placed int) {
	buckets := make([][][]model.Fragment, g.rowCount())
	for i := range buckets {
		buckets[i] = make([][]model.Fragment, g.colCount())
	}
	for _, f := range fragments {
		r, c := g.cellOf(anchor(f))
		if r < 0 || c < 0 {
			continue
		}
		buckets[r][c] = append(buckets[r][c], f)
		placed++
	}

	cells = make([][]string, g.rowCount())
	for r := range buckets {
		cells[r] = make([]string, g.colCount())
		for c, frags := range buckets[r] {
			sortReading(frags)
			parts := make([]string, len(frags))
			for i, f := range frags {
				parts[i] = f.Text
			}
			cells[r][c] = text.Clean(strings.Join(parts, " "))
		}
	}
	return cells, placed
}

func centerOf(f model.Fragment) model.Point { return f.BBox.Center() }

// sortReading orders fragments top to bottom, then left to right.
func sortReading(frags []model.Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		a, b := frags[i].BBox, frags[j].BBox
		if math.Abs(a.Top()-b.Top()) > 1 {
			return a.Top() > b.Top()
		}
		return a.Left() < b.Left()
	})
}

// sortTables orders tables top to bottom, then left to right.
func sortTables(ts []Table) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i].BBox, ts[j].BBox
		if math.Abs(a.Top()-b.Top()) > 1 {
			return a.Top() > b.Top()
		}
		return a.Left() < b.Left()
	})
}

// SegmentsFromRect converts a drawn rectangle into ruling segments. A
// rectangle thinner than thickness is a single rule; anything else
// contributes its four edges.
func SegmentsFromRect(r model.BBox, thickness float64) []model.Segment {
	switch {
	case r.Width <= 0 && r.Height <= 0:
		return nil
	case r.Height <= thickness:
		y := r.Bottom() + r.Height/2
		return []model.Segment{{Start: model.Point{X: r.Left(), Y: y}, End: model.Point{X: r.Right(), Y: y}}}
	case r.Width <= thickness:
		x := r.Left() + r.Width/2
		return []model.Segment{{Start: model.Point{X: x, Y: r.Bottom()}, End: model.Point{X: x, Y: r.Top()}}}
	}
	bl := model.Point{X: r.Left(), Y: r.Bottom()}
	br := model.Point{X: r.Right(), Y: r.Bottom()}
	tl := model.Point{X: r.Left(), Y: r.Top()}
	tr := model.Point{X: r.Right(), Y: r.Top()}
	return []model.Segment{
		{Start: bl, End: br},
		{Start: tl, End: tr},
		{Start: bl, End: tl},
		{Start: br, End: tr},
	}
}

// Utility functions

// mean computes the arithmetic mean of a slice of float64 values.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coefficientOfVariation calculates CV (std dev / mean)
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	v := 0.0
	for _, val := range values {
		diff := val - m
		v += diff * diff
	}
	v /= float64(len(values))
	return math.Sqrt(v) / m
}

// regularity scores how even the grid spacing is, 1 for perfectly even.
func regularity(g grid) float64 {
	heights := make([]float64, g.rowCount())
	for i := range heights {
		heights[i] = g.rows[i] - g.rows[i+1]
	}
	widths := make([]float64, g.colCount())
	for i := range widths {
		widths[i] = g.cols[i+1] - g.cols[i]
	}
	rowScore := math.Max(0, 1-coefficientOfVariation(heights))
	colScore := math.Max(0, 1-coefficientOfVariation(widths))
	return (rowScore + colScore) / 2
}
