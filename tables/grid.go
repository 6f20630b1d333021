package tables

import (
	"math"
	"sort"

	"github.com/tsawler/docex/model"
)

// GridDetector detects tables bounded by drawn ruling lines
type GridDetector struct {
	config Config
}

// NewGridDetector creates a grid detector with the given configuration
func NewGridDetector(config Config) *GridDetector {
	return &GridDetector{config: config}
}

// Name returns the detector name
func (gd *GridDetector) Name() string {
	return "grid"
}

// alignedGroup is a set of lines sharing a position on one axis
type alignedGroup struct {
	// Position on the alignment axis (Y for horizontals, X for verticals)
	position float64

	// Span of the lines along the other axis
	minExtent float64
	maxExtent float64
}

// Detect finds ruled tables. Lines are first split into connected regions
// so a page holding several tables yields one grid per region.
func (gd *GridDetector) Detect(fragments []model.Fragment, segments []model.Segment) []Table {
	tol := gd.config.AlignmentTolerance

	var horizontals, verticals []model.Segment
	for _, s := range segments {
		if s.Length() < gd.config.MinLineLength {
			continue
		}
		switch {
		case s.IsHorizontal(tol):
			horizontals = append(horizontals, s)
		case s.IsVertical(tol):
			verticals = append(verticals, s)
		}
	}
	if len(horizontals) < 2 || len(verticals) < 2 {
		return nil
	}

	var result []Table
	for _, region := range gd.regions(horizontals, verticals) {
		g, conf, ok := gd.findGrid(region.h, region.v)
		if !ok || g.rowCount() < gd.config.MinRows || g.colCount() < gd.config.MinCols {
			continue
		}
		if conf < gd.config.MinConfidence {
			continue
		}
		cells, placed := g.fill(fragments, centerOf)
		if placed == 0 {
			continue
		}
		result = append(result, Table{BBox: g.bbox(), Cells: cells, Confidence: conf})
	}
	sortTables(result)
	return result
}

type lineRegion struct {
	h, v []model.Segment
}

// regions partitions lines into sets connected by horizontal/vertical
// intersections.
func (gd *GridDetector) regions(horizontals, verticals []model.Segment) []lineRegion {
	n := len(horizontals) + len(verticals)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	tol := gd.config.AlignmentTolerance
	for i, h := range horizontals {
		for j, v := range verticals {
			if intersects(h, v, tol) {
				parent[find(i)] = find(len(horizontals) + j)
			}
		}
	}

	byRoot := make(map[int]*lineRegion)
	var roots []int
	for i := 0; i < n; i++ {
		r := find(i)
		reg, ok := byRoot[r]
		if !ok {
			reg = &lineRegion{}
			byRoot[r] = reg
			roots = append(roots, r)
		}
		if i < len(horizontals) {
			reg.h = append(reg.h, horizontals[i])
		} else {
			reg.v = append(reg.v, verticals[i-len(horizontals)])
		}
	}

	out := make([]lineRegion, 0, len(roots))
	for _, r := range roots {
		if reg := byRoot[r]; len(reg.h) >= 2 && len(reg.v) >= 2 {
			out = append(out, *reg)
		}
	}
	return out
}

func intersects(h, v model.Segment, tol float64) bool {
	y := (h.Start.Y + h.End.Y) / 2
	x := (v.Start.X + v.End.X) / 2
	return x >= math.Min(h.Start.X, h.End.X)-tol && x <= math.Max(h.Start.X, h.End.X)+tol &&
		y >= math.Min(v.Start.Y, v.End.Y)-tol && y <= math.Max(v.Start.Y, v.End.Y)+tol
}

// groupAligned merges lines whose positions are within the alignment
// tolerance. Groups are returned in ascending position order.
func (gd *GridDetector) groupAligned(lines []model.Segment, horizontal bool) []alignedGroup {
	if len(lines) == 0 {
		return nil
	}

	type item struct {
		pos, lo, hi float64
	}
	items := make([]item, len(lines))
	for i, l := range lines {
		if horizontal {
			items[i] = item{(l.Start.Y + l.End.Y) / 2, math.Min(l.Start.X, l.End.X), math.Max(l.Start.X, l.End.X)}
		} else {
			items[i] = item{(l.Start.X + l.End.X) / 2, math.Min(l.Start.Y, l.End.Y), math.Max(l.Start.Y, l.End.Y)}
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].pos < items[j].pos })

	var groups []alignedGroup
	cur := alignedGroup{position: items[0].pos, minExtent: items[0].lo, maxExtent: items[0].hi}
	count := 1
	for _, it := range items[1:] {
		if it.pos-cur.position <= gd.config.AlignmentTolerance {
			count++
			cur.position = (cur.position*float64(count-1) + it.pos) / float64(count)
			cur.minExtent = math.Min(cur.minExtent, it.lo)
			cur.maxExtent = math.Max(cur.maxExtent, it.hi)
			continue
		}
		groups = append(groups, cur)
		cur = alignedGroup{position: it.pos, minExtent: it.lo, maxExtent: it.hi}
		count = 1
	}
	return append(groups, cur)
}

// findGrid builds a grid from one connected region of lines and scores it.
func (gd *GridDetector) findGrid(horizontals, verticals []model.Segment) (grid, float64, bool) {
	hGroups := gd.groupAligned(horizontals, true)
	vGroups := gd.groupAligned(verticals, false)
	if len(hGroups) < 2 || len(vGroups) < 2 {
		return grid{}, 0, false
	}

	// Left/right come from vertical positions, top/bottom from horizontals.
	left, right := vGroups[0].position, vGroups[len(vGroups)-1].position
	bottom, top := hGroups[0].position, hGroups[len(hGroups)-1].position
	if right <= left || top <= bottom {
		return grid{}, 0, false
	}

	// Lines must cover at least half of the grid to act as boundaries.
	relevantH := filterByExtent(hGroups, left, right)
	relevantV := filterByExtent(vGroups, bottom, top)
	if len(relevantH) < 2 || len(relevantV) < 2 {
		return grid{}, 0, false
	}

	g := grid{
		rows: make([]float64, len(relevantH)),
		cols: make([]float64, len(relevantV)),
	}
	for i, h := range relevantH {
		g.rows[len(relevantH)-1-i] = h.position
	}
	for i, v := range relevantV {
		g.cols[i] = v.position
	}

	borders := 0.0
	tol := gd.config.AlignmentTolerance
	if math.Abs(g.rows[0]-top) < tol {
		borders += 0.25
	}
	if math.Abs(g.rows[len(g.rows)-1]-bottom) < tol {
		borders += 0.25
	}
	if math.Abs(g.cols[0]-left) < tol {
		borders += 0.25
	}
	if math.Abs(g.cols[len(g.cols)-1]-right) < tol {
		borders += 0.25
	}

	coverage := math.Min(1, float64(len(relevantH)+len(relevantV))/float64(len(hGroups)+len(vGroups)))
	return g, gridConfidence(g, borders, coverage), true
}

func filterByExtent(groups []alignedGroup, lo, hi float64) []alignedGroup {
	var out []alignedGroup
	required := (hi - lo) * 0.5
	for _, g := range groups {
		if g.maxExtent-g.minExtent < required {
			continue
		}
		if math.Min(g.maxExtent, hi) > math.Max(g.minExtent, lo) {
			out = append(out, g)
		}
	}
	return out
}

// gridConfidence combines cell count, spacing regularity, border
// completeness and line coverage into a score in [0, 1].
func gridConfidence(g grid, borders, coverage float64) float64 {
	score := 0.0
	cells := g.rowCount() * g.colCount()
	if cells >= 4 {
		score += 0.2
	}
	if cells >= 9 {
		score += 0.1
	}
	score += regularity(g) * 0.3
	score += borders * 0.2
	score += coverage * 0.2
	return math.Min(1.0, score)
}
