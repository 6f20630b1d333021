package tables

import (
	"math"
	"sort"

	"github.com/tsawler/docex/model"
)

// GeometricDetector implements table detection using geometric heuristics.
// It finds runs of text lines that split into the same aligned columns, for
// tables drawn without ruling lines.
type GeometricDetector struct {
	config Config
}

// NewGeometricDetector creates a geometric detector with the given configuration.
func NewGeometricDetector(config Config) *GeometricDetector {
	return &GeometricDetector{config: config}
}

// Name returns the detector's identifier ("geometric").
func (d *GeometricDetector) Name() string {
	return "geometric"
}

// textRow is a set of fragments sharing a baseline band.
type textRow struct {
	center float64
	frags  []model.Fragment
}

// Detect clusters fragments by vertical proximity, then looks for
// consecutive rows that each hold at least MinCols fragments.
func (d *GeometricDetector) Detect(fragments []model.Fragment, segments []model.Segment) []Table {
	if len(fragments) < d.config.MinRows*d.config.MinCols {
		return nil
	}

	var result []Table
	for _, cluster := range d.clusterFragments(fragments) {
		for _, run := range d.tabularRuns(d.rows(cluster)) {
			if t, ok := d.detectInRows(run, segments); ok {
				result = append(result, t)
			}
		}
	}
	sortTables(result)
	return result
}

// clusterFragments groups fragments that are vertically close. Fragments
// separated by more than 50 points start a new cluster.
func (d *GeometricDetector) clusterFragments(fragments []model.Fragment) [][]model.Fragment {
	sorted := make([]model.Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Top() > sorted[j].BBox.Top()
	})

	var clusters [][]model.Fragment
	current := []model.Fragment{sorted[0]}
	lowest := sorted[0].BBox.Bottom()
	for _, f := range sorted[1:] {
		if lowest-f.BBox.Top() > 50 {
			clusters = append(clusters, current)
			current = nil
			lowest = f.BBox.Bottom()
		}
		current = append(current, f)
		lowest = math.Min(lowest, f.BBox.Bottom())
	}
	return append(clusters, current)
}

// rows groups a cluster into text rows by fragment center, top to bottom.
func (d *GeometricDetector) rows(cluster []model.Fragment) []textRow {
	sorted := make([]model.Fragment, len(cluster))
	copy(sorted, cluster)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Center().Y > sorted[j].BBox.Center().Y
	})

	var rows []textRow
	for _, f := range sorted {
		c := f.BBox.Center().Y
		tol := math.Max(d.config.AlignmentTolerance, f.BBox.Height*0.3)
		if n := len(rows); n > 0 && rows[n-1].center-c <= tol {
			r := &rows[n-1]
			r.frags = append(r.frags, f)
			r.center = (r.center*float64(len(r.frags)-1) + c) / float64(len(r.frags))
			continue
		}
		rows = append(rows, textRow{center: c, frags: []model.Fragment{f}})
	}
	return rows
}

// tabularRuns returns maximal runs of consecutive rows that hold at least
// MinCols fragments each. Runs shorter than MinRows are dropped.
func (d *GeometricDetector) tabularRuns(rows []textRow) [][]textRow {
	var runs [][]textRow
	var cur []textRow
	flush := func() {
		if len(cur) >= d.config.MinRows {
			runs = append(runs, cur)
		}
		cur = nil
	}
	for _, r := range rows {
		if len(r.frags) >= d.config.MinCols {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return runs
}

// detectInRows builds a grid from the rows' column starts and scores it.
func (d *GeometricDetector) detectInRows(rows []textRow, segments []model.Segment) (Table, bool) {
	var frags []model.Fragment
	for _, r := range rows {
		frags = append(frags, r.frags...)
	}

	g, ok := d.buildGrid(rows, frags)
	if !ok || g.rowCount() < d.config.MinRows || g.colCount() < d.config.MinCols {
		return Table{}, false
	}

	anchor := func(f model.Fragment) model.Point {
		return model.Point{X: f.BBox.Left() + d.config.AlignmentTolerance*2, Y: f.BBox.Center().Y}
	}
	confidence := d.calculateConfidence(g, frags, segments, anchor)
	if confidence < d.config.MinConfidence {
		return Table{}, false
	}

	cells, _ := g.fill(frags, anchor)
	return Table{BBox: g.bbox(), Cells: cells, Confidence: confidence}, true
}

// buildGrid derives column boundaries from clustered left edges and row
// boundaries from the midpoints between row centers.
func (d *GeometricDetector) buildGrid(rows []textRow, frags []model.Fragment) (grid, bool) {
	lefts := make([]float64, len(frags))
	top, bottom := -math.MaxFloat64, math.MaxFloat64
	right := -math.MaxFloat64
	for i, f := range frags {
		lefts[i] = f.BBox.Left()
		top = math.Max(top, f.BBox.Top())
		bottom = math.Min(bottom, f.BBox.Bottom())
		right = math.Max(right, f.BBox.Right())
	}
	sort.Float64s(lefts)

	// A column start must be shared by at least two fragments.
	var cols []float64
	for _, c := range clusterValues(lefts, d.config.AlignmentTolerance*2) {
		if c.count >= 2 {
			cols = append(cols, c.value)
		}
	}
	if len(cols) < d.config.MinCols {
		return grid{}, false
	}
	cols[0] = math.Min(cols[0], lefts[0])
	cols = append(cols, right)

	rowBounds := []float64{top}
	for i := 0; i+1 < len(rows); i++ {
		rowBounds = append(rowBounds, (rows[i].center+rows[i+1].center)/2)
	}
	rowBounds = append(rowBounds, bottom)

	return grid{rows: rowBounds, cols: cols}, true
}

type valueCluster struct {
	value float64
	count int
}

// clusterValues clusters sorted values within the given tolerance,
// averaging values that fall within the tolerance of the cluster center.
func clusterValues(values []float64, tolerance float64) []valueCluster {
	if len(values) == 0 {
		return nil
	}
	out := []valueCluster{{value: values[0], count: 1}}
	for _, v := range values[1:] {
		last := &out[len(out)-1]
		if v-last.value > tolerance {
			out = append(out, valueCluster{value: v, count: 1})
			continue
		}
		last.count++
		last.value += (v - last.value) / float64(last.count)
	}
	return out
}

// calculateConfidence computes a confidence score (0.0-1.0) for a grid.
// The score combines grid regularity (30%), alignment quality (30%), line
// presence (20%) and cell occupancy (20%).
func (d *GeometricDetector) calculateConfidence(g grid, frags []model.Fragment, segments []model.Segment, anchor func(model.Fragment) model.Point) float64 {
	score := regularity(g) * 0.3
	score += d.alignmentQuality(g, frags) * 0.3
	score += d.lineScore(g, segments) * 0.2
	score += occupancy(g, frags, anchor) * 0.2
	return math.Min(1, score)
}

// alignmentQuality is the fraction of fragments whose left or right edge
// sits on a column boundary.
func (d *GeometricDetector) alignmentQuality(g grid, frags []model.Fragment) float64 {
	if len(frags) == 0 {
		return 0
	}
	aligned := 0
	for _, f := range frags {
		if d.isNearGridLine(f.BBox.Left(), g.cols) || d.isNearGridLine(f.BBox.Right(), g.cols) {
			aligned++
		}
	}
	return float64(aligned) / float64(len(frags))
}

// isNearGridLine reports whether a value is within 2x the alignment tolerance
// of any grid line.
func (d *GeometricDetector) isNearGridLine(value float64, lines []float64) bool {
	for _, l := range lines {
		if math.Abs(value-l) < d.config.AlignmentTolerance*2 {
			return true
		}
	}
	return false
}

// lineScore is the fraction of row boundaries with a horizontal rule drawn
// near them. Borderless tables score zero here.
func (d *GeometricDetector) lineScore(g grid, segments []model.Segment) float64 {
	if len(g.rows) == 0 {
		return 0
	}
	tol := d.config.AlignmentTolerance * 2
	hits := 0
	for _, y := range g.rows {
		for _, s := range segments {
			if s.IsHorizontal(d.config.AlignmentTolerance) && math.Abs(s.Start.Y-y) < tol {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(g.rows))
}

// occupancy is the fraction of grid cells holding at least one fragment.
func occupancy(g grid, frags []model.Fragment, anchor func(model.Fragment) model.Point) float64 {
	total := g.rowCount() * g.colCount()
	if total == 0 {
		return 0
	}
	occupied := make(map[[2]int]bool)
	for _, f := range frags {
		r, c := g.cellOf(anchor(f))
		if r >= 0 && c >= 0 {
			occupied[[2]int{r, c}] = true
		}
	}
	return float64(len(occupied)) / float64(total)
}
