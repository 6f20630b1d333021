// Package tables detects tables on PDF pages from positioned text fragments
// and drawn ruling lines.
//
// # Detectors
//
// Table detection is performed by types implementing the [Detector] interface.
// The package provides:
//
//   - [GridDetector] - builds grids from horizontal and vertical rules
//   - [GeometricDetector] - uses spatial analysis of text positions
//
// Both take the same input, so a caller can run one as a fallback for the
// other:
//
//	cfg := tables.DefaultConfig()
//	found := tables.NewGridDetector(cfg).Detect(fragments, segments)
//	if len(found) == 0 {
//	    found = tables.NewGeometricDetector(cfg).Detect(fragments, segments)
//	}
//
// Drawn rectangles can be turned into rules with [SegmentsFromRect].
//
// # Grid Detection
//
// Rules are split into connected regions so each table on a page is found
// separately. Within a region, aligned rules are merged and rules spanning
// less than half of the region are discarded. Fragments are placed in the
// cell that contains their center.
//
// # Geometric Detection
//
// Fragments are clustered vertically, grouped into rows by center, and runs
// of consecutive rows with at least MinCols fragments become candidates.
// Column boundaries come from left edges shared by two or more fragments.
//
// # Confidence Scoring
//
// Geometric confidence (0-1) is based on:
//
//   - Grid regularity (30%)
//   - Alignment quality (30%)
//   - Line presence (20%)
//   - Cell occupancy (20%)
//
// Grid confidence weighs cell count, regularity, border completeness and
// line coverage. Tables below [Config].MinConfidence are dropped.
package tables
