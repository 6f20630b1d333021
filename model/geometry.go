package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// BBox represents a bounding box (rectangle) in source units.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBBox creates a bounding box from coordinates. Negative sizes are
// flipped so the box is always anchored at its minimum corner.
func NewBBox(x, y, width, height float64) BBox {
	if width < 0 {
		x += width
		width = -width
	}
	if height < 0 {
		y += height
		height = -height
	}
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromPoints creates a bounding box from two corners.
func NewBBoxFromPoints(p1, p2 Point) BBox {
	return BBox{
		X:      math.Min(p1.X, p2.X),
		Y:      math.Min(p1.Y, p2.Y),
		Width:  math.Abs(p2.X - p1.X),
		Height: math.Abs(p2.Y - p1.Y),
	}
}

// Ptr returns a pointer to a copy of b, for optional record fields.
func (b BBox) Ptr() *BBox {
	return &b
}

// Left returns the left edge X coordinate
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the minimum Y coordinate
func (b BBox) Bottom() float64 {
	return b.Y
}

// Top returns the maximum Y coordinate
func (b BBox) Top() float64 {
	return b.Y + b.Height
}

// Center returns the center point
func (b BBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// Contains checks if a point is inside the bounding box
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Bottom() && p.Y <= b.Top()
}

// Union returns the smallest box covering both boxes.
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Bottom(), other.Bottom())
	right := math.Max(b.Right(), other.Right())
	top := math.Max(b.Top(), other.Top())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: top - y,
	}
}

// Fragment is a positioned piece of text handed to layout analysis.
type Fragment struct {
	Text     string
	BBox     BBox
	FontSize float64
}

// Segment is a straight ruling line or the edge of a drawn rectangle.
type Segment struct {
	Start Point
	End   Point
}

// IsHorizontal reports whether the segment is horizontal within tol.
func (s Segment) IsHorizontal(tol float64) bool {
	return math.Abs(s.Start.Y-s.End.Y) <= tol && math.Abs(s.Start.X-s.End.X) > tol
}

// IsVertical reports whether the segment is vertical within tol.
func (s Segment) IsVertical(tol float64) bool {
	return math.Abs(s.Start.X-s.End.X) <= tol && math.Abs(s.Start.Y-s.End.Y) > tol
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	dx := s.End.X - s.Start.X
	dy := s.End.Y - s.Start.Y
	return math.Sqrt(dx*dx + dy*dy)
}
