package model

import (
	"sort"
	"strings"
)

// Sentinels for text metadata a backend could not supply.
const (
	UnknownFont     = "unknown"
	UnknownFontSize = 0
)

// LinkKind classifies a link target.
type LinkKind string

const (
	LinkExternal LinkKind = "external"
	LinkInternal LinkKind = "internal"
	LinkEmail    LinkKind = "email"
	LinkUnknown  LinkKind = "unknown"
)

// ImageOrigin records how an image was reached.
type ImageOrigin string

const (
	// OriginDirectShape marks images found by walking the drawing/shape tree.
	OriginDirectShape ImageOrigin = "direct_shape"
	// OriginRelationship marks images only reachable through package
	// relationships.
	OriginRelationship ImageOrigin = "relationship_fallback"
)

// TextBlock is one contiguous run of uniformly styled text.
type TextBlock struct {
	Location int     `json:"source_location"`
	Ordinal  int     `json:"ordinal"`
	Content  string  `json:"content"`
	FontName string  `json:"font_name"`
	FontSize float64 `json:"font_size"`
	Bold     bool    `json:"is_bold"`
	Italic   bool    `json:"is_italic"`
	Rotation int     `json:"rotation_degrees"`
	BBox     *BBox   `json:"bounding_box"`
}

// HasStyle reports whether the block carries real font metadata.
func (t TextBlock) HasStyle() bool {
	return t.FontName != UnknownFont || t.FontSize != UnknownFontSize
}

// Link is a hyperlink or link-like pattern.
type Link struct {
	Location int      `json:"source_location"`
	Ordinal  int      `json:"ordinal"`
	Target   string   `json:"target_uri"`
	Text     string   `json:"text,omitempty"`
	Region   *BBox    `json:"region"`
	Kind     LinkKind `json:"link_kind"`
}

// Image is an embedded picture. Data is the Base64 encoding of the payload.
type Image struct {
	Location   int         `json:"source_location"`
	Ordinal    int         `json:"ordinal"`
	Data       string      `json:"encoded_bytes"`
	MIMEType   string      `json:"mime_type"`
	Width      int         `json:"width_px"`
	Height     int         `json:"height_px"`
	Origin     ImageOrigin `json:"origin"`
	ResourceID string      `json:"resource_id,omitempty"`
}

// Table is a rectangular grid of cell text, row-major.
type Table struct {
	Location int        `json:"source_location"`
	Ordinal  int        `json:"ordinal"`
	Rows     int        `json:"row_count"`
	Columns  int        `json:"column_count"`
	Cells    [][]string `json:"cells"`
	Style    *string    `json:"style_name"`
}

// NewTable builds a Table from ragged rows. Rows are padded with empty
// strings to the widest row so that every row has exactly Columns cells.
// Fully empty trailing rows are kept; the caller decides what is a row.
func NewTable(location int, rows [][]string, style string) Table {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, cols)
		copy(row, r)
		cells[i] = row
	}

	t := Table{
		Location: location,
		Rows:     len(cells),
		Columns:  cols,
		Cells:    cells,
	}
	if style != "" {
		t.Style = &style
	}
	return t
}

// IsEmpty reports whether the table has no non-blank cell.
func (t Table) IsEmpty() bool {
	for _, row := range t.Cells {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
	}
	return true
}

// Located is implemented by pointers to record types.
type Located[T any] interface {
	*T
	Loc() int
	SetOrdinal(int)
}

func (t *TextBlock) Loc() int         { return t.Location }
func (t *TextBlock) SetOrdinal(n int) { t.Ordinal = n }
func (l *Link) Loc() int              { return l.Location }
func (l *Link) SetOrdinal(n int)      { l.Ordinal = n }
func (i *Image) Loc() int             { return i.Location }
func (i *Image) SetOrdinal(n int)     { i.Ordinal = n }
func (t *Table) Loc() int             { return t.Location }
func (t *Table) SetOrdinal(n int)     { t.Ordinal = n }

// Number stable-sorts records by location and assigns ordinals that count
// from zero within each location. Physical order within a location is kept.
func Number[T any, P Located[T]](recs []T) []T {
	sort.SliceStable(recs, func(i, j int) bool {
		return P(&recs[i]).Loc() < P(&recs[j]).Loc()
	})

	prev, n := -1, 0
	for i := range recs {
		p := P(&recs[i])
		if p.Loc() != prev {
			prev, n = p.Loc(), 0
		}
		p.SetOrdinal(n)
		n++
	}
	return recs
}
