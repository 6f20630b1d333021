package docx

import (
	"slices"
	"strings"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/text"
)

// tableBuilder accumulates one <w:tbl> as a grid of cell text. Horizontally
// merged cells (gridSpan) keep their text in the first grid column and
// leave the spanned columns empty; vertically merged continuation cells are
// empty.
type tableBuilder struct {
	location int
	style    string
	slot     int

	rows [][]string
	row  []string

	inCell    bool
	cellText  strings.Builder
	span      int
	continued bool
}

func newTableBuilder(location int) *tableBuilder {
	return &tableBuilder{location: location}
}

func (tb *tableBuilder) startRow() {
	tb.row = nil
}

// pad adds n empty leading cells for w:gridBefore.
func (tb *tableBuilder) pad(n int) {
	for i := 0; i < n; i++ {
		tb.row = append(tb.row, "")
	}
}

func (tb *tableBuilder) startCell() {
	tb.inCell = true
	tb.cellText.Reset()
	tb.span = 1
	tb.continued = false
}

// write appends text to the open cell. Text outside a cell is dropped.
func (tb *tableBuilder) write(s string) {
	if tb.inCell {
		tb.cellText.WriteString(s)
	}
}

func (tb *tableBuilder) endCell() {
	if !tb.inCell {
		return
	}
	cell := ""
	if !tb.continued {
		cell = text.Clean(tb.cellText.String())
	}
	tb.row = append(tb.row, cell)
	for i := 1; i < tb.span; i++ {
		tb.row = append(tb.row, "")
	}
	tb.inCell = false
}

func (tb *tableBuilder) endRow() {
	if tb.inCell {
		tb.endCell()
	}
	tb.rows = append(tb.rows, tb.row)
	tb.row = nil
}

// build returns the table record. A table without rows yields nothing.
func (tb *tableBuilder) build() (model.Table, bool) {
	if tb.row != nil {
		tb.endRow()
	}
	if len(tb.rows) == 0 {
		return model.Table{}, false
	}
	return model.NewTable(tb.location, tb.rows, tb.style), true
}

// StructuredTables returns every table in the document. Nested tables are
// flattened into independent records: an outer table comes before the
// tables nested in its cells, and nested text stays out of the outer cells.
func (d *Document) StructuredTables() ([]model.Table, error) {
	b, err := d.walk()
	if err != nil {
		return nil, err
	}
	return slices.Clone(b.tables), nil
}
