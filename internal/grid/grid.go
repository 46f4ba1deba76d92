// Package grid exposes spreadsheet sheets as a read-only, 1-indexed cell
// space of formatted text values.
package grid

// Grid is the capability the header locator and row projector read from.
// Rows and columns are 1-based. Value returns "" for blank cells and for
// cells outside the populated range.
type Grid interface {
	HighestRow() int
	HighestColumn() int
	Value(row, col int) string
}

// Memory is a Grid over rows of already formatted values.
type Memory struct {
	rows   [][]string
	maxCol int
}

// NewMemory builds a grid whose row i+1 is rows[i]. Rows may be ragged.
func NewMemory(rows [][]string) *Memory {
	m := &Memory{rows: rows}
	for _, r := range rows {
		if len(r) > m.maxCol {
			m.maxCol = len(r)
		}
	}
	return m
}

func (m *Memory) HighestRow() int {
	return len(m.rows)
}

func (m *Memory) HighestColumn() int {
	return m.maxCol
}

func (m *Memory) Value(row, col int) string {
	if row < 1 || row > len(m.rows) {
		return ""
	}
	r := m.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}
