package converter

import (
	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/types"
)

// slot is one requested label waiting for a column. Duplicate labels get
// one slot each.
type slot struct {
	label string
	col   int
}

// Locate finds the topmost row holding every requested label, one distinct
// column per label occurrence. Columns are returned in requested order.
// Matching is exact text equality; ties between equal labels are broken
// left to right. It reports false when no row qualifies.
func Locate(g grid.Grid, headers []string) (types.Assignment, bool) {
	labels := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		labels[h] = struct{}{}
	}

	for row := 1; row <= g.HighestRow(); row++ {
		if cols, ok := locateInRow(g, row, headers, labels); ok {
			return types.Assignment{Row: row, Columns: cols}, true
		}
	}
	return types.Assignment{}, false
}

// locateInRow scans one row left to right, binding each matching cell to
// the first still-unbound slot with the same label.
func locateInRow(g grid.Grid, row int, headers []string, labels map[string]struct{}) ([]int, bool) {
	slots := make([]slot, len(headers))
	for i, h := range headers {
		slots[i] = slot{label: h}
	}
	unbound := len(slots)

	for col := 1; col <= g.HighestColumn(); col++ {
		text := g.Value(row, col)
		if text == "" {
			continue
		}
		if _, ok := labels[text]; !ok {
			continue
		}

		for i := range slots {
			if slots[i].col == 0 && slots[i].label == text {
				slots[i].col = col
				unbound--
				break
			}
		}
		if unbound == 0 {
			cols := make([]int, len(slots))
			for i, s := range slots {
				cols[i] = s.col
			}
			return cols, true
		}
	}
	return nil, false
}
