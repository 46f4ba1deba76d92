package converter

import (
	"iter"

	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/types"
)

// Project yields, for every row below the header row, the values at the
// assigned columns in requested order. Rows whose projected values are all
// empty are skipped, whatever the other columns of that row hold.
func Project(g grid.Grid, a types.Assignment) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for _, values := range ProjectRows(g, a) {
			if !yield(values) {
				return
			}
		}
	}
}

// ProjectRows is Project keyed by the 1-based sheet row each record came
// from.
func ProjectRows(g grid.Grid, a types.Assignment) iter.Seq2[int, []string] {
	return func(yield func(int, []string) bool) {
		for row := a.Row + 1; row <= g.HighestRow(); row++ {
			values, ok := projectRow(g, row, a.Columns)
			if !ok {
				continue
			}
			if !yield(row, values) {
				return
			}
		}
	}
}

// projectRow reads one row; ok is false when every value is empty.
func projectRow(g grid.Grid, row int, cols []int) ([]string, bool) {
	values := make([]string, len(cols))
	empty := true
	for i, col := range cols {
		values[i] = g.Value(row, col)
		if values[i] != "" {
			empty = false
		}
	}
	return values, !empty
}
