package converter

import (
	"math/rand"
	"testing"

	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleGrid() *grid.Memory {
	return grid.NewMemory([][]string{
		{"Report", "", ""},
		{"Name", "Age", "Name"},
		{"Al", "30", "Bob"},
		{"", "", ""},
		{"Cy", "40", "Di"},
	})
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		headers  []string
		expected types.Assignment
		found    bool
	}{
		{
			name: "Duplicate labels bind left to right",
			rows: [][]string{
				{"Report", "", ""},
				{"Name", "Age", "Name"},
				{"Al", "30", "Bob"},
			},
			headers:  []string{"Name", "Age", "Name"},
			expected: types.Assignment{Row: 2, Columns: []int{1, 2, 3}},
			found:    true,
		},
		{
			name:     "Requested order differs from sheet order",
			rows:     [][]string{{"A", "B", "C"}},
			headers:  []string{"C", "A"},
			expected: types.Assignment{Row: 1, Columns: []int{3, 1}},
			found:    true,
		},
		{
			name: "Topmost qualifying row wins",
			rows: [][]string{
				{"x", "B", "A"},
				{"A", "B", "x"},
			},
			headers:  []string{"A", "B"},
			expected: types.Assignment{Row: 1, Columns: []int{3, 2}},
			found:    true,
		},
		{
			name: "Row missing a label is skipped",
			rows: [][]string{
				{"A", "", "C"},
				{"", "A", "B"},
			},
			headers:  []string{"A", "B"},
			expected: types.Assignment{Row: 2, Columns: []int{2, 3}},
			found:    true,
		},
		{
			name: "Too few occurrences of a duplicated label fail the row",
			rows: [][]string{
				{"Name", "Age"},
				{"Name", "x", "Age", "Name"},
			},
			headers:  []string{"Name", "Age", "Name"},
			expected: types.Assignment{Row: 2, Columns: []int{1, 3, 4}},
			found:    true,
		},
		{
			name:     "Extra occurrences are ignored once slots are full",
			rows:     [][]string{{"A", "A", "A", "B"}},
			headers:  []string{"A", "B"},
			expected: types.Assignment{Row: 1, Columns: []int{1, 4}},
			found:    true,
		},
		{
			name:     "Empty cells between labels do not block",
			rows:     [][]string{{"", "A", "", "", "B", ""}},
			headers:  []string{"B", "A"},
			expected: types.Assignment{Row: 1, Columns: []int{5, 2}},
			found:    true,
		},
		{
			name:    "Matching is case sensitive",
			rows:    [][]string{{"name", "age"}},
			headers: []string{"Name", "age"},
		},
		{
			name:    "Matching does not trim",
			rows:    [][]string{{" Name", "Age"}},
			headers: []string{"Name", "Age"},
		},
		{
			name:    "Empty grid",
			rows:    nil,
			headers: []string{"A"},
		},
		{
			name:    "No headers requested",
			rows:    [][]string{{"A"}},
			headers: nil,
		},
		{
			name:    "Labels spread over two rows",
			rows:    [][]string{{"A", ""}, {"", "B"}},
			headers: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Locate(grid.NewMemory(tt.rows), tt.headers)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestLocate_DuplicateCounts(t *testing.T) {
	for m := 0; m <= 4; m++ {
		for n := 1; n <= 4; n++ {
			row := make([]string, 0, 2*m)
			var want []int
			for i := 0; i < m; i++ {
				row = append(row, "x", "L")
				want = append(want, 2*i+2)
			}
			headers := make([]string, n)
			for i := range headers {
				headers[i] = "L"
			}

			got, ok := Locate(grid.NewMemory([][]string{row}), headers)
			if m < n {
				assert.False(t, ok, "M=%d N=%d", m, n)
				continue
			}
			require.True(t, ok, "M=%d N=%d", m, n)
			assert.Equal(t, want[:n], got.Columns, "M=%d N=%d", m, n)
		}
	}
}

// Every assigned cell holds its label, no column is used twice, and no
// earlier row could have satisfied the request.
func TestLocate_RandomGrids(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"", "A", "B", "C"}

	for iter := 0; iter < 500; iter++ {
		rows := make([][]string, 1+rng.Intn(6))
		for r := range rows {
			rows[r] = make([]string, rng.Intn(6))
			for c := range rows[r] {
				rows[r][c] = alphabet[rng.Intn(len(alphabet))]
			}
		}
		headers := make([]string, 1+rng.Intn(3))
		for i := range headers {
			headers[i] = alphabet[1+rng.Intn(len(alphabet)-1)]
		}

		g := grid.NewMemory(rows)
		got, ok := Locate(g, headers)
		if !ok {
			for r := 1; r <= g.HighestRow(); r++ {
				assert.False(t, rowCanSatisfy(rows[r-1], headers), "row %d of %v should match %v", r, rows, headers)
			}
			continue
		}

		require.Len(t, got.Columns, len(headers))
		used := map[int]bool{}
		for i, col := range got.Columns {
			assert.Equal(t, headers[i], g.Value(got.Row, col))
			assert.False(t, used[col], "column %d assigned twice", col)
			used[col] = true
		}
		for r := 1; r < got.Row; r++ {
			assert.False(t, rowCanSatisfy(rows[r-1], headers))
		}
	}
}

func rowCanSatisfy(row []string, headers []string) bool {
	need := map[string]int{}
	for _, h := range headers {
		need[h]++
	}
	for _, c := range row {
		if need[c] > 0 {
			need[c]--
		}
	}
	for _, n := range need {
		if n > 0 {
			return false
		}
	}
	return true
}
