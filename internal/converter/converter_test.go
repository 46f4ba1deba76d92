package converter

import (
	"errors"
	"testing"

	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	records [][]string
	flushed bool
	closed  bool
	failAt  int
}

func (w *memWriter) Write(record []string) error {
	if w.failAt > 0 && len(w.records)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.records = append(w.records, record)
	return nil
}

func (w *memWriter) Flush() error {
	w.flushed = true
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func openTo(w *memWriter) Opener {
	return func() (RecordWriter, error) {
		return w, nil
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name          string
		includeHeader bool
		expected      [][]string
	}{
		{
			name:          "With header record",
			includeHeader: true,
			expected: [][]string{
				{"Name", "Age", "Name"},
				{"Al", "30", "Bob"},
				{"Cy", "40", "Di"},
			},
		},
		{
			name:          "Without header record",
			includeHeader: false,
			expected: [][]string{
				{"Al", "30", "Bob"},
				{"Cy", "40", "Di"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &memWriter{}
			result, err := Extract(exampleGrid(), Request{
				InputFile:     "in.xlsx",
				Sheet:         "Sheet1",
				Headers:       []string{"Name", "Age", "Name"},
				IncludeHeader: tt.includeHeader,
			}, openTo(w), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, w.records)
			assert.True(t, w.flushed)
			assert.True(t, w.closed)

			assert.Equal(t, 2, result.HeaderRow)
			assert.Equal(t, []int{1, 2, 3}, result.Columns)
			assert.Equal(t, []string{"A", "B", "C"}, result.ColumnNames)
			assert.Equal(t, 2, result.RowsWritten)
			assert.Equal(t, 1, result.RowsSuppressed)
			assert.Equal(t, "Sheet1", result.Sheet)
		})
	}
}

func TestExtract_HeaderNotFoundOpensNothing(t *testing.T) {
	opened := false
	open := func() (RecordWriter, error) {
		opened = true
		return &memWriter{}, nil
	}

	_, err := Extract(exampleGrid(), Request{Headers: []string{"Name", "Salary"}}, open, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
	assert.Contains(t, err.Error(), `"Salary"`)
	assert.False(t, opened)
}

func TestExtract_EmptyGrid(t *testing.T) {
	_, err := Extract(grid.NewMemory(nil), Request{Headers: []string{"A"}}, openTo(&memWriter{}), nil)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestExtract_OpenError(t *testing.T) {
	open := func() (RecordWriter, error) {
		return nil, errors.New("permission denied")
	}
	_, err := Extract(exampleGrid(), Request{Headers: []string{"Age"}}, open, nil)
	assert.EqualError(t, err, "permission denied")
}

func TestExtract_WriteErrorStillCloses(t *testing.T) {
	w := &memWriter{failAt: 2}
	result, err := Extract(exampleGrid(), Request{Headers: []string{"Age"}, IncludeHeader: true}, openTo(w), nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "row 3")
	assert.True(t, w.closed)
}

func TestExtract_Progress(t *testing.T) {
	progress := make(chan float64, 100)
	_, err := Extract(exampleGrid(), Request{Headers: []string{"Age"}}, openTo(&memWriter{}), progress)
	require.NoError(t, err)
	close(progress)

	var got []float64
	for p := range progress {
		got = append(got, p)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, 1.0, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestExtractAt(t *testing.T) {
	w := &memWriter{}
	result, err := ExtractAt(exampleGrid(), types.Assignment{Row: 2, Columns: []int{3}}, Request{
		Headers:       []string{"Name"},
		IncludeHeader: true,
	}, openTo(w), nil)
	require.NoError(t, err)

	// Locate would bind Name to column A.
	assert.Equal(t, [][]string{{"Name"}, {"Bob"}, {"Di"}}, w.records)
	assert.Equal(t, []string{"C"}, result.ColumnNames)
	assert.Equal(t, 2, result.RowsWritten)
	assert.True(t, w.closed)
}

func TestExtractAt_HeaderCountMismatch(t *testing.T) {
	w := &memWriter{}
	_, err := ExtractAt(exampleGrid(), types.Assignment{Row: 2, Columns: []int{1, 3}}, Request{
		Headers: []string{"Name"},
	}, openTo(w), nil)
	require.Error(t, err)
	assert.False(t, w.closed)
}

func TestPreviewSheet(t *testing.T) {
	preview := PreviewSheet(exampleGrid(), "Sheet1", 4)

	assert.Equal(t, "Sheet1", preview.Sheet)
	require.Len(t, preview.Rows, 4)
	assert.Equal(t, 1, preview.Rows[0].Row)
	assert.Equal(t, []string{"Report", "", ""}, preview.Rows[0].Cells)
	assert.Equal(t, 2, preview.Rows[1].Row)
	assert.Equal(t, 3, preview.Rows[2].Row)
	// Row 4 is blank and skipped.
	assert.Equal(t, 5, preview.Rows[3].Row)
}
