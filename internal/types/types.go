package types

// Assignment is a located header row and one column per requested label,
// in requested order. Both indices are 1-based.
type Assignment struct {
	Row     int
	Columns []int
}

type ExtractResult struct {
	InputFile      string
	OutputFile     string
	Sheet          string
	Headers        []string
	HeaderRow      int
	Columns        []int
	ColumnNames    []string
	RowsWritten    int
	RowsSuppressed int
}

// PreviewRow is a non-empty sheet row shown while picking a header row.
type PreviewRow struct {
	Row   int
	Cells []string
}

type SheetPreview struct {
	Sheet string
	Rows  []PreviewRow
}
