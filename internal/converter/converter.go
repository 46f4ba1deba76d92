package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/types"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

const PreviewRowLimit = 20

var ErrHeaderNotFound = errors.New("headers not found")

// RecordWriter receives one record per call, in order.
type RecordWriter interface {
	Write(record []string) error
	Flush() error
	Close() error
}

// Opener creates the output writer. Extract calls it only after the
// header row has been located, so a failed lookup leaves no output behind.
type Opener func() (RecordWriter, error)

// Request describes one extraction. InputFile, OutputFile and Sheet are
// only carried into the result.
type Request struct {
	InputFile     string
	OutputFile    string
	Sheet         string
	Headers       []string
	IncludeHeader bool
}

// Extract locates the requested headers in g and writes every non-empty
// projected row below them. It returns ErrHeaderNotFound before opening
// the output when no row holds all of the headers.
func Extract(g grid.Grid, req Request, open Opener, progressChan chan<- float64) (*types.ExtractResult, error) {
	a, ok := Locate(g, req.Headers)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeaderNotFound, quoteAll(req.Headers))
	}
	return ExtractAt(g, a, req, open, progressChan)
}

// ExtractAt writes the rows below a header row that has already been
// chosen, such as one picked interactively. req.Headers must hold one
// label per column of a.
func ExtractAt(g grid.Grid, a types.Assignment, req Request, open Opener, progressChan chan<- float64) (result *types.ExtractResult, err error) {
	if len(req.Headers) != len(a.Columns) {
		return nil, fmt.Errorf("%d headers for %d columns", len(req.Headers), len(a.Columns))
	}

	w, err := open()
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, w.Close())
		if err != nil {
			result = nil
		}
	}()

	totalRows := g.HighestRow() - a.Row

	// Helper to report progress
	reportProgress := func(current int) {
		if progressChan != nil && totalRows > 0 {
			select {
			case progressChan <- float64(current) / float64(totalRows):
			default:
			}
		}
	}

	if req.IncludeHeader {
		if err := w.Write(req.Headers); err != nil {
			return nil, err
		}
	}

	written := 0
	for row, values := range ProjectRows(g, a) {
		if err := w.Write(values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		written++
		reportProgress(row - a.Row)
	}
	reportProgress(totalRows)

	if err := w.Flush(); err != nil {
		return nil, err
	}

	names := make([]string, len(a.Columns))
	for i, col := range a.Columns {
		names[i], _ = excelize.ColumnNumberToName(col)
	}

	return &types.ExtractResult{
		InputFile:      req.InputFile,
		OutputFile:     req.OutputFile,
		Sheet:          req.Sheet,
		Headers:        req.Headers,
		HeaderRow:      a.Row,
		Columns:        a.Columns,
		ColumnNames:    names,
		RowsWritten:    written,
		RowsSuppressed: totalRows - written,
	}, nil
}

// PreviewSheet returns up to limit non-empty rows from the top of g, used
// to pick a header row interactively.
func PreviewSheet(g grid.Grid, sheet string, limit int) *types.SheetPreview {
	preview := &types.SheetPreview{Sheet: sheet}
	for row := 1; row <= g.HighestRow() && len(preview.Rows) < limit; row++ {
		cells := make([]string, g.HighestColumn())
		nonEmpty := false
		for col := 1; col <= g.HighestColumn(); col++ {
			cells[col-1] = g.Value(row, col)
			if cells[col-1] != "" {
				nonEmpty = true
			}
		}
		if !nonEmpty {
			continue
		}
		preview.Rows = append(preview.Rows, types.PreviewRow{Row: row, Cells: cells})
	}
	return preview
}

func quoteAll(headers []string) string {
	quoted := make([]string, len(headers))
	for i, h := range headers {
		quoted[i] = fmt.Sprintf("%q", h)
	}
	return strings.Join(quoted, ", ")
}
