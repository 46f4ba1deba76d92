package grid

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	ErrNoSheets      = errors.New("there is no sheet")
	ErrSheetNotFound = errors.New("sheet not found")
)

// Workbook is an opened .xlsx or .xlsm file.
type Workbook struct {
	file *excelize.File
	log  *zap.Logger
}

// Open opens the workbook at path. The caller must Close it.
func Open(path string, log *zap.Logger) (*Workbook, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{file: f, log: log}, nil
}

// Sheets lists sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Sheet loads the named sheet, or the first sheet when name is empty.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	sheets := w.Sheets()
	if name == "" {
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		name = sheets[0]
	} else {
		found := false
		for _, s := range sheets {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
		}
	}

	s := &Sheet{file: w.file, name: name, log: w.log}
	if err := s.measure(); err != nil {
		return nil, err
	}
	w.log.Debug("sheet loaded",
		zap.String("sheet", name),
		zap.Int("highest_row", s.maxRow),
		zap.Int("highest_column", s.maxCol))
	return s, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheet is a Grid over one worksheet of a Workbook. Values are the
// formatted (display) text excelize produces for each cell.
type Sheet struct {
	file   *excelize.File
	name   string
	log    *zap.Logger
	maxRow int
	maxCol int
}

func (s *Sheet) Name() string {
	return s.name
}

// measure streams the sheet once to find the last row and the widest
// row that hold a non-empty cell.
func (s *Sheet) measure() error {
	rows, err := s.file.Rows(s.name)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", s.name, err)
	}

	cur := 0
	for rows.Next() {
		cur++
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to read row %d of sheet %s: %w", cur, s.name, err)
		}
		if len(cols) == 0 {
			continue
		}
		s.maxRow = cur
		if len(cols) > s.maxCol {
			s.maxCol = len(cols)
		}
	}
	if err := rows.Error(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to read sheet %s: %w", s.name, err)
	}
	return rows.Close()
}

func (s *Sheet) HighestRow() int {
	return s.maxRow
}

func (s *Sheet) HighestColumn() int {
	return s.maxCol
}

func (s *Sheet) Value(row, col int) string {
	if row < 1 || col < 1 || row > s.maxRow || col > s.maxCol {
		return ""
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	v, err := s.file.GetCellValue(s.name, cell)
	if err != nil {
		s.log.Debug("cell read failed", zap.String("sheet", s.name), zap.String("cell", cell), zap.Error(err))
		return ""
	}
	return v
}
