package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/xlcut/internal/config"
	"github.com/nconklindev/xlcut/internal/converter"
	"github.com/nconklindev/xlcut/internal/csvout"
	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type state int

const (
	stateFilePicker state = iota
	stateSheetSelection
	stateRowSelection
	stateHeaderSelection
	stateProcessing
	stateComplete
	stateError
)

const maxCellWidth = 24

type Model struct {
	state        state
	opts         config.Options
	log          *zap.Logger
	filepicker   filepicker.Model
	selectedFile string
	workbook     *grid.Workbook
	sheets       []string
	sheet        *grid.Sheet
	preview      *types.SheetPreview
	headerRow    int
	selected     []int
	cursor       int
	result       *types.ExtractResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ExtractResult
	err    error
}

type workbookLoadedMsg struct {
	workbook *grid.Workbook
	err      error
}

type sheetLoadedMsg struct {
	sheet   *grid.Sheet
	preview *types.SheetPreview
	err     error
}

type conversionCompleteMsg struct {
	result *types.ExtractResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

// Run starts the interactive picker and blocks until the user quits. It
// returns the error shown on the error screen, if any.
func Run(opts *config.Options, log *zap.Logger) error {
	p := tea.NewProgram(InitialModel(*opts, log), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := final.(Model)
	if !ok {
		return nil
	}
	if m.workbook != nil {
		m.workbook.Close()
	}
	if m.result != nil {
		log.Info("extraction complete",
			zap.String("file", m.result.InputFile),
			zap.String("output", m.result.OutputFile),
			zap.Int("header_row", m.result.HeaderRow),
			zap.Int("rows_written", m.result.RowsWritten))
	}
	return m.err
}

func InitialModel(opts config.Options, log *zap.Logger) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".xlsm"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = CursorStyle
	fp.Styles.Selected = CursorStyle
	fp.Styles.Directory = PickedStyle
	fp.Styles.Symlink = PickedStyle
	fp.Styles.Permission = CaptionStyle
	fp.Styles.FileSize = CaptionStyle

	prog := progress.New(progress.WithGradient("#2EA043", "#7EE787"))

	if log == nil {
		log = zap.NewNop()
	}

	return Model{
		state:        stateFilePicker,
		opts:         opts,
		log:          log,
		filepicker:   fp,
		selectedFile: opts.File,
		progress:     prog,
	}
}

func (m Model) Init() tea.Cmd {
	if m.selectedFile != "" {
		return m.loadWorkbook(m.selectedFile)
	}
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, subtitle and help
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case workbookLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.workbook = msg.workbook
		m.sheets = msg.workbook.Sheets()
		if m.opts.Sheet != "" {
			return m, m.loadSheet(m.opts.Sheet)
		}
		if len(m.sheets) == 1 {
			return m, m.loadSheet(m.sheets[0])
		}
		if len(m.sheets) == 0 {
			m.err = grid.ErrNoSheets
			m.state = stateError
			return m, nil
		}
		m.cursor = 0
		m.state = stateSheetSelection
		return m, nil

	case sheetLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		if len(msg.preview.Rows) == 0 {
			m.err = fmt.Errorf("sheet %s is empty", msg.sheet.Name())
			m.state = stateError
			return m, nil
		}
		m.sheet = msg.sheet
		m.preview = msg.preview
		m.cursor = 0
		m.state = stateRowSelection
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadWorkbook(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateFilePicker:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadWorkbook(path)
		}
		return m, cmd

	case stateSheetSelection:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sheets)-1 {
				m.cursor++
			}
		case "enter":
			return m, m.loadSheet(m.sheets[m.cursor])
		}

	case stateRowSelection:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.preview.Rows)-1 {
				m.cursor++
			}
		case "esc":
			if len(m.sheets) > 1 && m.opts.Sheet == "" {
				m.cursor = 0
				m.state = stateSheetSelection
			}
		case "enter":
			m.headerRow = m.cursor
			m.selected = nil
			m.cursor = firstNonEmpty(m.preview.Rows[m.headerRow].Cells)
			m.state = stateHeaderSelection
		}

	case stateHeaderSelection:
		cells := m.preview.Rows[m.headerRow].Cells
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.cursor = nextNonEmpty(cells, m.cursor, -1)
		case "down", "j":
			m.cursor = nextNonEmpty(cells, m.cursor, 1)
		case " ":
			m.selected = toggle(m.selected, m.cursor)
		case "a":
			m.selected = nil
			for i, c := range cells {
				if c != "" {
					m.selected = append(m.selected, i)
				}
			}
		case "esc":
			m.cursor = m.headerRow
			m.state = stateRowSelection
		case "enter":
			if len(m.selected) > 0 {
				m.state = stateProcessing
				return m.convertFile()
			}
		}

	case stateComplete, stateError:
		switch msg.String() {
		case "ctrl+c", "q", "enter", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m Model) loadWorkbook(path string) tea.Cmd {
	return func() tea.Msg {
		wb, err := grid.Open(path, zap.NewNop())
		return workbookLoadedMsg{workbook: wb, err: err}
	}
}

func (m Model) loadSheet(name string) tea.Cmd {
	wb := m.workbook
	return func() tea.Msg {
		sheet, err := wb.Sheet(name)
		if err != nil {
			return sheetLoadedMsg{err: err}
		}
		return sheetLoadedMsg{sheet: sheet, preview: converter.PreviewSheet(sheet, sheet.Name(), converter.PreviewRowLimit)}
	}
}

// headers returns the picked labels in the order they were picked.
func (m Model) headers() []string {
	cells := m.preview.Rows[m.headerRow].Cells
	labels := make([]string, len(m.selected))
	for i, idx := range m.selected {
		labels[i] = cells[idx]
	}
	return labels
}

// assignment binds the picked cells of the picked row, so a repeated
// label writes the column the user chose rather than the first match.
func (m Model) assignment() types.Assignment {
	a := types.Assignment{
		Row:     m.preview.Rows[m.headerRow].Row,
		Columns: make([]int, len(m.selected)),
	}
	for i, idx := range m.selected {
		a.Columns[i] = idx + 1
	}
	return a
}

// outputPath is the -o value, or <workbook>_<sheet>.csv beside the workbook.
func (m Model) outputPath() string {
	if m.opts.Output != "" {
		return m.opts.Output
	}
	ext := filepath.Ext(m.selectedFile)
	base := strings.TrimSuffix(m.selectedFile, ext)
	return base + "_" + sanitize(m.sheet.Name()) + ".csv"
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	cmd := tea.Batch(
		func() tea.Msg {
			// Capture everything the goroutine needs
			progressChan := m.progressChan
			resultChan := m.resultChan
			sheet := m.sheet
			assignment := m.assignment()
			writerOpts := m.opts.Writer
			outputFile := m.outputPath()
			req := converter.Request{
				InputFile:     m.selectedFile,
				OutputFile:    outputFile,
				Sheet:         sheet.Name(),
				Headers:       m.headers(),
				IncludeHeader: m.opts.IncludeHeader,
			}

			go func() {
				open := func() (converter.RecordWriter, error) {
					w, err := csvout.Create(outputFile, writerOpts)
					if err != nil {
						return nil, err
					}
					return w, nil
				}
				result, err := converter.ExtractAt(sheet, assignment, req, open, progressChan)

				resultChan <- conversionResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateSheetSelection:
		return m.viewSheetSelection()
	case stateRowSelection:
		return m.viewRowSelection()
	case stateHeaderSelection:
		return m.viewHeaderSelection()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(HeadingStyle.Render("xlcut"))
	s.WriteString(" ")
	s.WriteString(CaptionStyle.Render("pick an .xlsx or .xlsm workbook"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString(KeyHintStyle.Render("q: quit"))

	return s.String()
}

func (m Model) viewSheetSelection() string {
	var s strings.Builder

	s.WriteString(HeadingStyle.Render("Sheet"))
	s.WriteString(" ")
	s.WriteString(CaptionStyle.Render(filepath.Base(m.selectedFile)))
	s.WriteString("\n\n")

	for i, name := range m.sheets {
		if m.cursor == i {
			s.WriteString(CursorStyle.Render("> " + name))
		} else {
			s.WriteString("  " + name)
		}
		s.WriteString("\n")
	}

	s.WriteString(KeyHintStyle.Render("↑/↓ move • enter open • q quit"))

	return FrameStyle.Render(s.String())
}

func (m Model) viewRowSelection() string {
	var s strings.Builder

	s.WriteString(HeadingStyle.Render("Header row"))
	s.WriteString(" ")
	s.WriteString(CaptionStyle.Render(fmt.Sprintf("%s › %s", filepath.Base(m.selectedFile), m.preview.Sheet)))
	s.WriteString("\n\n")

	for i, row := range m.preview.Rows {
		gutter := GutterStyle.Render(strconv.Itoa(row.Row))
		cells := joinCells(row.Cells)
		if m.cursor == i {
			s.WriteString(CursorStyle.Render(">") + gutter + "  " + CursorStyle.Render(cells))
		} else {
			s.WriteString(" " + gutter + "  " + cells)
		}
		s.WriteString("\n")
	}

	s.WriteString(KeyHintStyle.Render("↑/↓ move • enter use as header row • esc back • q quit"))

	return FrameStyle.Render(s.String())
}

func (m Model) viewHeaderSelection() string {
	var s strings.Builder
	row := m.preview.Rows[m.headerRow]

	s.WriteString(HeadingStyle.Render("Columns"))
	s.WriteString(" ")
	s.WriteString(CaptionStyle.Render(fmt.Sprintf("%s › row %d", m.preview.Sheet, row.Row)))
	s.WriteString("\n\n")

	for i, cell := range row.Cells {
		if cell == "" {
			continue
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		tag := ColumnTagStyle.Render(name)

		order := "  "
		pos := indexOf(m.selected, i)
		if pos >= 0 {
			order = fmt.Sprintf("%2d", pos+1)
		}
		label := fmt.Sprintf("[%s] %s", order, cell)

		switch {
		case m.cursor == i:
			s.WriteString(CursorStyle.Render("> ") + tag + CursorStyle.Render(label))
		case pos >= 0:
			s.WriteString("  " + tag + PickedStyle.Render(label))
		default:
			s.WriteString("  " + tag + label)
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(CaptionStyle.Render("→ " + m.outputPath()))
	s.WriteString(KeyHintStyle.Render("↑/↓ move • space pick (output order) • a all • enter extract • esc back • q quit"))

	return FrameStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(HeadingStyle.Render("Extracting"))
	s.WriteString(" ")
	s.WriteString(CaptionStyle.Render(m.sheet.Name()))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return FrameStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(HeadingStyle.Render("✓ Done"))
	s.WriteString("\n\n")

	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	fmt.Fprintf(&s, "%s %s\n", CaptionStyle.Render("from"), truncatePath(m.result.InputFile, maxPathLen))
	fmt.Fprintf(&s, "%s   %s\n", CaptionStyle.Render("to"), PickedStyle.Render(truncatePath(m.result.OutputFile, maxPathLen)))
	s.WriteString("\n")
	fmt.Fprintf(&s, "header row %d, columns %s\n", m.result.HeaderRow, strings.Join(m.result.ColumnNames, ", "))
	fmt.Fprintf(&s, "%d rows written, %d empty rows skipped\n", m.result.RowsWritten, m.result.RowsSuppressed)
	s.WriteString(KeyHintStyle.Render("enter: exit"))

	return FrameStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n")
	s.WriteString(KeyHintStyle.Render("enter: exit"))

	return FrameStyle.Render(s.String())
}
