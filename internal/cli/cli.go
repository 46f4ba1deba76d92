package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nconklindev/xlcut/internal/config"
	"github.com/nconklindev/xlcut/internal/converter"
	"github.com/nconklindev/xlcut/internal/csvout"
	"github.com/nconklindev/xlcut/internal/grid"
	"github.com/nconklindev/xlcut/internal/logger"
	"github.com/nconklindev/xlcut/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidValue = 2
)

// BuildInfo is stamped at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Execute runs the command line and returns the process exit code.
func Execute(info BuildInfo, args []string, stdout, stderr io.Writer) int {
	defaults, err := config.Load(".env")
	if err != nil {
		printError(stderr, err)
		return exitCode(err)
	}

	cmd := NewRootCmd(info, defaults)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		printError(stderr, err)
		return exitCode(err)
	}
	return ExitOK
}

// NewRootCmd builds the xlcut command with flag defaults taken from
// defaults.
func NewRootCmd(info BuildInfo, defaults config.Raw) *cobra.Command {
	raw := defaults

	cmd := &cobra.Command{
		Use:   "xlcut [flags] HEADER...",
		Short: "Extract columns from an xlsx/xlsm sheet by their header names",
		Long: `Extract columns from an xlsx/xlsm sheet by their header names.

The first row containing every HEADER is taken as the header row. Each
HEADER is matched by exact text, a repeated HEADER needs one column per
occurrence, and columns are written in the order the HEADERs are given.
Rows below the header row whose selected cells are all empty are skipped.

HEADER, --delimiter and --quote accept escape sequences such as \t, \n
and \x1f.

Defaults can be set in a .env file or the environment with XLCUT_DELIMITER,
XLCUT_QUOTE, XLCUT_STYLE, XLCUT_ENCODING, XLCUT_BOM, XLCUT_NO_HEADER and
XLCUT_LOG_LEVEL.

Example: xlcut -f report.xlsx -s Summary -d , -o out.csv Name Age Name`,
		Version:       info.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw.Headers = args
			return run(cmd, raw)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	})
	cmd.SetVersionTemplate(fmt.Sprintf("xlcut %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date))

	f := cmd.Flags()
	f.StringVarP(&raw.File, "file", "f", defaults.File, "Excel file (.xlsx or .xlsm)")
	f.StringVarP(&raw.Delimiter, "delimiter", "d", defaults.Delimiter, "Output delimiter")
	f.StringVarP(&raw.Sheet, "sheet", "s", defaults.Sheet, "Sheet name (default: first sheet)")
	f.BoolVarP(&raw.NoHeader, "no-header", "H", defaults.NoHeader, "Suppress header output")
	f.StringVarP(&raw.Quote, "quote", "q", defaults.Quote, "Quote character")
	f.StringVarP(&raw.Style, "style", "t", defaults.Style,
		"Quote style ("+strings.Join(csvout.StyleNames(), ", ")+")")
	f.StringVarP(&raw.Output, "output", "o", defaults.Output, "Place the output into `FILE` (default: stdout)")
	f.StringVarP(&raw.Encoding, "encoding", "e", defaults.Encoding, "Output encoding, e.g. shift_jis or windows-1252 (default: utf-8)")
	f.BoolVar(&raw.BOM, "bom", defaults.BOM, "Write a UTF-8 byte order mark")
	f.BoolVarP(&raw.Interactive, "interactive", "i", defaults.Interactive, "Pick the file, sheet and headers in a terminal UI")
	f.StringVar(&raw.LogLevel, "log-level", defaults.LogLevel, "Diagnostic log level (debug, info, warn, error)")

	return cmd
}

func run(cmd *cobra.Command, raw config.Raw) error {
	opts, err := raw.Parse()
	if err != nil {
		return err
	}

	log, err := logger.New(opts.LogLevel, "stderr")
	if err != nil {
		return fmt.Errorf("%w for log level: %v", config.ErrInvalidValue, err)
	}
	defer log.Sync()

	if opts.Interactive {
		return ui.Run(opts, log)
	}
	return extract(cmd.OutOrStdout(), opts, log)
}

func extract(stdout io.Writer, opts *config.Options, log *zap.Logger) error {
	wb, err := grid.Open(opts.File, log)
	if err != nil {
		return err
	}
	defer wb.Close()

	sheet, err := wb.Sheet(opts.Sheet)
	if err != nil {
		return err
	}

	open := func() (converter.RecordWriter, error) {
		if opts.Output == "" {
			w, err := csvout.NewWriter(stdout, opts.Writer)
			if err != nil {
				return nil, err
			}
			return w, nil
		}
		w, err := csvout.Create(opts.Output, opts.Writer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
		}
		return w, nil
	}

	result, err := converter.Extract(sheet, converter.Request{
		InputFile:     opts.File,
		OutputFile:    opts.Output,
		Sheet:         sheet.Name(),
		Headers:       opts.Headers,
		IncludeHeader: opts.IncludeHeader,
	}, open, nil)
	if err != nil {
		return err
	}

	log.Info("extraction complete",
		zap.String("file", result.InputFile),
		zap.String("sheet", result.Sheet),
		zap.Int("header_row", result.HeaderRow),
		zap.Strings("columns", result.ColumnNames),
		zap.Int("rows_written", result.RowsWritten),
		zap.Int("rows_suppressed", result.RowsSuppressed))
	return nil
}

// exitCode maps bad input to 2, like a usage error, and anything else
// to 1.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalidValue),
		errors.Is(err, converter.ErrHeaderNotFound),
		errors.Is(err, grid.ErrSheetNotFound),
		errors.Is(err, grid.ErrNoSheets):
		return ExitInvalidValue
	}
	return ExitFailure
}

func printError(w io.Writer, err error) {
	msg := err.Error()
	if errors.Is(err, converter.ErrHeaderNotFound) {
		msg = "`[HEADERS]...` not found: " + strings.TrimPrefix(msg, converter.ErrHeaderNotFound.Error()+": ")
	}
	fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle.Render("error:"), msg)
}

// Main is the entry point used by the xlcut binary.
func Main(info BuildInfo) {
	os.Exit(Execute(info, os.Args[1:], os.Stdout, os.Stderr))
}
