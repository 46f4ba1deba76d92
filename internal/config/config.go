package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nconklindev/xlcut/internal/csvout"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const EnvPrefix = "XLCUT_"

// ErrInvalidValue marks errors caused by a bad argument or setting.
var ErrInvalidValue = errors.New("invalid value")

// Raw holds settings as the user typed them, before escape sequences and
// names are resolved. Flag defaults come from a Raw built by Load.
type Raw struct {
	File        string
	Sheet       string
	Output      string
	Delimiter   string
	Quote       string
	Style       string
	Encoding    string
	LogLevel    string
	NoHeader    bool
	BOM         bool
	Interactive bool
	Headers     []string
}

// Options are the resolved settings for one run.
type Options struct {
	File          string
	Sheet         string
	Output        string
	Headers       []string
	IncludeHeader bool
	Interactive   bool
	LogLevel      string
	Writer        csvout.Options
}

// Defaults returns the built-in settings: tab-delimited, double quotes,
// quoting only where necessary, header record on.
func Defaults() Raw {
	return Raw{
		Delimiter: `\t`,
		Quote:     `"`,
		Style:     csvout.Necessary.String(),
		LogLevel:  "warn",
	}
}

// Load returns Defaults overridden by envFile (when it exists) and by
// XLCUT_* environment variables. Variables already set in the process
// win over the file.
func Load(envFile string) (Raw, error) {
	raw := Defaults()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return raw, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	raw.Delimiter = getEnvOrDefault("DELIMITER", raw.Delimiter)
	raw.Quote = getEnvOrDefault("QUOTE", raw.Quote)
	raw.Style = getEnvOrDefault("STYLE", raw.Style)
	raw.Encoding = getEnvOrDefault("ENCODING", raw.Encoding)
	raw.LogLevel = getEnvOrDefault("LOG_LEVEL", raw.LogLevel)

	var err error
	if raw.NoHeader, err = getEnvBoolOrDefault("NO_HEADER", raw.NoHeader); err != nil {
		return raw, err
	}
	if raw.BOM, err = getEnvBoolOrDefault("BOM", raw.BOM); err != nil {
		return raw, err
	}
	return raw, nil
}

// Parse resolves escape sequences and names. Every failure wraps
// ErrInvalidValue.
func (r Raw) Parse() (*Options, error) {
	delimiter, err := ParseByte(r.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%w for delimiter: %v", ErrInvalidValue, err)
	}
	quote, err := ParseByte(r.Quote)
	if err != nil {
		return nil, fmt.Errorf("%w for quote: %v", ErrInvalidValue, err)
	}
	style, err := csvout.ParseStyle(r.Style)
	if err != nil {
		return nil, fmt.Errorf("%w for style: %v", ErrInvalidValue, err)
	}
	if r.Encoding != "" {
		if _, err := csvout.LookupEncoding(r.Encoding); err != nil {
			return nil, fmt.Errorf("%w for encoding: %v", ErrInvalidValue, err)
		}
	}

	writer := csvout.Options{
		Delimiter: delimiter,
		Quote:     quote,
		Style:     style,
		Encoding:  r.Encoding,
		BOM:       r.BOM,
	}
	if err := writer.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	headers := make([]string, len(r.Headers))
	for i, h := range r.Headers {
		if headers[i], err = Unescape(h); err != nil {
			return nil, fmt.Errorf("%w for header: %v", ErrInvalidValue, err)
		}
	}

	if !r.Interactive {
		if r.File == "" {
			return nil, fmt.Errorf("%w: the workbook file is required", ErrInvalidValue)
		}
		if len(headers) == 0 {
			return nil, fmt.Errorf("%w: at least one header is required", ErrInvalidValue)
		}
	}

	return &Options{
		File:          r.File,
		Sheet:         r.Sheet,
		Output:        r.Output,
		Headers:       headers,
		IncludeHeader: !r.NoHeader,
		Interactive:   r.Interactive,
		LogLevel:      r.LogLevel,
		Writer:        writer,
	}, nil
}

var simpleEscapes = map[byte]rune{
	'0':  0,
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'\'': '\'',
	'"':  '"',
	'\\': '\\',
	'/':  '/',
}

// Unescape expands \0 \b \f \n \r \t \' \" \\ \/, \xNN and \uNNNN.
// Hex escapes name a code point, so \xe9 is "é", not the byte 0xE9.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 == len(s) {
			return "", invalidEscape(s)
		}
		if r, ok := simpleEscapes[s[i+1]]; ok {
			b.WriteRune(r)
			i += 2
			continue
		}

		var width int
		switch s[i+1] {
		case 'x':
			width = 2
		case 'u':
			width = 4
		default:
			return "", invalidEscape(s)
		}
		digits := s[i+2 : min(i+2+width, len(s))]
		if len(digits) != width {
			return "", invalidEscape(s)
		}
		n, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return "", invalidEscape(s)
		}
		b.WriteRune(rune(n))
		i += 2 + width
	}
	return b.String(), nil
}

func invalidEscape(s string) error {
	return fmt.Errorf("`%s` is not a valid escape string", s)
}

// ParseByte unescapes s and requires the result to be exactly one byte.
func ParseByte(s string) (byte, error) {
	d, err := Unescape(s)
	if err != nil {
		return 0, err
	}
	if len(d) != 1 {
		return 0, fmt.Errorf("`%s` must be a single ASCII character", s)
	}
	return d[0], nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return defaultValue, nil
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%w for %s%s: %v", ErrInvalidValue, EnvPrefix, key, err)
	}
	return b, nil
}
