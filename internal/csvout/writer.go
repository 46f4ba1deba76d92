// Package csvout writes delimited-text records with a configurable
// delimiter, quote character and quoting style.
package csvout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Style controls which fields are wrapped in quote characters.
type Style int

const (
	// Necessary quotes fields containing the delimiter, the quote
	// character or a line break, and a record made of one empty field.
	Necessary Style = iota
	// Always quotes every field.
	Always
	// NonNumeric quotes every field that does not parse as a number.
	NonNumeric
	// Never writes fields as they are.
	Never
)

var styleNames = map[Style]string{
	Always:     "always",
	Necessary:  "necessary",
	NonNumeric: "non-numeric",
	Never:      "never",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// StyleNames lists the accepted style names.
func StyleNames() []string {
	return []string{"always", "necessary", "non-numeric", "never"}
}

// ParseStyle maps a style name to its Style.
func ParseStyle(name string) (Style, error) {
	for s, n := range styleNames {
		if n == name {
			return s, nil
		}
	}
	return Necessary, fmt.Errorf("invalid quote style %q (possible values: %s)", name, strings.Join(StyleNames(), ", "))
}

type Options struct {
	Delimiter byte
	Quote     byte
	Style     Style
	// Encoding names the output character set; empty means UTF-8.
	Encoding string
	// BOM writes a UTF-8 byte order mark before the first record.
	BOM bool
}

// DefaultOptions matches RFC 4180 output.
func DefaultOptions() Options {
	return Options{Delimiter: ',', Quote: '"', Style: Necessary}
}

// Writer buffers records and writes them to an underlying io.Writer.
type Writer struct {
	opts   Options
	bw     *bufio.Writer
	enc    io.WriteCloser
	closer io.Closer
}

// NewWriter wraps w. Close flushes but does not close w.
func NewWriter(w io.Writer, opts Options) (*Writer, error) {
	opts, enc, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	out := &Writer{opts: opts}
	sink := w
	if enc != nil {
		out.enc = transform.NewWriter(w, enc.NewEncoder())
		sink = out.enc
	}
	out.bw = bufio.NewWriter(sink)
	if opts.BOM {
		if _, err := out.bw.WriteString("\uFEFF"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Create opens path for writing and returns a Writer that closes the file
// on Close. Options are checked before the file is created.
func Create(path string, opts Options) (*Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("can't create %s: %w", path, err)
	}
	w, err := NewWriter(f, opts)
	if err != nil {
		return nil, multierr.Append(err, f.Close())
	}
	w.closer = f
	return w, nil
}

// Validate reports options NewWriter would reject.
func (o Options) Validate() error {
	_, _, err := o.resolve()
	return err
}

// resolve fills defaults and returns the output encoding, nil for UTF-8.
func (o Options) resolve() (Options, encoding.Encoding, error) {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.Quote == 0 {
		o.Quote = '"'
	}
	if o.Delimiter == o.Quote {
		return o, nil, fmt.Errorf("delimiter and quote must differ: %q", o.Delimiter)
	}
	if o.Encoding == "" {
		return o, nil, nil
	}
	e, err := LookupEncoding(o.Encoding)
	if err != nil {
		return o, nil, err
	}
	if e == unicode.UTF8 {
		return o, nil, nil
	}
	if o.BOM {
		return o, nil, fmt.Errorf("a byte order mark needs UTF-8 output, not %s", o.Encoding)
	}
	return o, e, nil
}

// LookupEncoding resolves a WHATWG encoding label such as "shift_jis" or
// "windows-1252".
func LookupEncoding(name string) (encoding.Encoding, error) {
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return e, nil
}

// Write writes one record followed by a newline.
func (w *Writer) Write(record []string) error {
	single := len(record) == 1
	for i, field := range record {
		if i > 0 {
			if err := w.bw.WriteByte(w.opts.Delimiter); err != nil {
				return err
			}
		}
		if !w.shouldQuote(field, single) {
			if _, err := w.bw.WriteString(field); err != nil {
				return err
			}
			continue
		}
		if err := w.writeQuoted(field); err != nil {
			return err
		}
	}
	return w.bw.WriteByte('\n')
}

func (w *Writer) writeQuoted(field string) error {
	q := w.opts.Quote
	if err := w.bw.WriteByte(q); err != nil {
		return err
	}
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c == q {
			if err := w.bw.WriteByte(q); err != nil {
				return err
			}
		}
		if err := w.bw.WriteByte(c); err != nil {
			return err
		}
	}
	return w.bw.WriteByte(q)
}

func (w *Writer) shouldQuote(field string, single bool) bool {
	switch w.opts.Style {
	case Always:
		return true
	case Never:
		return false
	case NonNumeric:
		if !isNumeric(field) {
			return true
		}
	}
	if field == "" {
		return single
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case w.opts.Delimiter, w.opts.Quote, '\r', '\n':
			return true
		}
	}
	return false
}

func isNumeric(field string) bool {
	if _, err := strconv.ParseInt(field, 10, 64); err == nil {
		return true
	}
	_, err := strconv.ParseFloat(field, 64)
	return err == nil
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close flushes, finishes any pending encoding and closes the file when
// the Writer owns one.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.enc != nil {
		err = multierr.Append(err, w.enc.Close())
	}
	if w.closer != nil {
		err = multierr.Append(err, w.closer.Close())
	}
	return err
}
