package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// FormatCSV is a delimited text export.
const FormatCSV = "csv"

// DefaultCharset is assumed for CSV exports that are not valid UTF-8.
const DefaultCharset = "windows-1254"

func init() {
	Register(FormatCSV, func(data []byte, opts Options) (Sheet, error) {
		return OpenCSV(data, opts.Charset)
	})
}

var charsets = map[string]encoding.Encoding{
	"windows-1254": charmap.Windows1254,
	"cp1254":       charmap.Windows1254,
	"iso-8859-9":   charmap.ISO8859_9,
	"latin5":       charmap.ISO8859_9,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// binarySniffLen bounds how much of the input is checked for control bytes.
const binarySniffLen = 8 << 10

// OpenCSV parses a delimited export. The delimiter is sniffed from the first
// line. Lines that are not valid UTF-8 are decoded with charset, so a file
// mixing both encodings keeps its UTF-8 lines intact. Every cell is text.
func OpenCSV(data []byte, charset string) (*Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if isBinary(data) {
		return nil, fmt.Errorf("%w: input is binary, not delimited text", ErrUnsupportedFormat)
	}

	if !utf8.Valid(data) {
		enc, err := lookupCharset(charset)
		if err != nil {
			return nil, err
		}
		if data, err = decodeLines(data, enc); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]*Cell
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", len(rows)+1, err)
		}
		row := make([]*Cell, len(record))
		for i, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			row[i] = &Cell{Text: field}
		}
		rows = append(rows, row)
	}
	return NewGrid(rows), nil
}

// isBinary reports whether the head of data holds control bytes that never
// appear in a text export. Tab, CR, LF and the DOS end-of-file marker pass.
func isBinary(data []byte) bool {
	head := data[:min(len(data), binarySniffLen)]
	for _, b := range head {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != 0x1A {
			return true
		}
	}
	return false
}

// decodeLines converts every line that is not valid UTF-8 from enc.
func decodeLines(data []byte, enc encoding.Encoding) ([]byte, error) {
	dec := enc.NewDecoder()
	out := make([]byte, 0, len(data)+len(data)/8)
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i+1]
		}
		data = data[len(line):]

		if utf8.Valid(line) {
			out = append(out, line...)
			continue
		}
		decoded, err := dec.Bytes(line)
		if err != nil {
			return nil, fmt.Errorf("decode csv line: %w", err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}

func lookupCharset(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = DefaultCharset
	}
	enc, ok := charsets[n]
	if !ok {
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
	return enc, nil
}

// sniffDelimiter picks the most frequent of ; tab , on the first line.
// Exports that write decimal commas use semicolons.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
