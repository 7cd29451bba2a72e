package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedFormat means the bytes are not a format this package reads.
var ErrUnsupportedFormat = errors.New("unsupported sheet format")

// Options control how raw bytes are opened.
type Options struct {
	// Format forces a registered format; empty means detect.
	Format string
	// Charset is used for text formats that are not valid UTF-8.
	Charset string
}

// Opener parses raw file bytes into a sheet.
type Opener func(data []byte, opts Options) (Sheet, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register adds a format under name. It panics on duplicates.
func Register(name string, o Opener) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		panic("sheet: empty name in Register")
	}
	if o == nil {
		panic("sheet: nil opener in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("sheet: duplicate registration for " + n)
	}
	registry[n] = o
}

// Formats lists the registered format names.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// Detect guesses the format of data: zip containers are xlsx, everything else csv.
func Detect(data []byte) string {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Open parses data with the requested or detected format.
func Open(data []byte, opts Options) (Sheet, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Format))
	if name == "" {
		name = Detect(data)
	}

	if bytes.HasPrefix(data, ole2Magic) {
		return nil, fmt.Errorf("%w: legacy .xls workbook, save it as .xlsx", ErrUnsupportedFormat)
	}

	registryMu.RLock()
	o, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sheet format %q (available: %v)", name, Formats())
	}
	return o(data, opts)
}
