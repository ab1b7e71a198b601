// Package source opens tabular files and yields their header and rows lazily.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrEmptyHeader is wrapped by HeaderError when the first row is missing or blank.
var ErrEmptyHeader = errors.New("header row is empty")

// Source yields the column names once and then one row at a time.
// Next returns io.EOF after the last row.
type Source interface {
	Columns() []string
	Next() ([]string, error)
	Close() error
}

// Options controls how files are read.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Encoding of delimited text: utf-8 (default), latin1 or windows-1252.
	// A byte order mark always wins.
	Encoding   string
	TrimSpace  bool
	LazyQuotes bool
	// Sheet selection for workbooks. SheetIndex is 1-based; first sheet when both are unset.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Encoding: "utf-8", TrimSpace: true}
}

// HeaderError means the header row could not be read. Runs abort on it before any
// aggregator starts.
type HeaderError struct {
	Path string
	Err  error
}

func (e *HeaderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read header: %v", e.Err)
	}
	return fmt.Sprintf("read header of %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// Open picks a reader from the file extension. .gz and .zst suffixes are
// decompressed on the fly; .xlsx opens a workbook, anything else is delimited text.
func Open(path string, opt Options) (Source, error) {
	base, _ := splitCompression(path)
	if strings.EqualFold(filepath.Ext(base), ".xlsx") {
		return OpenXLSX(path, opt)
	}
	return OpenDelimited(path, opt)
}

// IsSupported reports whether Open knows how to read path.
func IsSupported(path string) bool {
	base, _ := splitCompression(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".tsv", ".txt", ".xlsx":
		return true
	}
	return false
}

func splitCompression(path string) (base, codec string) {
	lower := strings.ToLower(path)
	for _, ext := range []string{".gz", ".zst"} {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)], ext
		}
	}
	return path, ""
}

// decompress wraps r according to the compression suffix of path. The returned
// close function releases the decoder, not r.
func decompress(r io.Reader, path string) (io.Reader, func() error, error) {
	_, codec := splitCompression(path)
	switch codec {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error { dec.Close(); return nil }, nil
	default:
		return r, func() error { return nil }, nil
	}
}

func sniffDelimiter(path string) rune {
	base, _ := splitCompression(path)
	if strings.EqualFold(filepath.Ext(base), ".tsv") {
		return '\t'
	}
	return ','
}
