package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type delimited struct {
	r       *csv.Reader
	header  []string
	trim    bool
	closers []func() error
}

// OpenDelimited opens a CSV or TSV file, possibly compressed, and reads its header.
func OpenDelimited(path string, opt Options) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	rd, closeDec, err := decompress(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	src, err := newDelimited(rd, opt)
	if err != nil {
		closeDec()
		f.Close()
		var he *HeaderError
		if errors.As(err, &he) {
			he.Path = path
		}
		return nil, err
	}
	src.closers = append(src.closers, closeDec, f.Close)
	return src, nil
}

// NewDelimited reads delimited text from r. The caller keeps ownership of r.
func NewDelimited(r io.Reader, opt Options) (Source, error) {
	return newDelimited(r, opt)
}

func newDelimited(r io.Reader, opt Options) (*delimited, error) {
	enc, err := textEncoding(opt.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())))
	cr.Comma = opt.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &HeaderError{Err: ErrEmptyHeader}
	}
	if err != nil {
		return nil, &HeaderError{Err: err}
	}
	blank := true
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		hdr[i] = h
		if h != "" {
			blank = false
		}
	}
	if blank {
		return nil, &HeaderError{Err: ErrEmptyHeader}
	}
	return &delimited{r: cr, header: hdr, trim: opt.TrimSpace}, nil
}

func (d *delimited) Columns() []string { return d.header }

func (d *delimited) Next() ([]string, error) {
	rec, err := d.r.Read()
	if err != nil {
		return nil, err
	}
	if d.trim {
		for i, v := range rec {
			rec[i] = strings.TrimSpace(v)
		}
	}
	return rec, nil
}

func (d *delimited) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func textEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (use utf-8, latin1 or windows-1252)", name)
	}
}
