package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type workbook struct {
	f      *excelize.File
	rows   *excelize.Rows
	header []string
	trim   bool
}

// OpenXLSX opens one sheet of a workbook. The first non-empty row is the header.
// Sheets drop trailing empty cells, so rows are padded back to the header width.
func OpenXLSX(path string, opt Options) (Source, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer fh.Close()
	rd, closeDec, err := decompress(fh, path)
	if err != nil {
		return nil, err
	}
	defer closeDec()

	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb, err := newWorkbook(f, filepath.Base(path), opt)
	if err != nil {
		_ = f.Close()
		var he *HeaderError
		if errors.As(err, &he) {
			he.Path = path
		}
		return nil, err
	}
	return wb, nil
}

func newWorkbook(f *excelize.File, name string, opt Options) (*workbook, error) {
	sheet, err := pickSheet(f, name, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open rows iterator for sheet %s: %w", sheet, err)
	}
	wb := &workbook{f: f, rows: rows, trim: opt.TrimSpace}
	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			_ = rows.Close()
			return nil, &HeaderError{Err: err}
		}
		if isBlank(row) {
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		wb.header = row
		break
	}
	if wb.header == nil {
		_ = rows.Close()
		if err := rows.Error(); err != nil {
			return nil, &HeaderError{Err: err}
		}
		return nil, &HeaderError{Err: fmt.Errorf("sheet %s: %w", sheet, ErrEmptyHeader)}
	}
	return wb, nil
}

func pickSheet(f *excelize.File, name, sheetName string, sheetIndex int) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("no sheets found in workbook")
	}
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, sheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			sheetName, name, strings.Join(sheets, ", "))
	}
	idx := sheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range: workbook '%s' has %d sheet(s)", idx, name, len(sheets))
	}
	return sheets[idx-1], nil
}

func (w *workbook) Columns() []string { return w.header }

func (w *workbook) Next() ([]string, error) {
	if !w.rows.Next() {
		if err := w.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	row, err := w.rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(row) < len(w.header) {
		padded := make([]string, len(w.header))
		copy(padded, row)
		row = padded
	}
	if w.trim {
		for i, v := range row {
			row[i] = strings.TrimSpace(v)
		}
	}
	return row, nil
}

func (w *workbook) Close() error {
	return errors.Join(w.rows.Close(), w.f.Close())
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
