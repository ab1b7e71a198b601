package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readAll(t *testing.T, src Source) [][]string {
	t.Helper()
	var out [][]string
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, row)
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestOpenCSV(t *testing.T) {
	p := writeFile(t, "data.csv", []byte("id, score ,seen\n1, 10 ,2021-05-01\n2,20,\"2021-01-01\"\n"))
	src, err := Open(p, DefaultOptions())
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"id", "score", "seen"}, src.Columns())
	assert.Equal(t, [][]string{
		{"1", "10", "2021-05-01"},
		{"2", "20", "2021-01-01"},
	}, readAll(t, src))
}

func TestOpenTSVSniffsTab(t *testing.T) {
	p := writeFile(t, "data.tsv", []byte("a\tb\nx,y\tz\n"))
	src, err := Open(p, DefaultOptions())
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"a", "b"}, src.Columns())
	assert.Equal(t, [][]string{{"x,y", "z"}}, readAll(t, src))
}

func TestExplicitDelimiter(t *testing.T) {
	src, err := NewDelimited(strings.NewReader("a;b\n1;2\n"), Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, src.Columns())
	assert.Equal(t, [][]string{{"1", "2"}}, readAll(t, src))
}

func TestBOMIsStripped(t *testing.T) {
	src, err := NewDelimited(strings.NewReader("\xEF\xBB\xBFid,v\n1,2\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "id", src.Columns()[0])
}

func TestLatin1Decoding(t *testing.T) {
	opt := DefaultOptions()
	opt.Encoding = "latin1"
	src, err := NewDelimited(bytes.NewReader([]byte("name\ncaf\xe9\n")), opt)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"café"}}, readAll(t, src))
}

func TestUnknownEncoding(t *testing.T) {
	opt := DefaultOptions()
	opt.Encoding = "ebcdic"
	_, err := NewDelimited(strings.NewReader("a\n"), opt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestKeepsWhitespaceWhenTrimOff(t *testing.T) {
	src, err := NewDelimited(strings.NewReader("a\n  x \n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"  x "}}, readAll(t, src))
}

func TestRowsAreNotReused(t *testing.T) {
	src, err := NewDelimited(strings.NewReader("a,b\n1,2\n3,4\n"), DefaultOptions())
	require.NoError(t, err)
	first, err := src.Next()
	require.NoError(t, err)
	_, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, first)
}

func TestShortRowsPassThrough(t *testing.T) {
	src, err := NewDelimited(strings.NewReader("a,b,c\n1\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}}, readAll(t, src))
}

func TestHeaderErrors(t *testing.T) {
	p := writeFile(t, "empty.csv", nil)
	_, err := Open(p, DefaultOptions())
	var he *HeaderError
	require.True(t, errors.As(err, &he))
	assert.ErrorIs(t, err, ErrEmptyHeader)
	assert.Contains(t, err.Error(), "empty.csv")

	_, err = NewDelimited(strings.NewReader(" , \n1,2\n"), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyHeader)

	_, err = NewDelimited(strings.NewReader("a,\"b\n"), DefaultOptions())
	require.True(t, errors.As(err, &he))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("v\n1\n2\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src, err := Open(writeFile(t, "data.csv.gz", buf.Bytes()), DefaultOptions())
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, [][]string{{"1"}, {"2"}}, readAll(t, src))
}

func TestOpenZstd(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte("a\tb\nx\ty\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src, err := Open(writeFile(t, "data.tsv.zst", buf.Bytes()), DefaultOptions())
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"a", "b"}, src.Columns())
	assert.Equal(t, [][]string{{"x", "y"}}, readAll(t, src))
}

func TestIsSupported(t *testing.T) {
	for _, p := range []string{"a.csv", "a.TSV", "a.csv.gz", "a.xlsx", "a.tsv.zst"} {
		assert.True(t, IsSupported(p), p)
	}
	for _, p := range []string{"a.json", "a.gz", "a.docx"} {
		assert.False(t, IsSupported(p), p)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]interface{}{"id", "score", "note"}))
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]interface{}{"1", "10", "ok"}))
	require.NoError(t, f.SetSheetRow("Data", "A4", &[]interface{}{"2", "20"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"other"}))
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestOpenXLSXBySheetName(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetName = "data"
	src, err := Open(writeWorkbook(t), opt)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"id", "score", "note"}, src.Columns())
	assert.Equal(t, [][]string{
		{"1", "10", "ok"},
		{"2", "20", ""},
	}, readAll(t, src))
}

func TestOpenXLSXByIndex(t *testing.T) {
	src, err := Open(writeWorkbook(t), DefaultOptions())
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"other"}, src.Columns())
}

func TestOpenXLSXMissingSheet(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetName = "Nope"
	_, err := Open(writeWorkbook(t), opt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets")

	opt = DefaultOptions()
	opt.SheetIndex = 9
	_, err = Open(writeWorkbook(t), opt)
	assert.Contains(t, err.Error(), "out of range")
}
