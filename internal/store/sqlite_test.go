package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamwojt/csv-sumup/internal/analysis"
)

func f(v float64) *float64 { return &v }

func TestSaveReport(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "sumup.db"))
	require.NoError(t, err)
	defer db.Close()

	rep := &analysis.Report{
		Name:  "scores.csv",
		RunID: "run-1",
		Rows:  3,
		Cols: []analysis.ColumnSummary{
			{Name: "id", Kind: "text", CategoryCount: 3, Categories: []string{"a", "b", "c"}},
			{Name: "score", Kind: "number", Count: 3, Sum: f(40), Mean: f(40.0 / 3), Median: f(10), Variance: f(100.0 / 3), Std: f(5.7735)},
			{Name: "seen", Kind: "date", Count: 3, Earliest: "2021-01-01", Latest: "2021-12-01"},
			{Name: "single", Kind: "number", Count: 1, Sum: f(5), Mean: f(5), Median: f(5), Error: "too few"},
		},
	}
	require.NoError(t, db.SaveReport(ctx, rep))
	// idempotent per run
	require.NoError(t, db.SaveReport(ctx, rep))

	var n int
	require.NoError(t, db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM column_summaries WHERE run_id = ?`, "run-1").Scan(&n))
	assert.Equal(t, 4, n)

	var sum, median float64
	require.NoError(t, db.DB().QueryRowContext(ctx,
		`SELECT sum, median FROM column_summaries WHERE run_id = ? AND "column" = ?`, "run-1", "score").Scan(&sum, &median))
	assert.Equal(t, 40.0, sum)
	assert.Equal(t, 10.0, median)

	var earliest, latest string
	var cats sql.NullInt64
	require.NoError(t, db.DB().QueryRowContext(ctx,
		`SELECT earliest, latest, category_count FROM column_summaries WHERE "column" = ?`, "seen").Scan(&earliest, &latest, &cats))
	assert.Equal(t, "2021-01-01", earliest)
	assert.Equal(t, "2021-12-01", latest)
	assert.False(t, cats.Valid)

	var variance sql.NullFloat64
	var errText sql.NullString
	require.NoError(t, db.DB().QueryRowContext(ctx,
		`SELECT variance, error FROM column_summaries WHERE "column" = ?`, "single").Scan(&variance, &errText))
	assert.False(t, variance.Valid)
	assert.Equal(t, "too few", errText.String)
}

func TestSaveReportRequiresRunID(t *testing.T) {
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer db.Close()
	assert.Error(t, db.SaveReport(context.Background(), &analysis.Report{}))
}
