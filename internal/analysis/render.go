package analysis

import (
	"fmt"
	"strings"

	"github.com/jamwojt/csv-sumup/internal/fsutil"
)

// Text renders the three-section console table: text, date and number columns.
// Numbers are shown with 4 decimals.
func (r *Report) Text() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(strings.TrimRight(fmt.Sprintf(format, args...), " "))
		b.WriteByte('\n')
	}

	line("Text columns\n")
	line("%-20s %-20s %s", "column", "class count", "classes")
	for _, c := range r.Cols {
		if c.Kind != "text" {
			continue
		}
		if c.CategoryCount > r.categoryLimit() {
			line("%-20s %-20d (a lot)", c.Name, c.CategoryCount)
			continue
		}
		quoted := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			quoted[i] = fmt.Sprintf("%q", cat)
		}
		line("%-20s %-20d (%s)", c.Name, c.CategoryCount, strings.Join(quoted, ", "))
	}

	line("\nDate columns\n")
	line("%-20s%-20s%-20s", "column", "earliest", "latest")
	for _, c := range r.Cols {
		if c.Kind == "date" {
			line("%-20s%-20s%-20s", c.Name, c.Earliest, c.Latest)
		}
	}

	line("\nNumber columns\n")
	line("%-20s%-20s%-20s%-20s%-20s%-20s", "column", "sum", "mean", "median", "variance", "std")
	for _, c := range r.Cols {
		if c.Kind == "number" {
			line("%-20s%-20s%-20s%-20s%-20s%-20s", c.Name, num(c.Sum), num(c.Mean), num(c.Median), num(c.Variance), num(c.Std))
		}
	}

	var failed []ColumnSummary
	for _, c := range r.Cols {
		if c.Kind == KindUnavailable {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		line("\nUnavailable columns\n")
		for _, c := range failed {
			line("%-20s%s", c.Name, c.Error)
		}
	}
	return b.String()
}

func num(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *f)
}

// Markdown renders a compact report suitable for docs or issue comments.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s", safeName(c.Name), c.Kind))
		switch c.Kind {
		case "number":
			b.WriteString(fmt.Sprintf(" (n=%d) — sum %.4g, mean %.4g, median %.4g", c.Count, *c.Sum, *c.Mean, *c.Median))
			if c.Std != nil {
				b.WriteString(fmt.Sprintf(", variance %.4g, std %.4g", *c.Variance, *c.Std))
			}
		case "date":
			b.WriteString(fmt.Sprintf(" (n=%d) — %s to %s", c.Count, c.Earliest, c.Latest))
		case "text":
			b.WriteString(fmt.Sprintf(" — %d categories", c.CategoryCount))
			if c.CategoryCount > 0 && c.CategoryCount <= r.categoryLimit() {
				vals := make([]string, len(c.Categories))
				for i, v := range c.Categories {
					vals[i] = safeVal(v)
				}
				b.WriteString(": " + strings.Join(vals, ", "))
			}
		default:
			if c.Error != "" {
				b.WriteString(" — " + safeVal(c.Error))
			}
		}
		if c.Anomalies > 0 {
			b.WriteString(fmt.Sprintf("; %d values of another kind ignored", c.Anomalies))
		}
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return fsutil.PrettyJSON(r)
}

// Render picks a renderer by name: text, markdown or json.
func (r *Report) Render(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return []byte(r.Text()), nil
	case "markdown", "md":
		return []byte(r.Markdown()), nil
	case "json":
		b, err := r.JSON()
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text, markdown or json)", format)
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
