package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column is one table column. Numeric columns are right-aligned.
type column struct {
	title string
	right bool
}

// writeTable prints a header line and one line per row, columns separated by
// a single space and sized to their widest cell in terminal cells.
func writeTable(w io.Writer, cols []column, rows [][]string) error {
	for _, line := range tableLines(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func tableLines(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range rows {
		for i := range cols {
			if w := runewidth.StringWidth(cell(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, tableRow(cols, widths, titles))
	for _, row := range rows {
		lines = append(lines, tableRow(cols, widths, row))
	}
	return lines
}

func tableRow(cols []column, widths []int, row []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := cell(row, i)
		pad := strings.Repeat(" ", max(0, widths[i]-runewidth.StringWidth(v)))
		if c.right {
			parts[i] = pad + v
		} else {
			parts[i] = v + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
