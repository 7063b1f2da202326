// Package report renders accumulated diagnostics as a two-column
// table for the operator.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vorvix/zato/internal/diag"
)

// DefaultColsWidth is the default column width specification.
const DefaultColsWidth = "15,100"

// ParseColsWidth parses a comma-separated column width list.
func ParseColsWidth(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	widths := make([]int, 0, len(parts))
	for _, part := range parts {
		width, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad column width %q: %w", part, err)
		}
		widths = append(widths, width)
	}
	return widths, nil
}

// Rows flattens results into sorted key/value rows. Keys number every
// notice within its severity and carry the notice's code so reports
// can be grepped by symbol.
func Rows(results []*diag.Result) ([][2]string, int, int) {
	rows := make([][2]string, 0)
	warnIdx, errIdx := 1, 1

	for _, result := range results {
		if result == nil {
			continue
		}
		for _, warning := range result.Warnings {
			key := fmt.Sprintf("warn%04d/%s %s", warnIdx, warning.Code.Symbol, warning.Code.Desc)
			rows = append(rows, [2]string{key, warning.Message})
			warnIdx++
		}
		for _, err := range result.Errors {
			key := fmt.Sprintf("err%04d/%s %s", errIdx, err.Code.Symbol, err.Code.Desc)
			rows = append(rows, [2]string{key, err.Message})
			errIdx++
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows, warnIdx - 1, errIdx - 1
}

// Render writes the diagnostics table followed by a summary line and
// returns the warning and error counts. Nothing is written when there
// is nothing to report.
func Render(w io.Writer, results []*diag.Result, colsWidth string) (int, int, error) {
	rows, warnings, errors := Rows(results)
	if warnings == 0 && errors == 0 {
		return 0, 0, nil
	}

	widths, err := ParseColsWidth(colsWidth)
	if err != nil {
		return warnings, errors, err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(true)
	table.SetRowLine(true)
	for i, width := range widths {
		table.SetColMinWidth(i, width)
	}
	for _, row := range rows {
		table.Append([]string{row[0], row[1]})
	}

	fmt.Fprintf(w, "%d warning%s and %d error%s found:\n",
		warnings, plural(warnings), errors, plural(errors))
	table.Render()
	return warnings, errors, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
