package engine

import (
	"fmt"

	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// TABLE BUILDER — Row-per-record table of a filtered view
// ============================================================================
// Backs the CSV export and the `snapshot --format csv` CLI output.
// ============================================================================

// TableColumns returns the identity columns, year, then x/y/z with
// duplicates removed.
func TableColumns(x, y, z string) []string {
	cols := append([]string{}, schema.IdentityColumns...)
	cols = append(cols, schema.ColYear)
	seen := toSet(cols)
	for _, c := range []string{x, y, z} {
		if c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	return cols
}

// BuildTable renders every row of view over keys. Numeric columns (per sch)
// are right-aligned and summarized with SumOrNA.
func BuildTable(view RecordView, sch *schema.Config, title string, keys []string) *TableData {
	columns := make([]Column, 0, len(keys))
	for _, key := range keys {
		col := Column{Key: key, Label: LabelForColumn(sch, key), Type: "text", Align: "left"}
		if sch != nil && sch.IsNumeric(key) {
			col.Type = "number"
			col.Align = "right"
		}
		columns = append(columns, col)
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(keys))
		for _, key := range keys {
			row = append(row, textAt(view, i, key))
		}
		rows = append(rows, row)
	}

	summary := &Summary{
		Label:  fmt.Sprintf("Total (%d records)", view.Len()),
		Values: make(map[string]string),
	}
	for _, col := range columns {
		if col.Type == "number" {
			summary.Values[col.Key] = SumOrNA(view, sch, col.Key)
		}
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: summary,
	}
}

// LabelForColumn returns the display name of a column, falling back to key.
func LabelForColumn(sch *schema.Config, key string) string {
	if sch != nil {
		if col, ok := sch.Column(key); ok && col.DisplayName != "" {
			return col.DisplayName
		}
	}
	return key
}
