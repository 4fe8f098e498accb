package engine

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// AGGREGATORS — Distinct Counts and Scorecard Sums via RecordView
// ============================================================================

// NotAvailable is shown where a sum is meaningless or impossible.
const NotAvailable = "N/A"

// CountDistinct counts the distinct non-missing values of column in view.
func CountDistinct(view RecordView, column string) int {
	return len(UniqueValues(view, column))
}

// UniqueValues returns distinct non-missing values of column, in
// first-appearance order.
func UniqueValues(view RecordView, column string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		c := view.Cell(i, column)
		if c.IsMissing() {
			continue
		}
		val := c.String()
		if !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// SumOrNA sums column over view and formats it with thousands separators.
//
// Returns "N/A" when column is "year", when the column is not a numeric
// column of the dataset, or when any cell of column in view is text. Missing
// cells are skipped. An empty view sums to "0".
func SumOrNA(view RecordView, sch *schema.Config, column string) string {
	if column == schema.ColYear {
		return NotAvailable
	}
	if sch != nil {
		if col, ok := sch.Column(column); !ok || col.Kind == schema.KindCategorical {
			return NotAvailable
		}
	} else if !hasColumn(view, column) {
		return NotAvailable
	}

	sum, ok := SumMeasure(view, column)
	if !ok {
		return NotAvailable
	}
	return FormatThousands(sum)
}

// SumMeasure sums the numeric cells of column. ok is false when any cell is
// text.
func SumMeasure(view RecordView, column string) (float64, bool) {
	var total float64
	for i := 0; i < view.Len(); i++ {
		c := view.Cell(i, column)
		switch c.Kind {
		case CellNumber:
			total += c.Num
		case CellText:
			return 0, false
		}
	}
	return total, true
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatThousands rounds v half to even and groups thousands with commas:
// 1234567.8 → "1,234,568", 2.5 → "2".
func FormatThousands(v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}
	r := math.RoundToEven(v)
	if r == 0 {
		return "0" // also folds -0
	}
	if math.Abs(r) < 1<<62 {
		return humanize.Comma(int64(r))
	}
	return humanize.Commaf(r)
}

// formatCount renders a count the way the count scorecard shows it.
func formatCount(n int) string {
	return strconv.Itoa(n)
}
