package engine

import (
	"sort"

	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// FILTERS — Year / Region / Country / Required-Column Filtering
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// ============================================================================

// Filter returns a view of records matching spec.
//
// A row is kept iff YearMin <= year <= YearMax, its un_region is in Regions
// (or Regions is empty), its country is in Countries (or Countries is
// empty), and every Required column is non-missing. A row without a year
// never satisfies the year bound. Membership tests are exact.
func Filter(view RecordView, spec FilterSpec) RecordView {
	regions := toSet(spec.Regions)
	countries := toSet(spec.Countries)
	lo, hi := float64(spec.YearMin), float64(spec.YearMax)

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		year := view.Cell(i, schema.ColYear)
		if year.Kind != CellNumber || year.Num < lo || year.Num > hi {
			continue
		}
		if len(regions) > 0 && !regions[textAt(view, i, schema.ColRegion)] {
			continue
		}
		if len(countries) > 0 && !countries[textAt(view, i, schema.ColCountry)] {
			continue
		}
		if !hasAll(view, i, spec.Required) {
			continue
		}
		indices = append(indices, i)
	}

	return newSubView(view, indices)
}

// DropMissing returns the rows of view where every column in cols is
// non-missing. Returns view itself when cols is empty.
func DropMissing(view RecordView, cols ...string) RecordView {
	if len(cols) == 0 {
		return view
	}
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if hasAll(view, i, cols) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// ValidCountriesForRegions returns the sorted distinct countries of rows whose
// un_region is in regions. With no regions, every country is valid.
func ValidCountriesForRegions(view RecordView, regions []string) []string {
	if len(regions) == 0 {
		return SortedDistinct(view, schema.ColCountry)
	}

	set := toSet(regions)
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		if !set[textAt(view, i, schema.ColRegion)] {
			continue
		}
		c := view.Cell(i, schema.ColCountry)
		if c.IsMissing() {
			continue
		}
		name := c.String()
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// SortedDistinct returns the ascending distinct non-missing values of column.
func SortedDistinct(view RecordView, column string) []string {
	result := UniqueValues(view, column)
	sort.Strings(result)
	return result
}

// Intersect keeps the values of selected that also appear in valid,
// preserving the order of selected. Never returns nil.
func Intersect(selected, valid []string) []string {
	set := toSet(valid)
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

func hasAll(view RecordView, i int, cols []string) bool {
	for _, col := range cols {
		if view.Cell(i, col).IsMissing() {
			return false
		}
	}
	return true
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
