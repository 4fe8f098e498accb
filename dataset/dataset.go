package dataset

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/pgexplorer/engine"
	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// DATASET LOADER — Parses the indicator CSV into an immutable Table
// ============================================================================
// Loaded once at startup and shared read-only for the process lifetime.
// Derived option lists (axis columns, countries, regions, years) are
// computed here once so the UI never rescans the table for them.
// ============================================================================

// Table is the loaded dataset plus its derived metadata. Never mutated
// after Load returns.
type Table struct {
	Name   string
	Schema *schema.Config

	records     []engine.Record
	view        *engine.SliceView
	axisColumns []string
	countries   []string
	regions     []string
	years       []int
}

// Load reads and parses the CSV at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	t, err := Parse(f, filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(err, "parse dataset %s", path)
	}
	return t, nil
}

// Parse reads a CSV stream. name labels the dataset in logs and schema output.
// Each row becomes a Record: numeric cells of numeric columns become
// measures, every other non-missing cell a dimension.
func Parse(r io.Reader, name string) (*Table, error) {
	headers, rows, err := schema.ReadCSV(r)
	if err != nil {
		return nil, err
	}

	sch, err := schema.Discover(headers, rows, schema.DiscoverOptions{Name: name})
	if err != nil {
		return nil, err
	}

	numeric := make([]bool, len(headers))
	for i, key := range headers {
		numeric[i] = sch.IsNumeric(key)
	}

	records := make([]engine.Record, 0, len(rows))
	for n, row := range rows {
		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}

		for i, key := range headers {
			if i >= len(row) || schema.IsMissing(key, row[i]) {
				continue
			}
			val := strings.TrimSpace(row[i])

			if !numeric[i] {
				rec.Dimensions[key] = val
				continue
			}
			f, _ := schema.ParseNumber(val)
			if key == schema.ColYear && f != math.Trunc(f) {
				return nil, errors.Errorf("row %d: year %q is not an integer", n+2, val)
			}
			rec.Measures[key] = f
		}

		records = append(records, rec)
	}

	t := &Table{
		Name:    name,
		Schema:  sch,
		records: records,
		view:    engine.NewSliceView(records, headers),
	}
	if err := t.derive(); err != nil {
		return nil, err
	}
	return t, nil
}

// derive computes the option lists the UI needs.
func (t *Table) derive() error {
	t.axisColumns = t.Schema.AxisColumns()
	t.countries = engine.SortedDistinct(t.view, schema.ColCountry)
	t.regions = engine.SortedDistinct(t.view, schema.ColRegion)

	seen := make(map[int]bool)
	for _, rec := range t.records {
		y, ok := rec.Measures[schema.ColYear]
		if !ok {
			continue
		}
		if !seen[int(y)] {
			seen[int(y)] = true
			t.years = append(t.years, int(y))
		}
	}
	if len(t.years) == 0 {
		return errors.Errorf("column %q has no values", schema.ColYear)
	}
	sort.Ints(t.years)
	return nil
}

// View returns a read-only view over every row.
func (t *Table) View() engine.RecordView { return t.view }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.records) }

// AxisColumns returns the columns selectable as X/Y/Z, in file order.
func (t *Table) AxisColumns() []string { return t.axisColumns }

// Countries returns the sorted distinct country names.
func (t *Table) Countries() []string { return t.countries }

// Regions returns the sorted distinct un_region names.
func (t *Table) Regions() []string { return t.regions }

// Years returns the sorted distinct years (slider marks).
func (t *Table) Years() []int { return t.years }

// YearBounds returns the smallest and largest year.
func (t *Table) YearBounds() (int, int) {
	return t.years[0], t.years[len(t.years)-1]
}

// ValidCountries returns the countries selectable for regions.
func (t *Table) ValidCountries(regions []string) []string {
	if len(regions) == 0 {
		return t.countries
	}
	return engine.ValidCountriesForRegions(t.view, regions)
}

// DefaultAxes returns the X/Y/Z defaults resolved against this dataset.
func (t *Table) DefaultAxes() (x, y, z string) {
	return t.Schema.DefaultAxes()
}
