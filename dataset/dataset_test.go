package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pgexplorer/engine"
	"github.com/spektr-org/pgexplorer/schema"
)

const (
	ghg   = schema.DefaultY
	trade = schema.DefaultZ
)

func loadTestdata(t *testing.T) *Table {
	t.Helper()
	table, err := Load(filepath.Join("testdata", "pivoted.csv"))
	require.NoError(t, err)
	return table
}

// ============================================================================
// LOAD TESTS
// ============================================================================

func TestLoad(t *testing.T) {
	table := loadTestdata(t)

	assert.Equal(t, "pivoted.csv", table.Name)
	assert.Equal(t, 11, table.Len())
	assert.Equal(t, 11, table.View().Len())
	assert.Equal(t, []string{"Africa", "Asia", "Europe"}, table.Regions())
	assert.Equal(t, []string{"France", "Germany", "Japan", "Kenya", "Namibia"}, table.Countries())
	assert.Equal(t, []int{2000, 2001, 2002}, table.Years())

	lo, hi := table.YearBounds()
	assert.Equal(t, 2000, lo)
	assert.Equal(t, 2002, hi)
}

func TestLoadAxisColumnsExcludeIdentityAndIndex(t *testing.T) {
	table := loadTestdata(t)
	assert.Equal(t,
		[]string{"year", ghg, trade, "Renewable energy share", "income_group"},
		table.AxisColumns())

	x, y, z := table.DefaultAxes()
	assert.Equal(t, []string{"year", ghg, trade}, []string{x, y, z})
}

func TestLoadCellTypes(t *testing.T) {
	table := loadTestdata(t)
	view := table.View()

	// Row 3 is Namibia: "NA" survives as its ISO2 code.
	assert.Equal(t, engine.Text("NA"), view.Cell(3, schema.ColISO2))
	assert.Equal(t, engine.Text("Namibia"), view.Cell(3, schema.ColCountry))
	assert.Equal(t, engine.Number(2000), view.Cell(3, schema.ColYear))

	// "NA" in an indicator column is missing.
	assert.True(t, view.Cell(4, "Renewable energy share").IsMissing())
	assert.True(t, view.Cell(1, trade).IsMissing())
	assert.True(t, view.Cell(6, ghg).IsMissing())
	assert.True(t, view.Cell(9, trade).IsMissing())

	assert.Equal(t, engine.Number(140.25), view.Cell(8, trade))
	assert.Equal(t, engine.Text("high"), view.Cell(8, "income_group"))
}

func TestValidCountries(t *testing.T) {
	table := loadTestdata(t)
	assert.Equal(t, table.Countries(), table.ValidCountries(nil))
	assert.Equal(t, []string{"Kenya", "Namibia"}, table.ValidCountries([]string{"Africa"}))
	assert.Equal(t, []string{"France", "Germany", "Japan"}, table.ValidCountries([]string{"Europe", "Asia"}))
}

// ============================================================================
// ERROR TESTS
// ============================================================================

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open dataset")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"missing column", "country,ISO2,ISO3,year\nKenya,KE,KEN,2000\n", "un_region"},
		{"fractional year", "country,ISO2,ISO3,un_region,year\nKenya,KE,KEN,Africa,2000.5\n", "not an integer"},
		{"no years", "country,ISO2,ISO3,un_region,year,gdp\nKenya,KE,KEN,Africa,,1\n", "has no values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv), "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseMissingYearRowIsKept(t *testing.T) {
	csv := "country,ISO2,ISO3,un_region,year,gdp\nKenya,KE,KEN,Africa,2000,1\nGhana,GH,GHA,Africa,,2\n"
	table, err := Parse(strings.NewReader(csv), "test")
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []int{2000}, table.Years())
	assert.Equal(t, []string{"Ghana", "Kenya"}, table.Countries())
}
