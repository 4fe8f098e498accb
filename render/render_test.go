package render

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pgexplorer/binder"
	"github.com/spektr-org/pgexplorer/engine"
)

func sampleDashboard() *engine.Dashboard {
	z1, z2 := engine.Number(3), engine.Number(6)
	spec3D := &engine.ChartSpec{
		ChartType: "scatter3d",
		Title:     "3D Scatter: year vs gdp vs co2",
		XAxis:     engine.Axis{Name: "year", Type: "value"},
		YAxis:     engine.Axis{Name: "gdp", Type: "value"},
		ZAxis:     &engine.Axis{Name: "co2", Type: "value"},
		Series: []engine.ChartSeries{
			{Name: "Kenya", Color: "#636EFA", Data: []engine.ChartPoint{
				{X: engine.Number(2000), Y: engine.Number(10), Z: &z1},
			}},
			{Name: "France", Color: "#EF553B", Data: []engine.ChartPoint{
				{X: engine.Number(2000), Y: engine.Number(100), Z: &z2},
			}},
		},
		ShowLegend: true,
	}
	spec2D := &engine.ChartSpec{
		ChartType: "line",
		Title:     "2D Line: year vs gdp",
		XAxis:     engine.Axis{Name: "year", Type: "value"},
		YAxis:     engine.Axis{Name: "gdp", Type: "value"},
		Series: []engine.ChartSeries{
			{Name: "Kenya", Data: []engine.ChartPoint{{X: engine.Number(2000), Y: engine.Number(10)}}},
		},
	}
	return &engine.Dashboard{
		Selection: engine.Selection{YearMin: 2000, YearMax: 2001, Regions: []string{"Africa"},
			Countries: []string{}, X: "year", Y: "gdp", Z: "co2", Chart2D: engine.ChartLine},
		Chart3D: spec3D,
		Chart2D: spec2D,
		Scorecards: engine.Scorecards{
			CountCountries: engine.Scorecard{Title: "Count of Countries", Value: "2"},
			SumX:           engine.Scorecard{Title: "Sum of year", Value: "N/A"},
			SumY:           engine.Scorecard{Title: "Sum of gdp", Value: "110"},
			SumZ:           engine.Scorecard{Title: "Sum of co2", Value: "9"},
		},
		RowCount: 2,
	}
}

// ============================================================================
// CHART PAGE
// ============================================================================

func TestWriteCharts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCharts(&buf, sampleDashboard()))

	out := buf.String()
	assert.Contains(t, out, PageTitle)
	assert.Contains(t, out, "3D Scatter: year vs gdp vs co2")
	assert.Contains(t, out, "2D Line: year vs gdp")
	assert.Contains(t, out, "Kenya")
	assert.Contains(t, out, "chart3d")
}

func TestChartPageEmptyDashboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCharts(&buf, nil))
	assert.Contains(t, buf.String(), PageTitle)
}

func TestValueMapping(t *testing.T) {
	assert.Equal(t, 1.5, value(engine.Number(1.5)))
	assert.Equal(t, "Kenya", value(engine.Text("Kenya")))
	assert.Nil(t, value(engine.Cell{}))

	assert.Nil(t, categories(engine.Axis{Type: "value", Categories: []string{"a"}}))
	assert.Equal(t, []string{"a"}, categories(engine.Axis{Type: "category", Categories: []string{"a"}}))
}

// ============================================================================
// DASHBOARD PAGE
// ============================================================================

func TestWriteDashboard(t *testing.T) {
	dash := sampleDashboard()
	opts := binder.Options{
		Countries:   []string{"Kenya", "Namibia"},
		Regions:     []string{"Africa", "Europe"},
		AxisColumns: []string{"year", "gdp", "co2"},
		YearMin:     2000,
		YearMax:     2002,
		Years:       []int{2000, 2001, 2002},
		ChartKinds:  []string{"scatter", "line"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, NewPageData(dash.Selection, opts, dash)))
	out := buf.String()

	assert.Contains(t, out, "<title>DAPC PG Explorer</title>")
	assert.Contains(t, out, `<option value="Africa" selected>Africa</option>`)
	assert.Contains(t, out, `<option value="Europe">Europe</option>`)
	assert.Contains(t, out, `<option value="line" selected>line</option>`)
	assert.Contains(t, out, "Sum of gdp")
	assert.Contains(t, out, "<p>N/A</p>")
}

func TestChartsURLEncodesSelection(t *testing.T) {
	got := ChartsURL(sampleDashboard().Selection)
	assert.True(t, strings.HasPrefix(got, "/charts?"))
	assert.Contains(t, got, "region=Africa")
	assert.Contains(t, got, "chart=line")
	assert.Contains(t, got, "year_min=2000")
}

// ============================================================================
// EXPORT
// ============================================================================

func TestWriteTableCSV(t *testing.T) {
	table := &engine.TableData{
		Columns: []engine.Column{{Key: "country", Label: "Country"}, {Key: "gdp", Label: "gdp"}},
		Rows:    [][]string{{"Kenya", "10"}, {"Ghana", "1000.5"}},
		Summary: &engine.Summary{Label: "Total (2 records)", Values: map[string]string{"gdp": "1,011"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, table))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"country", "gdp"},
		{"Kenya", "10"},
		{"Ghana", "1000.5"},
		{"Total (2 records)", "1,011"},
	}, rows)
}

func TestWriteTableCSVNoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, nil))
	assert.Equal(t, "Result,No data\n", buf.String())
}

func TestWriteChartCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChartCSV(&buf, sampleDashboard().Chart3D))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"series", "year", "gdp", "co2"}, rows[0])
	assert.Equal(t, []string{"France", "2000", "100", "6"}, rows[2])
}

func TestWriteFormatted(t *testing.T) {
	dash := sampleDashboard()

	var js bytes.Buffer
	require.NoError(t, WriteFormatted(&js, dash.Scorecards, FormatJSON))
	assert.Contains(t, js.String(), `"countCountries":{"title":"Count of Countries","value":"2"}`)

	var pretty bytes.Buffer
	require.NoError(t, WriteFormatted(&pretty, dash.Scorecards, FormatPretty))
	assert.Contains(t, pretty.String(), "\n  \"countCountries\"")

	var y bytes.Buffer
	require.NoError(t, WriteFormatted(&y, dash, FormatYAML))
	var back map[string]interface{}
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &back))
	assert.Equal(t, 2, back["rowCount"])

	assert.Error(t, WriteFormatted(&bytes.Buffer{}, dash, "xml"))
}

// ============================================================================
// PNG
// ============================================================================

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestWriteChartPNG(t *testing.T) {
	dash := sampleDashboard()
	for _, kind := range []engine.ChartKind{engine.ChartLine, engine.ChartScatter} {
		t.Run(string(kind), func(t *testing.T) {
			spec := *dash.Chart2D
			spec.ChartType = string(kind)
			var buf bytes.Buffer
			require.NoError(t, WriteChartPNG(&buf, &spec))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestWriteChartPNGNotDrawable(t *testing.T) {
	category := *sampleDashboard().Chart2D
	category.XAxis = engine.Axis{Name: "income_group", Type: "category", Categories: []string{"low"}}

	tests := map[string]*engine.ChartSpec{
		"nil":      nil,
		"empty":    {ChartType: "scatter", XAxis: engine.Axis{Type: "value"}, YAxis: engine.Axis{Type: "value"}},
		"category": &category,
	}
	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteChartPNG(&buf, spec)
			assert.ErrorIs(t, err, ErrNotDrawable)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestBoundsPadsSingleValue(t *testing.T) {
	b := newBounds()
	b.add(5)
	r := b.rng()
	assert.Less(t, r.Min, 4.0)
	assert.Greater(t, r.Max, 6.0)
}

func TestNonFiniteValuesAreGaps(t *testing.T) {
	assert.Nil(t, value(engine.Number(math.Inf(1))))

	spec := *sampleDashboard().Chart2D
	spec.Series = []engine.ChartSeries{{Name: "Kenya", Data: []engine.ChartPoint{
		{X: engine.Number(2000), Y: engine.Number(math.Inf(1))},
	}}}
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteChartPNG(&buf, &spec), ErrNotDrawable)
}
