package engine

import (
	"fmt"

	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// CHART BUILDER — Produces ChartSpec from a filtered view
// ============================================================================
// One series per country, in first-appearance order, so the legend and the
// palette assignment are stable for a given view.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Build3DScatter produces a 3D scatter of x/y/z, one point per row of view,
// grouped by country. Rows are expected to be complete already (see Filter).
func Build3DScatter(view RecordView, x, y, z string) *ChartSpec {
	return build3DScatter(view, x, y, z, defaultColors)
}

func build3DScatter(view RecordView, x, y, z string, palette []string) *ChartSpec {
	spec := &ChartSpec{
		ChartType:  "scatter3d",
		Title:      fmt.Sprintf("3D Scatter: %s vs %s vs %s", x, y, z),
		ShowLegend: true,
	}

	spec.Series = groupPoints(view, func(i int) ChartPoint {
		zc := view.Cell(i, z)
		return ChartPoint{X: view.Cell(i, x), Y: view.Cell(i, y), Z: &zc}
	})

	spec.XAxis = buildAxis(x, spec.Series, func(p ChartPoint) Cell { return p.X })
	spec.YAxis = buildAxis(y, spec.Series, func(p ChartPoint) Cell { return p.Y })
	zAxis := buildAxis(z, spec.Series, func(p ChartPoint) Cell { return *p.Z })
	spec.ZAxis = &zAxis

	spec.Colors = assignColors(spec.Series, palette)
	return spec
}

// Build2DChart produces a 2D scatter or line chart of x/y grouped by
// country. Rows missing x, y or country are dropped first.
func Build2DChart(view RecordView, x, y string, kind ChartKind) *ChartSpec {
	return build2DChart(view, x, y, kind, defaultColors)
}

func build2DChart(view RecordView, x, y string, kind ChartKind, palette []string) *ChartSpec {
	if !kind.Valid() {
		kind = ChartScatter
	}
	view = DropMissing(view, x, y, schema.ColCountry)

	spec := &ChartSpec{
		ChartType:  string(kind),
		Title:      fmt.Sprintf("2D %s: %s vs %s", kind.Title(), x, y),
		ShowLegend: true,
	}

	spec.Series = groupPoints(view, func(i int) ChartPoint {
		return ChartPoint{X: view.Cell(i, x), Y: view.Cell(i, y)}
	})

	spec.XAxis = buildAxis(x, spec.Series, func(p ChartPoint) Cell { return p.X })
	spec.YAxis = buildAxis(y, spec.Series, func(p ChartPoint) Cell { return p.Y })

	spec.Colors = assignColors(spec.Series, palette)
	return spec
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

// groupPoints builds one series per country. Rows with no country are
// skipped: they have no legend entry to belong to.
func groupPoints(view RecordView, point func(i int) ChartPoint) []ChartSeries {
	index := make(map[string]int)
	series := make([]ChartSeries, 0)

	for i := 0; i < view.Len(); i++ {
		country := view.Cell(i, schema.ColCountry)
		if country.IsMissing() {
			continue
		}
		name := country.String()
		pos, ok := index[name]
		if !ok {
			pos = len(series)
			index[name] = pos
			series = append(series, ChartSeries{Name: name})
		}
		series[pos].Data = append(series[pos].Data, point(i))
	}
	return series
}

// buildAxis labels an axis and picks its type: "value" when every plotted
// cell is numeric, otherwise "category" with distinct labels in
// first-appearance order.
func buildAxis(name string, series []ChartSeries, pick func(ChartPoint) Cell) Axis {
	axis := Axis{Name: name, Type: "value"}
	numeric := true
	seen := make(map[string]bool)
	var labels []string

	for _, s := range series {
		for _, p := range s.Data {
			c := pick(p)
			if c.Kind == CellText {
				numeric = false
			}
			label := c.String()
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}

	if !numeric {
		axis.Type = "category"
		axis.Categories = labels
	}
	return axis
}

func assignColors(series []ChartSeries, palette []string) []string {
	if len(palette) == 0 {
		palette = defaultColors
	}
	colors := make([]string, len(series))
	for i := range series {
		colors[i] = palette[i%len(palette)]
		series[i].Color = colors[i]
	}
	return colors
}
