package render

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/spektr-org/pgexplorer/engine"
)

// ============================================================================
// CHART PAGE — ChartSpec → go-echarts
// ============================================================================
// The engine's ChartSpec is renderer-neutral. This file is the only place
// that knows about echarts.
// ============================================================================

const (
	PageTitle       = "DAPC PG Explorer"
	ChartWidth      = "1100px"
	ChartHeight     = "600px"
	BackgroundColor = "#222222"
	TextColor       = "#eeeeee"
)

// WriteCharts renders the 3D and 2D charts of dash as a standalone page.
func WriteCharts(w io.Writer, dash *engine.Dashboard) error {
	return ChartPage(dash).Render(w)
}

// ChartPage builds the echarts page for dash.
func ChartPage(dash *engine.Dashboard) *components.Page {
	page := components.NewPage()
	page.PageTitle = PageTitle
	if dash == nil {
		return page
	}
	if dash.Chart3D != nil {
		page.AddCharts(Scatter3D(dash.Chart3D, "chart3d"))
	}
	if dash.Chart2D != nil {
		if engine.ChartKind(dash.Chart2D.ChartType) == engine.ChartLine {
			page.AddCharts(Line(dash.Chart2D, "chart2d"))
		} else {
			page.AddCharts(Scatter(dash.Chart2D, "chart2d"))
		}
	}
	return page
}

// Scatter3D converts a scatter3d ChartSpec.
func Scatter3D(spec *engine.ChartSpec, id string) *charts.Scatter3D {
	c := charts.NewScatter3D()
	c.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(id)),
		charts.WithTitleOpts(titleOpts(spec.Title)),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(legendOpts(spec.ShowLegend)),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: spec.XAxis.Name, Type: spec.XAxis.Type, Data: categories(spec.XAxis)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: spec.YAxis.Name, Type: spec.YAxis.Type, Data: categories(spec.YAxis)}),
	)
	if spec.ZAxis != nil {
		c.SetGlobalOptions(
			charts.WithZAxis3DOpts(opts.ZAxis3D{Name: spec.ZAxis.Name, Type: spec.ZAxis.Type, Data: categories(*spec.ZAxis)}),
		)
	}

	for _, s := range spec.Series {
		data := make([]opts.Chart3DData, 0, len(s.Data))
		for _, p := range s.Data {
			z := engine.Cell{}
			if p.Z != nil {
				z = *p.Z
			}
			data = append(data, opts.Chart3DData{
				Name:  s.Name,
				Value: []interface{}{value(p.X), value(p.Y), value(z)},
			})
		}
		c.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return c
}

// Scatter converts a 2D scatter ChartSpec.
func Scatter(spec *engine.ChartSpec, id string) *charts.Scatter {
	c := charts.NewScatter()
	c.SetGlobalOptions(globalOpts2D(spec, id)...)
	for _, s := range spec.Series {
		data := make([]opts.ScatterData, 0, len(s.Data))
		for _, p := range s.Data {
			data = append(data, opts.ScatterData{
				Name:  s.Name,
				Value: []interface{}{value(p.X), value(p.Y)},
			})
		}
		c.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return c
}

// Line converts a 2D line ChartSpec. Points are joined in data order.
func Line(spec *engine.ChartSpec, id string) *charts.Line {
	c := charts.NewLine()
	c.SetGlobalOptions(globalOpts2D(spec, id)...)
	for _, s := range spec.Series {
		data := make([]opts.LineData, 0, len(s.Data))
		for _, p := range s.Data {
			data = append(data, opts.LineData{
				Name:  s.Name,
				Value: []interface{}{value(p.X), value(p.Y)},
			})
		}
		c.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return c
}

// ============================================================================
// OPTION HELPERS
// ============================================================================

func globalOpts2D(spec *engine.ChartSpec, id string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(initOpts(id)),
		charts.WithTitleOpts(titleOpts(spec.Title)),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(legendOpts(spec.ShowLegend)),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         spec.XAxis.Name,
			Type:         spec.XAxis.Type,
			Data:         categories(spec.XAxis),
			NameLocation: "center",
			NameGap:      30,
			AxisLabel:    &opts.AxisLabel{Color: TextColor},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         spec.YAxis.Name,
			Type:         spec.YAxis.Type,
			Data:         categories(spec.YAxis),
			NameLocation: "center",
			NameGap:      50,
			AxisLabel:    &opts.AxisLabel{Color: TextColor},
		}),
	}
}

func initOpts(id string) opts.Initialization {
	return opts.Initialization{
		ChartID:         id,
		Width:           ChartWidth,
		Height:          ChartHeight,
		BackgroundColor: BackgroundColor,
	}
}

func titleOpts(title string) opts.Title {
	return opts.Title{
		Title:      title,
		TitleStyle: &opts.TextStyle{Color: TextColor},
	}
}

func legendOpts(show bool) opts.Legend {
	return opts.Legend{
		Show:      opts.Bool(show),
		Right:     "10",
		Orient:    "vertical",
		TextStyle: &opts.TextStyle{Color: TextColor},
	}
}

// categories returns the axis labels for a category axis, nil otherwise.
func categories(a engine.Axis) interface{} {
	if a.Type != "category" {
		return nil
	}
	return a.Categories
}

// value maps a cell to what echarts expects: a number, a category label, or
// nil for a gap. Non-finite numbers are gaps.
func value(c engine.Cell) interface{} {
	switch c.Kind {
	case engine.CellNumber:
		if !c.IsFinite() {
			return nil
		}
		return c.Num
	case engine.CellText:
		return c.Text
	default:
		return nil
	}
}
