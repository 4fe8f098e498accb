package render

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/pgexplorer/engine"
)

// ============================================================================
// PNG EXPORT — static image of the 2D chart
// ============================================================================

// ErrNotDrawable is returned when a chart cannot be drawn as a static image.
var ErrNotDrawable = errors.New("chart cannot be drawn as an image")

const (
	pngWidth  = 1100
	pngHeight = 600
)

// WriteChartPNG draws a 2D ChartSpec. Both axes must be numeric and the
// chart must have at least one point.
func WriteChartPNG(w io.Writer, spec *engine.ChartSpec) error {
	graph, err := staticChart(spec)
	if err != nil {
		return err
	}
	return errors.Wrap(graph.Render(chart.PNG, w), "render png")
}

func staticChart(spec *engine.ChartSpec) (*chart.Chart, error) {
	if spec == nil || spec.PointCount() == 0 {
		return nil, errors.Wrap(ErrNotDrawable, "no points")
	}
	if spec.XAxis.Type != "value" || spec.YAxis.Type != "value" {
		return nil, errors.Wrap(ErrNotDrawable, "category axes")
	}

	xr, yr := newBounds(), newBounds()
	series := make([]chart.Series, 0, len(spec.Series))
	for _, s := range spec.Series {
		xs := make([]float64, 0, len(s.Data))
		ys := make([]float64, 0, len(s.Data))
		for _, p := range s.Data {
			if !p.X.IsFinite() || !p.Y.IsFinite() {
				continue
			}
			xs = append(xs, p.X.Num)
			ys = append(ys, p.Y.Num)
			xr.add(p.X.Num)
			yr.add(p.Y.Num)
		}
		if len(xs) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   seriesStyle(engine.ChartKind(spec.ChartType), s.Color),
		})
	}

	if len(series) == 0 {
		return nil, errors.Wrap(ErrNotDrawable, "no finite points")
	}

	graph := &chart.Chart{
		Title:      spec.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: spec.XAxis.Name, Range: xr.rng()},
		YAxis:      chart.YAxis{Name: spec.YAxis.Name, Range: yr.rng()},
		Series:     series,
	}
	if spec.ShowLegend {
		graph.Elements = []chart.Renderable{chart.Legend(graph)}
	}
	return graph, nil
}

// seriesStyle draws points only for scatter, a stroked line otherwise.
func seriesStyle(kind engine.ChartKind, hex string) chart.Style {
	col := chart.ColorBlue
	if hex != "" {
		col = drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	}
	if kind == engine.ChartLine {
		return chart.Style{StrokeWidth: 2, StrokeColor: col, DotWidth: 3, DotColor: col}
	}
	return chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: col}
}

// bounds tracks the data range of one axis.
type bounds struct {
	min, max float64
	set      bool
}

func newBounds() *bounds { return &bounds{} }

func (b *bounds) add(v float64) {
	if !b.set || v < b.min {
		b.min = v
	}
	if !b.set || v > b.max {
		b.max = v
	}
	b.set = true
}

// rng pads the range so a single value still has a non-zero span.
func (b *bounds) rng() *chart.ContinuousRange {
	lo, hi := b.min, b.max
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
