package engine

import (
	"encoding/json"
	"math"
	"strconv"
)

// ============================================================================
// ENGINE TYPES — Indicator Records, Selection, Render-Ready Output
// ============================================================================
// Dependency: engine only depends on schema (column names/kinds), zap and
// go-humanize.
// ============================================================================

// ============================================================================
// CELL — one value of one column
// ============================================================================

// CellKind distinguishes missing, numeric and text cells.
type CellKind uint8

const (
	CellMissing CellKind = iota
	CellNumber
	CellText
)

// Cell is a single typed value. Its JSON form is a number, a string or null.
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
}

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{Kind: CellNumber, Num: v} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.Kind == CellMissing }

// IsFinite reports whether the cell is a number other than ±Inf or NaN.
func (c Cell) IsFinite() bool {
	return c.Kind == CellNumber && !math.IsInf(c.Num, 0) && !math.IsNaN(c.Num)
}

// String renders the cell for labels and CSV output. Missing is "".
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler. JSON has no infinities, so ±Inf
// is written as the strings "inf" and "-inf" (as FormatThousands prints
// them) and NaN as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		switch {
		case math.IsNaN(c.Num):
			return []byte("null"), nil
		case math.IsInf(c.Num, 1):
			return json.Marshal("inf")
		case math.IsInf(c.Num, -1):
			return json.Marshal("-inf")
		}
		return json.Marshal(c.Num)
	case CellText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML renders the cell as a plain scalar.
func (c Cell) MarshalYAML() (interface{}, error) {
	switch c.Kind {
	case CellNumber:
		return c.Num, nil
	case CellText:
		return c.Text, nil
	default:
		return nil, nil
	}
}

// ============================================================================
// RECORD — one CSV row
// ============================================================================

// Record is a single data row. Text cells live in Dimensions, numeric cells
// in Measures; a key present in neither is missing.
//
// Example: Dimensions["country"]="Kenya", Measures["year"]=2010
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// Cell returns the typed value of key.
func (r Record) Cell(key string) Cell {
	if v, ok := r.Measures[key]; ok {
		return Number(v)
	}
	if v, ok := r.Dimensions[key]; ok {
		return Text(v)
	}
	return Cell{}
}

// ============================================================================
// SELECTION — the user's current filter and axis choices
// ============================================================================

// ChartKind is the 2D chart type.
type ChartKind string

const (
	ChartScatter ChartKind = "scatter"
	ChartLine    ChartKind = "line"
)

// Valid reports whether k is a known 2D chart type.
func (k ChartKind) Valid() bool { return k == ChartScatter || k == ChartLine }

// Title returns the capitalized kind used in chart titles.
func (k ChartKind) Title() string {
	if k == ChartLine {
		return "Line"
	}
	return "Scatter"
}

// Selection is the full UI control state.
type Selection struct {
	YearMin   int       `json:"yearMin" yaml:"yearMin"`
	YearMax   int       `json:"yearMax" yaml:"yearMax"`
	Regions   []string  `json:"regions" yaml:"regions"`
	Countries []string  `json:"countries" yaml:"countries"`
	X         string    `json:"x" yaml:"x"`
	Y         string    `json:"y" yaml:"y"`
	Z         string    `json:"z" yaml:"z"`
	Chart2D   ChartKind `json:"chart2D" yaml:"chart2D"`
}

// FilterSpec defines which rows a view keeps.
// Regions/Countries: OR within, AND across. Empty = unrestricted.
// Required: columns that must be non-missing on every kept row.
type FilterSpec struct {
	YearMin   int
	YearMax   int
	Regions   []string
	Countries []string
	Required  []string
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartSpec defines how to render a chart. Frontend-agnostic.
type ChartSpec struct {
	ChartType  string        `json:"chartType" yaml:"chartType"` // "scatter3d", "scatter", "line"
	Title      string        `json:"title" yaml:"title"`
	XAxis      Axis          `json:"xAxis" yaml:"xAxis"`
	YAxis      Axis          `json:"yAxis" yaml:"yAxis"`
	ZAxis      *Axis         `json:"zAxis,omitempty" yaml:"zAxis,omitempty"`
	Series     []ChartSeries `json:"series" yaml:"series"`
	Colors     []string      `json:"colors,omitempty" yaml:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend" yaml:"showLegend"`
}

// PointCount returns the total number of points over all series.
func (c *ChartSpec) PointCount() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Data)
	}
	return n
}

// Axis describes one chart axis.
type Axis struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`                                 // "value" or "category"
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"` // for "category"
}

// ChartSeries is the set of points for one country.
type ChartSeries struct {
	Name  string       `json:"name" yaml:"name"`
	Data  []ChartPoint `json:"data" yaml:"data"`
	Color string       `json:"color,omitempty" yaml:"color,omitempty"`
}

// ChartPoint is one plotted row. Z is missing for 2D charts.
type ChartPoint struct {
	X Cell  `json:"x" yaml:"x"`
	Y Cell  `json:"y" yaml:"y"`
	Z *Cell `json:"z,omitempty" yaml:"z,omitempty"`
}

// ============================================================================
// SCORECARDS
// ============================================================================

// Scorecard is a titled single value.
type Scorecard struct {
	Title string `json:"title" yaml:"title"`
	Value string `json:"value" yaml:"value"`
}

// Scorecards are the summary cards shown next to the 3D chart.
type Scorecards struct {
	CountCountries Scorecard `json:"countCountries" yaml:"countCountries"`
	SumX           Scorecard `json:"sumX" yaml:"sumX"`
	SumY           Scorecard `json:"sumY" yaml:"sumY"`
	SumZ           Scorecard `json:"sumZ" yaml:"sumZ"`
}

// All returns the cards in display order.
func (s Scorecards) All() []Scorecard {
	return []Scorecard{s.CountCountries, s.SumX, s.SumY, s.SumZ}
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a row-per-record rendering of a view.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// ============================================================================
// DASHBOARD — one recompute's output
// ============================================================================

// Dashboard is everything the UI renders for a Selection.
type Dashboard struct {
	Selection  Selection  `json:"selection" yaml:"selection"`
	Chart3D    *ChartSpec `json:"chart3D" yaml:"chart3D"`
	Chart2D    *ChartSpec `json:"chart2D" yaml:"chart2D"`
	Scorecards Scorecards `json:"scorecards" yaml:"scorecards"`
	RowCount   int        `json:"rowCount" yaml:"rowCount"` // rows in the 3D view

	View RecordView `json:"-" yaml:"-"` // 3D view, for export
}
