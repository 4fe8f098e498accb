// Package binder owns the dashboard's selection state and maps control
// changes to recomputed dashboards.
package binder

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spektr-org/pgexplorer/dataset"
	"github.com/spektr-org/pgexplorer/engine"
)

// Axis names one of the three variable selectors.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Defaults seeds the initial selection. Empty fields fall back to the
// dataset's resolved axis defaults and the scatter chart.
type Defaults struct {
	X, Y, Z string
	Chart2D engine.ChartKind
}

// Options lists what each control may currently choose from.
type Options struct {
	Countries   []string `json:"countries"`
	Regions     []string `json:"regions"`
	AxisColumns []string `json:"axisColumns"`
	YearMin     int      `json:"yearMin"`
	YearMax     int      `json:"yearMax"`
	Years       []int    `json:"years"`
	ChartKinds  []string `json:"chartKinds"`
}

// Update is a partial change of controls. Nil fields are left alone.
type Update struct {
	Regions   *[]string         `json:"regions,omitempty"`
	Countries *[]string         `json:"countries,omitempty"`
	YearMin   *int              `json:"yearMin,omitempty"`
	YearMax   *int              `json:"yearMax,omitempty"`
	X         *string           `json:"x,omitempty"`
	Y         *string           `json:"y,omitempty"`
	Z         *string           `json:"z,omitempty"`
	Chart2D   *engine.ChartKind `json:"chart2D,omitempty"`
}

// Binder holds the single selection state for the process.
//
// The HTTP server calls into it from concurrent request goroutines, so
// every event runs under mu: one writer at a time, each recompute runs to
// completion before the next event is applied.
type Binder struct {
	table    *dataset.Table
	logger   *zap.Logger
	engine   []engine.Option
	observer Observer

	mu        sync.Mutex
	sel       engine.Selection
	countries []string // current country options
	dash      *engine.Dashboard
}

// Option configures a Binder.
type Option func(*Binder)

// Observer is told about every committed recompute.
type Observer func(dash *engine.Dashboard, elapsed time.Duration)

// WithObserver registers fn to run after each recompute.
func WithObserver(fn Observer) Option {
	return func(b *Binder) {
		b.observer = fn
	}
}

// WithLogger sets the binder's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithEngineOptions passes options through to engine.Compute.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(b *Binder) {
		b.engine = append(b.engine, opts...)
	}
}

// New creates a binder with the initial selection: the full year range, no
// region or country filter, default axes and a scatter 2D chart.
func New(table *dataset.Table, defaults Defaults, opts ...Option) (*Binder, error) {
	b := &Binder{
		table:  table,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.engine = append(b.engine, engine.WithLogger(b.logger))

	x, y, z := table.DefaultAxes()
	if defaults.X != "" {
		x = defaults.X
	}
	if defaults.Y != "" {
		y = defaults.Y
	}
	if defaults.Z != "" {
		z = defaults.Z
	}
	kind := defaults.Chart2D
	if kind == "" {
		kind = engine.ChartScatter
	}

	lo, hi := table.YearBounds()
	b.sel = engine.Selection{
		YearMin:   lo,
		YearMax:   hi,
		Regions:   []string{},
		Countries: []string{},
		X:         x,
		Y:         y,
		Z:         z,
		Chart2D:   kind,
	}
	b.countries = table.Countries()

	if err := b.recompute(); err != nil {
		return nil, errors.Wrap(err, "initial selection")
	}
	return b, nil
}

// ============================================================================
// READ ACCESS
// ============================================================================

// State returns a copy of the current selection.
func (b *Binder) State() engine.Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copySelection(b.sel)
}

// Options returns the current option lists.
func (b *Binder) Options() Options {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.options()
}

func (b *Binder) options() Options {
	lo, hi := b.table.YearBounds()
	return Options{
		Countries:   append([]string{}, b.countries...),
		Regions:     b.table.Regions(),
		AxisColumns: b.table.AxisColumns(),
		YearMin:     lo,
		YearMax:     hi,
		Years:       b.table.Years(),
		ChartKinds:  []string{string(engine.ChartScatter), string(engine.ChartLine)},
	}
}

// Dashboard returns the dashboard for the current selection.
func (b *Binder) Dashboard() *engine.Dashboard {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dash
}

// Snapshot returns the selection, options and dashboard read atomically.
func (b *Binder) Snapshot() (engine.Selection, Options, *engine.Dashboard) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copySelection(b.sel), b.options(), b.dash
}

// Table returns the dataset the binder serves.
func (b *Binder) Table() *dataset.Table { return b.table }

// ============================================================================
// EVENTS
// ============================================================================

// SetRegions changes the region filter. Country options are re-derived and
// countries no longer valid are dropped. Clearing every region widens the
// options back to all countries and leaves the country selection as is.
func (b *Binder) SetRegions(regions []string) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setRegions(regions)
	return b.commit()
}

// SetCountries changes the country filter. Countries not among the current
// options are ignored.
func (b *Binder) SetCountries(countries []string) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setCountries(countries)
	return b.commit()
}

// SetYearRange changes the year filter. A reversed range is swapped and the
// result clamped to the dataset's years.
func (b *Binder) SetYearRange(lo, hi int) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setYearRange(lo, hi)
	return b.commit()
}

// SetAxis changes one variable selector. Selectors are non-clearable: the
// column must be one of the axis columns.
func (b *Binder) SetAxis(axis Axis, column string) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.setAxis(axis, column); err != nil {
		return nil, err
	}
	return b.commit()
}

// SetChartType changes the 2D chart kind.
func (b *Binder) SetChartType(kind engine.ChartKind) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !kind.Valid() {
		return nil, errors.Wrapf(engine.ErrInvalidSelection, "chart type %q", kind)
	}
	b.sel.Chart2D = kind
	return b.commit()
}

// Apply applies a partial update as one event: regions (with pruning), then
// countries against the new options, then years, axes and chart type. Nothing changes when any
// field is invalid.
func (b *Binder) Apply(u Update) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.validate(u); err != nil {
		return nil, err
	}
	b.apply(u)
	return b.commit()
}

// Preview computes the dashboard Apply(u) would produce without changing
// the binder's state.
func (b *Binder) Preview(u Update) (*engine.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.validate(u); err != nil {
		return nil, err
	}
	sel, countries := copySelection(b.sel), b.countries
	defer func() { b.sel, b.countries = sel, countries }()

	b.apply(u)
	return engine.Compute(b.table.View(), b.table.Schema, copySelection(b.sel), b.engine...)
}

func (b *Binder) apply(u Update) {
	if u.Regions != nil && !sameSet(*u.Regions, b.sel.Regions) {
		b.setRegions(*u.Regions)
	}
	if u.Countries != nil {
		b.setCountries(*u.Countries)
	}
	if u.YearMin != nil || u.YearMax != nil {
		lo, hi := b.sel.YearMin, b.sel.YearMax
		if u.YearMin != nil {
			lo = *u.YearMin
		}
		if u.YearMax != nil {
			hi = *u.YearMax
		}
		b.setYearRange(lo, hi)
	}
	for axis, col := range map[Axis]*string{AxisX: u.X, AxisY: u.Y, AxisZ: u.Z} {
		if col != nil {
			_ = b.setAxis(axis, *col) // validated by the caller
		}
	}
	if u.Chart2D != nil {
		b.sel.Chart2D = *u.Chart2D
	}
}

func (b *Binder) validate(u Update) error {
	for axis, col := range map[Axis]*string{AxisX: u.X, AxisY: u.Y, AxisZ: u.Z} {
		if col != nil && !b.isAxis(*col) {
			return errors.Wrapf(engine.ErrInvalidSelection, "%s axis: unknown column %q", axis, *col)
		}
	}
	if u.Chart2D != nil && !u.Chart2D.Valid() {
		return errors.Wrapf(engine.ErrInvalidSelection, "chart type %q", *u.Chart2D)
	}
	return nil
}

// ============================================================================
// STATE TRANSITIONS (callers hold mu)
// ============================================================================

func (b *Binder) setRegions(regions []string) {
	regions = dedupe(regions)
	b.sel.Regions = regions
	b.countries = b.table.ValidCountries(regions)
	if len(regions) > 0 {
		before := len(b.sel.Countries)
		b.sel.Countries = engine.Intersect(b.sel.Countries, b.countries)
		if dropped := before - len(b.sel.Countries); dropped > 0 {
			b.logger.Debug("dropped countries outside selected regions",
				zap.Strings("regions", regions), zap.Int("dropped", dropped))
		}
	}
}

func (b *Binder) setCountries(countries []string) {
	b.sel.Countries = engine.Intersect(dedupe(countries), b.countries)
}

func (b *Binder) setYearRange(lo, hi int) {
	if lo > hi {
		lo, hi = hi, lo
	}
	min, max := b.table.YearBounds()
	b.sel.YearMin = clamp(lo, min, max)
	b.sel.YearMax = clamp(hi, min, max)
}

func (b *Binder) setAxis(axis Axis, column string) error {
	if !b.isAxis(column) {
		return errors.Wrapf(engine.ErrInvalidSelection, "%s axis: unknown column %q", axis, column)
	}
	switch axis {
	case AxisX:
		b.sel.X = column
	case AxisY:
		b.sel.Y = column
	case AxisZ:
		b.sel.Z = column
	default:
		return errors.Wrapf(engine.ErrInvalidSelection, "unknown axis %q", axis)
	}
	return nil
}

func (b *Binder) isAxis(column string) bool {
	for _, a := range b.table.AxisColumns() {
		if a == column {
			return true
		}
	}
	return false
}

func (b *Binder) commit() (*engine.Dashboard, error) {
	if err := b.recompute(); err != nil {
		return nil, err
	}
	return b.dash, nil
}

func (b *Binder) recompute() error {
	start := time.Now()
	dash, err := engine.Compute(b.table.View(), b.table.Schema, copySelection(b.sel), b.engine...)
	if err != nil {
		return err
	}
	b.dash = dash
	if b.observer != nil {
		b.observer(dash, time.Since(start))
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func copySelection(s engine.Selection) engine.Selection {
	s.Regions = append([]string{}, s.Regions...)
	s.Countries = append([]string{}, s.Countries...)
	return s
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

func sameSet(a, b []string) bool {
	a, b = dedupe(a), dedupe(b)
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
