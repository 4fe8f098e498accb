package engine

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spektr-org/pgexplorer/schema"
)

// ============================================================================
// EXECUTOR — (Dataset, Selection) → Dashboard
// ============================================================================
// Pipeline:
//   1. Validate the selection (axes, chart kind)
//   2. Filter by year / region / country → base view
//   3. Drop rows missing x, y, z or country → 3D view
//   4. Build the 3D chart and scorecards from the 3D view
//   5. Build the 2D chart from the base view (its own x/y/country drop)
//
// Pure: the same inputs always give the same Dashboard. Zero data copy.
// ============================================================================

// ErrInvalidSelection is returned (wrapped) for unknown axes or chart types.
var ErrInvalidSelection = errors.New("invalid selection")

// Compute derives every dashboard output from the dataset view and selection.
// sch may be nil for ad-hoc views; axes are then checked against the view's
// columns.
func Compute(view RecordView, sch *schema.Config, sel Selection, opts ...Option) (*Dashboard, error) {
	cfg := applyOptions(opts)
	start := time.Now()

	if err := ValidateSelection(view, sch, sel); err != nil {
		return nil, err
	}

	base := Filter(view, FilterSpec{
		YearMin:   sel.YearMin,
		YearMax:   sel.YearMax,
		Regions:   sel.Regions,
		Countries: sel.Countries,
	})
	view3D := DropMissing(base, sel.X, sel.Y, sel.Z, schema.ColCountry)

	dash := &Dashboard{
		Selection:  sel,
		Chart3D:    build3DScatter(view3D, sel.X, sel.Y, sel.Z, cfg.Palette),
		Chart2D:    build2DChart(base, sel.X, sel.Y, sel.Chart2D, cfg.Palette),
		Scorecards: BuildScorecards(view3D, sch, sel.X, sel.Y, sel.Z),
		RowCount:   view3D.Len(),
		View:       view3D,
	}

	cfg.Logger.Debug("recomputed dashboard",
		zap.Int("rows", view.Len()),
		zap.Int("base_rows", base.Len()),
		zap.Int("rows_3d", view3D.Len()),
		zap.Int("points_2d", dash.Chart2D.PointCount()),
		zap.Duration("took", time.Since(start)))

	return dash, nil
}

// ValidateSelection checks that every axis names a selectable column and
// that the 2D chart kind is known.
func ValidateSelection(view RecordView, sch *schema.Config, sel Selection) error {
	for _, axis := range []struct{ name, col string }{{"x", sel.X}, {"y", sel.Y}, {"z", sel.Z}} {
		if !IsAxisColumn(view, sch, axis.col) {
			return errors.Wrapf(ErrInvalidSelection, "%s axis: unknown column %q", axis.name, axis.col)
		}
	}
	if !sel.Chart2D.Valid() {
		return errors.Wrapf(ErrInvalidSelection, "chart type %q (want %q or %q)", sel.Chart2D, ChartScatter, ChartLine)
	}
	if sel.YearMin > sel.YearMax {
		return errors.Wrapf(ErrInvalidSelection, "year range [%d, %d] is reversed", sel.YearMin, sel.YearMax)
	}
	return nil
}

// IsAxisColumn reports whether col can be plotted on an axis.
func IsAxisColumn(view RecordView, sch *schema.Config, col string) bool {
	if col == "" {
		return false
	}
	if sch != nil {
		for _, a := range sch.AxisColumns() {
			if a == col {
				return true
			}
		}
		return false
	}
	return hasColumn(view, col) && !schema.IsIdentity(col) && !schema.IsIndexHeader(col)
}
