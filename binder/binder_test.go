package binder

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spektr-org/pgexplorer/dataset"
	"github.com/spektr-org/pgexplorer/engine"
	"github.com/spektr-org/pgexplorer/schema"
)

func newTestBinder(t *testing.T, opts ...Option) *Binder {
	t.Helper()
	table, err := dataset.Load(filepath.Join("..", "dataset", "testdata", "pivoted.csv"))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	b, err := New(table, Defaults{}, opts...)
	require.NoError(t, err)
	return b
}

func strs(s ...string) *[]string { return &s }
func str(s string) *string       { return &s }
func num(n int) *int             { return &n }

// ============================================================================
// INITIAL STATE
// ============================================================================

func TestNewInitialState(t *testing.T) {
	b := newTestBinder(t)
	sel := b.State()

	assert.Equal(t, 2000, sel.YearMin)
	assert.Equal(t, 2002, sel.YearMax)
	assert.Empty(t, sel.Regions)
	assert.Empty(t, sel.Countries)
	assert.Equal(t, schema.ColYear, sel.X)
	assert.Equal(t, schema.DefaultY, sel.Y)
	assert.Equal(t, schema.DefaultZ, sel.Z)
	assert.Equal(t, engine.ChartScatter, sel.Chart2D)

	opts := b.Options()
	assert.Equal(t, []string{"France", "Germany", "Japan", "Kenya", "Namibia"}, opts.Countries)
	assert.Equal(t, []string{"Africa", "Asia", "Europe"}, opts.Regions)
	assert.Equal(t, []int{2000, 2001, 2002}, opts.Years)
	assert.Equal(t, []string{"scatter", "line"}, opts.ChartKinds)

	require.NotNil(t, b.Dashboard())
	assert.Equal(t, "5", b.Dashboard().Scorecards.CountCountries.Value)
}

func TestNewDefaultsOverride(t *testing.T) {
	table, err := dataset.Load(filepath.Join("..", "dataset", "testdata", "pivoted.csv"))
	require.NoError(t, err)

	b, err := New(table, Defaults{X: "Renewable energy share", Chart2D: engine.ChartLine})
	require.NoError(t, err)
	assert.Equal(t, "Renewable energy share", b.State().X)
	assert.Equal(t, engine.ChartLine, b.State().Chart2D)

	_, err = New(table, Defaults{Y: "country"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidSelection))
}

// ============================================================================
// REGION → COUNTRY CONSISTENCY
// ============================================================================

func TestSetRegionsPrunesCountries(t *testing.T) {
	b := newTestBinder(t)

	_, err := b.SetCountries([]string{"Kenya", "France"})
	require.NoError(t, err)
	_, err = b.SetRegions([]string{"Africa"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Kenya"}, b.State().Countries)
	assert.Equal(t, []string{"Kenya", "Namibia"}, b.Options().Countries)
}

func TestClearingRegionsKeepsCountries(t *testing.T) {
	b := newTestBinder(t)

	_, err := b.SetCountries([]string{"Kenya", "France"})
	require.NoError(t, err)
	_, err = b.SetRegions([]string{"Africa"})
	require.NoError(t, err)
	_, err = b.SetRegions(nil)
	require.NoError(t, err)

	// Options widen again; the pruned selection is not restored.
	assert.Equal(t, []string{"Kenya"}, b.State().Countries)
	assert.Len(t, b.Options().Countries, 5)
}

func TestSetCountriesIgnoresInvalid(t *testing.T) {
	b := newTestBinder(t)
	_, err := b.SetRegions([]string{"Europe"})
	require.NoError(t, err)

	_, err = b.SetCountries([]string{"Kenya", "Germany", "Germany", "Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Germany"}, b.State().Countries)
}

func TestSelectedCountriesStayWithinOptions(t *testing.T) {
	b := newTestBinder(t)
	steps := []func() (*engine.Dashboard, error){
		func() (*engine.Dashboard, error) { return b.SetCountries([]string{"Kenya", "Japan", "France"}) },
		func() (*engine.Dashboard, error) { return b.SetRegions([]string{"Asia", "Europe"}) },
		func() (*engine.Dashboard, error) { return b.SetRegions([]string{"Africa"}) },
		func() (*engine.Dashboard, error) { return b.SetRegions(nil) },
		func() (*engine.Dashboard, error) { return b.SetCountries([]string{"Namibia", "Japan"}) },
		func() (*engine.Dashboard, error) { return b.SetRegions([]string{"Asia"}) },
	}
	for i, step := range steps {
		_, err := step()
		require.NoError(t, err, "step %d", i)

		options := b.Options().Countries
		for _, c := range b.State().Countries {
			assert.Contains(t, options, c, "step %d", i)
		}
	}
	assert.Equal(t, []string{"Japan"}, b.State().Countries)
}

// ============================================================================
// YEARS / AXES / CHART TYPE
// ============================================================================

func TestSetYearRangeSwapsAndClamps(t *testing.T) {
	b := newTestBinder(t)

	_, err := b.SetYearRange(2002, 2001)
	require.NoError(t, err)
	assert.Equal(t, 2001, b.State().YearMin)
	assert.Equal(t, 2002, b.State().YearMax)

	_, err = b.SetYearRange(1990, 2050)
	require.NoError(t, err)
	assert.Equal(t, 2000, b.State().YearMin)
	assert.Equal(t, 2002, b.State().YearMax)

	dash, err := b.SetYearRange(2001, 2001)
	require.NoError(t, err)
	// Germany 2001 is the only complete 2001 row (France has no GHG, Japan no trade balance).
	assert.Equal(t, 1, dash.RowCount)
}

func TestSetAxis(t *testing.T) {
	b := newTestBinder(t)

	dash, err := b.SetAxis(AxisX, "Renewable energy share")
	require.NoError(t, err)
	assert.Equal(t, "Renewable energy share", b.State().X)
	assert.Equal(t, "Sum of Renewable energy share", dash.Scorecards.SumX.Title)

	_, err = b.SetAxis(AxisY, "country")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidSelection))
	assert.Equal(t, schema.DefaultY, b.State().Y)

	_, err = b.SetAxis(AxisZ, "")
	require.Error(t, err)
}

func TestSetChartType(t *testing.T) {
	b := newTestBinder(t)

	dash, err := b.SetChartType(engine.ChartLine)
	require.NoError(t, err)
	assert.Equal(t, "line", dash.Chart2D.ChartType)

	_, err = b.SetChartType("bar")
	require.Error(t, err)
	assert.Equal(t, engine.ChartLine, b.State().Chart2D)
}

// ============================================================================
// APPLY / PREVIEW
// ============================================================================

func TestApplyRegionsBeforeCountries(t *testing.T) {
	b := newTestBinder(t)

	dash, err := b.Apply(Update{
		Countries: strs("France", "Kenya", "Germany"),
		Regions:   strs("Europe"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"France", "Germany"}, b.State().Countries)
	assert.Equal(t, "2", dash.Scorecards.CountCountries.Value)
	// France 2001 has no GHG value: 410 + 402 + 880.5, a tie rounded to even.
	assert.Equal(t, "1,692", dash.Scorecards.SumY.Value)
	assert.Equal(t, "186", dash.Scorecards.SumZ.Value)
	assert.Equal(t, engine.NotAvailable, dash.Scorecards.SumX.Value)
}

func TestApplyClearRegionsAndPickOutsideCountry(t *testing.T) {
	b := newTestBinder(t)
	_, err := b.SetRegions([]string{"Europe"})
	require.NoError(t, err)
	require.NotContains(t, b.Options().Countries, "Kenya")

	dash, err := b.Apply(Update{Regions: strs(), Countries: strs("Kenya")})
	require.NoError(t, err)

	sel := b.State()
	assert.Empty(t, sel.Regions)
	assert.Equal(t, []string{"Kenya"}, sel.Countries)
	assert.Contains(t, b.Options().Countries, "Kenya")
	assert.Equal(t, "1", dash.Scorecards.CountCountries.Value)
}

func TestApplyUnchangedRegionsKeepCountryPick(t *testing.T) {
	b := newTestBinder(t)
	_, err := b.Apply(Update{Regions: strs("Europe"), Countries: strs("France")})
	require.NoError(t, err)

	_, err = b.Apply(Update{Regions: strs("Europe"), Countries: strs("France", "Germany")})
	require.NoError(t, err)
	assert.Equal(t, []string{"France", "Germany"}, b.State().Countries)
}

func TestApplyInvalidLeavesStateUnchanged(t *testing.T) {
	b := newTestBinder(t)
	before := b.State()

	_, err := b.Apply(Update{
		Regions: strs("Africa"),
		YearMin: num(2001),
		X:       str("not a column"),
	})
	require.Error(t, err)
	assert.Equal(t, before, b.State())

	kind := engine.ChartKind("pie")
	_, err = b.Apply(Update{Chart2D: &kind})
	require.Error(t, err)
	assert.Equal(t, before, b.State())
}

func TestApplyPartialYearRange(t *testing.T) {
	b := newTestBinder(t)
	_, err := b.Apply(Update{YearMax: num(2001)})
	require.NoError(t, err)
	assert.Equal(t, 2000, b.State().YearMin)
	assert.Equal(t, 2001, b.State().YearMax)
}

func TestPreviewDoesNotCommit(t *testing.T) {
	b := newTestBinder(t)
	before := b.State()
	beforeDash := b.Dashboard()

	dash, err := b.Preview(Update{Regions: strs("Asia"), Y: str("Renewable energy share")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asia"}, dash.Selection.Regions)

	assert.Equal(t, before, b.State())
	assert.Same(t, beforeDash, b.Dashboard())
	assert.Len(t, b.Options().Countries, 5)
}

func TestObserverSeesEveryRecompute(t *testing.T) {
	var calls []int
	b := newTestBinder(t, WithObserver(func(dash *engine.Dashboard, elapsed time.Duration) {
		calls = append(calls, dash.RowCount)
	}))
	require.Len(t, calls, 1)

	_, err := b.SetRegions([]string{"Europe"})
	require.NoError(t, err)
	_, err = b.SetAxis(AxisX, "nope")
	require.Error(t, err)

	assert.Len(t, calls, 2)
}

func TestEngineOptionsReachCompute(t *testing.T) {
	b := newTestBinder(t, WithEngineOptions(engine.WithPalette([]string{"#000000"})))
	dash := b.Dashboard()

	require.NotEmpty(t, dash.Chart3D.Series)
	for _, s := range dash.Chart3D.Series {
		assert.Equal(t, "#000000", s.Color)
	}
}

func TestConcurrentEvents(t *testing.T) {
	b := newTestBinder(t)

	var wg sync.WaitGroup
	regions := [][]string{{"Africa"}, {"Europe"}, nil, {"Asia", "Europe"}}
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = b.SetRegions(regions[i%len(regions)])
		}(i)
		go func() {
			defer wg.Done()
			_, _ = b.SetCountries([]string{"Kenya", "France", "Japan"})
			_ = b.Dashboard()
		}()
	}
	wg.Wait()

	sel, options, dash := b.Snapshot()
	for _, c := range sel.Countries {
		assert.Contains(t, options.Countries, c)
	}
	assert.Equal(t, sel, dash.Selection)
}
