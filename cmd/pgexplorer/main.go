// Command pgexplorer serves the per-country indicator dashboard.
//
// Usage:
//
//	pgexplorer --data pivoted.csv --port 8080
//	pgexplorer describe --data pivoted.csv --format pretty
//	pgexplorer snapshot --data pivoted.csv --region Africa --x year --format csv
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spektr-org/pgexplorer/binder"
	"github.com/spektr-org/pgexplorer/config"
	"github.com/spektr-org/pgexplorer/dataset"
	"github.com/spektr-org/pgexplorer/logging"
)

var version = "dev"

func main() {
	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fatalf("%v", err)
	}
}

// app is the state shared by every subcommand once flags are resolved.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	stdout io.Writer
}

// NewRootCommand builds the command tree. Running it without a subcommand
// serves the dashboard.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, logger: zap.NewNop()}

	rc := &cobra.Command{
		Use:   "pgexplorer",
		Short: "DAPC PG Explorer: interactive per-country indicator dashboard.",
		Long: `pgexplorer loads a pivoted indicator CSV (one row per country and year)
and serves a dashboard of linked filters, a 3D scatter, a 2D chart and
scorecards.

Every flag can also be set through the environment as PGEXPLORER_<FLAG>
(dashes become underscores) or in the file named by --config. The port is
also read from PORT.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Resolve(viper.New(), cmd.Flags()); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	config.BindFlags(rc.PersistentFlags(), &a.cfg)

	rc.AddCommand(newServeCommand(a))
	rc.AddCommand(newDescribeCommand(a))
	rc.AddCommand(newSnapshotCommand(a))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// load reads the dataset named by --data.
func (a *app) load() (*dataset.Table, error) {
	table, err := dataset.Load(a.cfg.Data)
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded dataset",
		zap.String("path", a.cfg.Data),
		zap.Int("rows", table.Len()),
		zap.Int("axis_columns", len(table.AxisColumns())),
		zap.Int("countries", len(table.Countries())))
	return table, nil
}

// defaults maps the axis and chart flags onto the binder's initial state.
func (a *app) defaults() binder.Defaults {
	x, y, z, chart := a.cfg.Defaults()
	return binder.Defaults{X: x, Y: y, Z: z, Chart2D: chart}
}

func (a *app) newBinder(table *dataset.Table, opts ...binder.Option) (*binder.Binder, error) {
	opts = append([]binder.Option{binder.WithLogger(a.logger)}, opts...)
	return binder.New(table, a.defaults(), opts...)
}

// ============================================================================
// HELPERS
// ============================================================================

// outputFile opens path for writing, or returns fallback when path is empty.
func outputFile(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
