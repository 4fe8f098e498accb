package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spektr-org/pgexplorer/binder"
	"github.com/spektr-org/pgexplorer/engine"
	"github.com/spektr-org/pgexplorer/render"
)

type snapshotFlags struct {
	regions   []string
	countries []string
	yearMin   int
	yearMax   int
	format    string
	out       string
}

func newSnapshotCommand(a *app) *cobra.Command {
	var f snapshotFlags
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute one dashboard and print it.",
		Long: `Snapshot applies the given filters the way the dashboard would and
writes the result: the full dashboard as json, pretty or yaml, the rows
behind the 3D chart (with a totals row) as csv, or the 2D chart as
chart-csv points or a png image.`,
		Example: `  pgexplorer snapshot --region Africa --country Kenya --year-min 2000 --format pretty
  pgexplorer snapshot --x year --y "Environmental goods trade balance" --format csv --out kenya.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.load()
			if err != nil {
				return err
			}
			b, err := a.newBinder(table)
			if err != nil {
				return err
			}

			u := binder.Update{}
			if len(f.countries) > 0 || cmd.Flags().Changed("country") {
				u.Countries = &f.countries
			}
			if len(f.regions) > 0 || cmd.Flags().Changed("region") {
				u.Regions = &f.regions
			}
			if f.yearMin != 0 || cmd.Flags().Changed("year-min") {
				u.YearMin = &f.yearMin
			}
			if f.yearMax != 0 || cmd.Flags().Changed("year-max") {
				u.YearMax = &f.yearMax
			}
			dash, err := b.Apply(u)
			if err != nil {
				return err
			}

			w, closeFn, err := outputFile(f.out, a.stdout)
			if err != nil {
				return err
			}
			if err := writeSnapshot(w, dash, b, f.format); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringSliceVar(&f.regions, "region", nil, "UN region(s) to keep.")
	cmd.Flags().StringSliceVar(&f.countries, "country", nil, "Country(ies) to keep.")
	cmd.Flags().IntVar(&f.yearMin, "year-min", 0, "First year to keep (default: earliest).")
	cmd.Flags().IntVar(&f.yearMax, "year-max", 0, "Last year to keep (default: latest).")
	cmd.Flags().StringVar(&f.format, "format", render.FormatJSON, "Output format: json, pretty, yaml, csv, chart-csv (2D points) or png (2D chart).")
	cmd.Flags().StringVar(&f.out, "out", "", "Write output to file instead of stdout.")
	return cmd
}

func writeSnapshot(w io.Writer, dash *engine.Dashboard, b *binder.Binder, format string) error {
	switch format {
	case render.FormatCSV, render.FormatPNG, render.FormatChartCSV:
	default:
		return render.WriteFormatted(w, dash, format)
	}
	if dash == nil {
		return errors.New("no dashboard")
	}
	switch format {
	case render.FormatPNG:
		return render.WriteChartPNG(w, dash.Chart2D)
	case render.FormatChartCSV:
		return render.WriteChartCSV(w, dash.Chart2D)
	}
	sel := dash.Selection
	table := engine.BuildTable(dash.View, b.Table().Schema, "snapshot", engine.TableColumns(sel.X, sel.Y, sel.Z))
	return render.WriteTableCSV(w, table)
}
