package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/pgexplorer/render"
)

func newDescribeCommand(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the discovered column schema.",
		Long: `Describe loads the dataset and prints each column's role (identity,
index, year, indicator), kind, cardinality and sample values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.load()
			if err != nil {
				return err
			}
			w, closeFn, err := outputFile(out, a.stdout)
			if err != nil {
				return err
			}
			if err := render.WriteFormatted(w, table.Schema, format); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVar(&format, "format", render.FormatPretty, "Output format: json, pretty or yaml.")
	cmd.Flags().StringVar(&out, "out", "", "Write output to file instead of stdout.")
	return cmd
}
