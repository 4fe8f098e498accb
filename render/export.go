package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pgexplorer/engine"
)

// ============================================================================
// TABULAR + STRUCTURED OUTPUT
// ============================================================================
// Shared by the CLI and the HTTP export endpoint.
// ============================================================================

// Output formats. WriteFormatted handles json, pretty and yaml; the rest
// are tabular or image exports.
const (
	FormatJSON     = "json"
	FormatPretty   = "pretty"
	FormatYAML     = "yaml"
	FormatCSV      = "csv"
	FormatChartCSV = "chart-csv" // 2D chart, one row per point
	FormatPNG      = "png"
)

// WriteTableCSV writes a header row of column keys, one row per record,
// and the summary row when present. Keys rather than labels keep the output
// loadable as a dataset again.
func WriteTableCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)

	if table == nil || len(table.Columns) == 0 {
		_ = cw.Write([]string{"Result", "No data"})
		cw.Flush()
		return cw.Error()
	}

	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Key
	}
	_ = cw.Write(headers)
	for _, row := range table.Rows {
		_ = cw.Write(row)
	}

	if table.Summary != nil {
		row := make([]string, len(table.Columns))
		row[0] = table.Summary.Label
		for i, c := range table.Columns {
			if v, ok := table.Summary.Values[c.Key]; ok && i > 0 {
				row[i] = v
			}
		}
		_ = cw.Write(row)
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "write csv")
}

// WriteChartCSV flattens a chart into one row per point: series, x, y and,
// for 3D charts, z.
func WriteChartCSV(w io.Writer, spec *engine.ChartSpec) error {
	cw := csv.NewWriter(w)
	if spec == nil {
		cw.Flush()
		return nil
	}

	headers := []string{"series", spec.XAxis.Name, spec.YAxis.Name}
	if spec.ZAxis != nil {
		headers = append(headers, spec.ZAxis.Name)
	}
	_ = cw.Write(headers)

	for _, s := range spec.Series {
		for _, p := range s.Data {
			row := []string{s.Name, p.X.String(), p.Y.String()}
			if spec.ZAxis != nil && p.Z != nil {
				row = append(row, p.Z.String())
			}
			_ = cw.Write(row)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "write csv")
}

// WriteFormatted writes v as json, pretty (indented json) or yaml.
func WriteFormatted(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	switch format {
	case FormatJSON, "":
		out, err = json.Marshal(v)
	case FormatPretty:
		out, err = json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		out, err = yaml.Marshal(v)
	default:
		return errors.Errorf("unknown format %q (want json, pretty or yaml)", format)
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}

	if format == FormatYAML {
		_, err = w.Write(out)
	} else {
		_, err = fmt.Fprintln(w, string(out))
	}
	return err
}
