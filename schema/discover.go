package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Column Classification
// ============================================================================
// Inspects the raw CSV cells and produces a schema.Config.
//
// Classification pipeline per column:
//   1. Role: identity / row index / year / indicator (by header)
//   2. Missing detection → per-column stats (unique, missing, samples)
//   3. Kind: numeric only when EVERY non-missing value parses as a number
//   4. Hierarchy detection (country → un_region)
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	Name       string // Dataset name override (otherwise "Indicator Dataset")
	SampleSize int    // Max sample values kept per column. Default: 10
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		Name:       "Indicator Dataset",
		SampleSize: 10,
	}
}

// unnamedHeader matches the placeholder name given to blank headers.
var unnamedHeader = regexp.MustCompile(`^Unnamed: \d+$`)

// NormalizeHeaders trims headers and renames blank ones to "Unnamed: N"
// (N = zero-based column position) so every column has a stable key.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	return out
}

// IsIndexHeader reports whether a (normalized) header names a row-index column.
func IsIndexHeader(h string) bool {
	return unnamedHeader.MatchString(h)
}

// Discover classifies every column of an already-read CSV.
// headers must be normalized (see NormalizeHeaders); rows may be ragged.
func Discover(headers []string, rows [][]string, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.SampleSize <= 0 {
			opt.SampleSize = 10
		}
		if opt.Name == "" {
			opt.Name = "Indicator Dataset"
		}
	}

	if len(headers) == 0 {
		return nil, errors.New("CSV has no columns")
	}
	if err := checkRequired(headers); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("CSV has no data rows")
	}

	config := &Config{
		Name:           opt.Name,
		RowCount:       len(rows),
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}

	for i, h := range headers {
		col := analyzeColumn(h, i, rows, opt.SampleSize)
		if col.Role == RoleIndex && config.IndexColumn == "" {
			config.IndexColumn = col.Key
		}
		config.Columns = append(config.Columns, col)
	}

	if yc, ok := config.Column(ColYear); ok && yc.Kind == KindCategorical {
		return nil, errors.Errorf("column %q must hold integer years, found values like %v", ColYear, yc.SampleValues)
	}

	detectHierarchies(config.Columns, rows)
	return config, nil
}

// DiscoverFromCSV reads CSV bytes and classifies every column.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	headers, rows, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Discover(headers, rows, opts...)
}

// ReadCSV reads a header row plus all data rows. Headers are normalized.
// Unlike a lenient reader, a malformed row is an error: the dataset is the
// only input and a partial load would silently skew every aggregate.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("CSV is empty")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read CSV headers")
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to read CSV row")
		}
		rows = append(rows, row)
	}
	return NormalizeHeaders(headers), rows, nil
}

func checkRequired(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, req := range RequiredColumns {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ============================================================================
// MISSING VALUES
// ============================================================================

// missingMarkers are the cell spellings read as "no value" in indicator
// columns. Matches the NA conventions of common dataframe CSV readers.
var missingMarkers = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

// IsMissing reports whether a raw cell in column key holds no value.
// Identity columns only treat the empty string as missing: "NA" is
// Namibia's ISO2 code.
func IsMissing(key, raw string) bool {
	v := strings.TrimSpace(raw)
	if IsIdentity(key) {
		return v == ""
	}
	return missingMarkers[v]
}

// ParseNumber parses a numeric cell. Thousands separators are not accepted.
func ParseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, maxSamples int) ColumnMeta {
	col := ColumnMeta{
		Key:         header,
		DisplayName: toDisplayName(header),
		Position:    index,
		Role:        roleFor(header),
	}

	uniqueSet := make(map[string]bool)
	numeric := true
	seen := 0

	for _, row := range rows {
		if index >= len(row) || IsMissing(header, row[index]) {
			col.MissingCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		seen++
		uniqueSet[val] = true
		if numeric {
			if _, ok := ParseNumber(val); !ok {
				numeric = false
			}
		}
	}

	col.UniqueCount = len(uniqueSet)
	col.SampleValues = collectSamples(uniqueSet, maxSamples)

	switch {
	case seen == 0:
		col.Kind = KindEmpty
	case col.Role == RoleIdentity:
		col.Kind = KindCategorical
	case numeric:
		col.Kind = KindNumeric
	default:
		col.Kind = KindCategorical
	}

	switch {
	case col.UniqueCount <= 10:
		col.CardinalityHint = "low"
	case col.UniqueCount <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}

	return col
}

func roleFor(header string) Role {
	switch {
	case IsIdentity(header):
		return RoleIdentity
	case header == ColYear:
		return RoleYear
	case IsIndexHeader(header):
		return RoleIndex
	default:
		return RoleIndicator
	}
}

// ============================================================================
// HIERARCHY DETECTION
// ============================================================================

// detectHierarchies finds parent/child relationships between identity
// columns. If every value of B maps to exactly one value of A and A has
// fewer unique values, A is parent of B. Picks the closest (highest
// cardinality) valid parent. In practice: country → un_region.
func detectHierarchies(columns []ColumnMeta, rows [][]string) {
	for i := range columns {
		child := columns[i]
		if child.Role != RoleIdentity {
			continue
		}

		bestParent := ""
		bestParentUniques := 0

		for j := range columns {
			parent := columns[j]
			if i == j || parent.Role != RoleIdentity {
				continue
			}
			if parent.UniqueCount >= child.UniqueCount {
				continue
			}

			childToParent := make(map[string]string)
			isHierarchy := true
			for _, row := range rows {
				if child.Position >= len(row) || parent.Position >= len(row) {
					continue
				}
				c := strings.TrimSpace(row[child.Position])
				p := strings.TrimSpace(row[parent.Position])
				if c == "" || p == "" {
					continue
				}
				if existing, ok := childToParent[c]; ok {
					if existing != p {
						isHierarchy = false
						break
					}
				} else {
					childToParent[c] = p
				}
			}

			if isHierarchy && len(childToParent) > 1 && parent.UniqueCount > bestParentUniques {
				bestParent = parent.Key
				bestParentUniques = parent.UniqueCount
			}
		}

		columns[i].Parent = bestParent
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "un_region" → "Un Region", "Environmental goods trade balance" unchanged.
func toDisplayName(s string) string {
	if strings.Contains(s, " ") || strings.ToUpper(s) == s {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
