package schema

// ============================================================================
// SCHEMA — Describes the shape of an indicator dataset
// ============================================================================
// Auto-discovered from the CSV at load time. The dataset loader uses it to
// decide which cells are numeric, which columns are selectable as chart axes,
// and which column (if any) is a row index to hide.
// ============================================================================

// Well-known column names of the indicator dataset.
const (
	ColCountry = "country"
	ColISO2    = "ISO2"
	ColISO3    = "ISO3"
	ColRegion  = "un_region"
	ColYear    = "year"
)

// Preferred axis defaults. Each falls back to the first axis column when the
// dataset does not carry it.
const (
	DefaultX = ColYear
	DefaultY = "Greenhouse Gas Footprints (GHGFP): Principal indicators"
	DefaultZ = "Environmental goods trade balance"
)

// IdentityColumns are the geography/identity columns. They are never axes
// and are always read as text.
var IdentityColumns = []string{ColCountry, ColISO2, ColISO3, ColRegion}

// RequiredColumns must be present in every dataset header.
var RequiredColumns = []string{ColCountry, ColISO2, ColISO3, ColRegion, ColYear}

// Role classifies what a column is used for.
type Role string

const (
	RoleIdentity  Role = "identity"
	RoleIndex     Role = "index"
	RoleYear      Role = "year"
	RoleIndicator Role = "indicator"
)

// Kind is the inferred value type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindEmpty       Kind = "empty" // every value missing
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string       `json:"name" yaml:"name"`
	Columns     []ColumnMeta `json:"columns" yaml:"columns"`
	IndexColumn string       `json:"indexColumn,omitempty" yaml:"indexColumn,omitempty"`
	RowCount    int          `json:"rowCount" yaml:"rowCount"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty" yaml:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty" yaml:"discoveredAt,omitempty"`
}

// ColumnMeta describes a single CSV column.
type ColumnMeta struct {
	Key             string   `json:"key" yaml:"key"` // header text, verbatim
	DisplayName     string   `json:"displayName" yaml:"displayName"`
	Position        int      `json:"position" yaml:"position"`
	Role            Role     `json:"role" yaml:"role"`
	Kind            Kind     `json:"kind" yaml:"kind"`
	SampleValues    []string `json:"sampleValues,omitempty" yaml:"sampleValues,omitempty"`
	UniqueCount     int      `json:"uniqueCount" yaml:"uniqueCount"`
	MissingCount    int      `json:"missingCount" yaml:"missingCount"`
	CardinalityHint string   `json:"cardinalityHint,omitempty" yaml:"cardinalityHint,omitempty"` // "low", "medium", "high"
	Parent          string   `json:"parent,omitempty" yaml:"parent,omitempty"`                   // parent column for hierarchies
}

// Column returns the metadata for key, or false when the column is unknown.
func (c Config) Column(key string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// IsNumeric reports whether key is a known column whose non-missing values
// are all numeric.
func (c Config) IsNumeric(key string) bool {
	col, ok := c.Column(key)
	return ok && col.Kind == KindNumeric
}

// AxisColumns returns the columns selectable as X/Y/Z axes, in file order:
// everything except identity columns and the row-index column.
func (c Config) AxisColumns() []string {
	var keys []string
	for _, col := range c.Columns {
		if col.Role == RoleIdentity || col.Role == RoleIndex {
			continue
		}
		keys = append(keys, col.Key)
	}
	return keys
}

// DefaultAxes resolves the X/Y/Z defaults against the available axis columns.
func (c Config) DefaultAxes() (x, y, z string) {
	axes := c.AxisColumns()
	return PickAxis(axes, DefaultX), PickAxis(axes, DefaultY), PickAxis(axes, DefaultZ)
}

// PickAxis returns preferred if it is one of axes, otherwise the first axis
// column. Returns "" when there are no axis columns.
func PickAxis(axes []string, preferred string) string {
	for _, a := range axes {
		if a == preferred {
			return preferred
		}
	}
	if len(axes) > 0 {
		return axes[0]
	}
	return ""
}

// IsIdentity reports whether key is one of the identity columns.
func IsIdentity(key string) bool {
	for _, id := range IdentityColumns {
		if id == key {
			return true
		}
	}
	return false
}
