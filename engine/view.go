package engine

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never copies the dataset. It reads through this interface.
//
// Implementations:
//   SliceView — wraps the loaded []Record
//   SubView   — filtered subset (indices into parent, zero-copy)
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Cell in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Cell(index int, key string) Cell
	Columns() []string // column keys in file order
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	columns []string
}

// NewSliceView creates a RecordView from records. columns is the file-order
// column list; when nil it is derived from the records (map order is not
// stable, so callers with a header should pass it).
func NewSliceView(records []Record, columns []string) *SliceView {
	v := &SliceView{records: records, columns: columns}
	if v.columns == nil {
		v.cacheColumns()
	}
	return v
}

func (v *SliceView) cacheColumns() {
	seen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			if !seen[k] {
				seen[k] = true
				v.columns = append(v.columns, k)
			}
		}
		for k := range r.Measures {
			if !seen[k] {
				seen[k] = true
				v.columns = append(v.columns, k)
			}
		}
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Cell(i int, key string) Cell {
	if i < 0 || i >= len(v.records) {
		return Cell{}
	}
	return v.records[i].Cell(key)
}

func (v *SliceView) Columns() []string { return v.columns }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Cell(i int, key string) Cell {
	if i < 0 || i >= len(v.indices) {
		return Cell{}
	}
	return v.parent.Cell(v.indices[i], key)
}

func (v *SubView) Columns() []string { return v.parent.Columns() }

// ============================================================================
// HELPERS
// ============================================================================

// textAt returns the text of a cell, or the rendered number, or "".
func textAt(view RecordView, i int, key string) string {
	return view.Cell(i, key).String()
}

// hasColumn reports whether key is one of the view's columns.
func hasColumn(view RecordView, key string) bool {
	for _, c := range view.Columns() {
		if c == key {
			return true
		}
	}
	return false
}
