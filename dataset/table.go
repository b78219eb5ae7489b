// Package dataset holds the in-memory record table and the transformations
// applied to it before training: feature selection, label encoding and
// conversion to a feature matrix.
package dataset

import (
	"path/filepath"
	"strings"

	"probe-ids/arff"

	"github.com/pkg/errors"
)

var (
	// ErrSchemaMismatch is returned when appended files declare different columns.
	ErrSchemaMismatch = errors.New("dataset: schema mismatch")
	// ErrTooFewColumns is returned when feature selection cannot take the requested columns.
	ErrTooFewColumns = errors.New("dataset: too few columns")
	// ErrUnknownLabel is returned for a label outside the label map.
	ErrUnknownLabel = errors.New("dataset: unknown label")
	// ErrNotEncoded is returned when a matrix is requested before label encoding.
	ErrNotEncoded = errors.New("dataset: label column is not encoded")
	// ErrNonNumeric is returned for a feature column that cannot become a float.
	ErrNonNumeric = errors.New("dataset: non-numeric feature")
)

// Value is one cell of the table.
type Value = arff.Value

// Column describes one table column.
type Column struct {
	Name string
	Kind arff.Kind
	// Values is the nominal domain, nil for other kinds.
	Values []string
}

// Table is an ordered set of rows; the label column is always the last one.
type Table struct {
	Relation string
	Columns  []Column
	Rows     [][]Value
}

// FromRelation builds a table from a parsed ARFF relation.
func FromRelation(rel *arff.Relation) *Table {
	cols := make([]Column, len(rel.Attributes))
	for i, a := range rel.Attributes {
		cols[i] = Column{Name: a.Name, Kind: a.Kind, Values: a.Values}
	}
	return &Table{Relation: rel.Name, Columns: cols, Rows: rel.Data}
}

// Load reads one ARFF file, or a CSV file when path ends in ".csv".
func Load(path string, opts ...arff.Option) (*Table, error) {
	var t *Table
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		var err error
		if t, err = LoadCSV(path); err != nil {
			return nil, err
		}
	} else {
		rel, err := arff.ReadFile(path, opts...)
		if err != nil {
			return nil, err
		}
		t = FromRelation(rel)
	}
	if t.NumCols() == 0 {
		return nil, errors.Errorf("dataset: %s declares no attributes", path)
	}
	return t, nil
}

// LoadAll reads every path and appends the rows in order. All files must
// declare the same columns.
func LoadAll(paths []string, opts ...arff.Option) (*Table, error) {
	if len(paths) == 0 {
		return nil, errors.New("dataset: no input files")
	}
	var out *Table
	for _, path := range paths {
		t, err := Load(path, opts...)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = t
			continue
		}
		if err := out.Append(t); err != nil {
			return nil, errors.Wrapf(err, "dataset: appending %s", path)
		}
	}
	return out, nil
}

// CheckSchema returns ErrSchemaMismatch unless other declares the same
// columns: names, kinds and nominal domains in the same order.
func (t *Table) CheckSchema(other *Table) error {
	if len(t.Columns) != len(other.Columns) {
		return errors.Wrapf(ErrSchemaMismatch, "%d columns vs %d", len(t.Columns), len(other.Columns))
	}
	for i := range t.Columns {
		if err := sameColumn(i, t.Columns[i], other.Columns[i]); err != nil {
			return err
		}
	}
	return nil
}

// CheckFeatures is CheckSchema for a table scored by a model trained on t.
// Nominal features are encoded by domain index, so their domains must match
// exactly. The label is encoded by name through a LabelMap and only its
// name has to agree.
func (t *Table) CheckFeatures(other *Table) error {
	if len(t.Columns) != len(other.Columns) {
		return errors.Wrapf(ErrSchemaMismatch, "%d columns vs %d", len(t.Columns), len(other.Columns))
	}
	last := len(t.Columns) - 1
	for i := 0; i < last; i++ {
		if err := sameColumn(i, t.Columns[i], other.Columns[i]); err != nil {
			return err
		}
	}
	if last >= 0 && t.Columns[last].Name != other.Columns[last].Name {
		return errors.Wrapf(ErrSchemaMismatch, "label column %q vs %q", t.Columns[last].Name, other.Columns[last].Name)
	}
	return nil
}

func sameColumn(i int, c, o Column) error {
	if c.Name != o.Name || c.Kind != o.Kind {
		return errors.Wrapf(ErrSchemaMismatch, "column %d: %q (%s) vs %q (%s)", i, c.Name, c.Kind, o.Name, o.Kind)
	}
	if !equalStrings(c.Values, o.Values) {
		return errors.Wrapf(ErrSchemaMismatch, "column %d %q: domain %v vs %v", i, c.Name, c.Values, o.Values)
	}
	return nil
}

// Append adds the rows of other, which must have the same columns.
func (t *Table) Append(other *Table) error {
	if err := t.CheckSchema(other); err != nil {
		return err
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

// NumRows returns the number of records.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns including the label.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnNames returns every column name in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// FeatureNames returns the names of every column except the label.
func (t *Table) FeatureNames() []string {
	if len(t.Columns) == 0 {
		return nil
	}
	return t.ColumnNames()[:len(t.Columns)-1]
}

// LabelColumn returns the last column.
func (t *Table) LabelColumn() Column {
	return t.Columns[len(t.Columns)-1]
}

// LabelCounts counts the label values of every row; missing labels count under "?".
func (t *Table) LabelCounts() map[string]int {
	counts := make(map[string]int)
	if len(t.Columns) == 0 {
		return counts
	}
	last := len(t.Columns) - 1
	for _, row := range t.Rows {
		counts[row[last].String()]++
	}
	return counts
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
