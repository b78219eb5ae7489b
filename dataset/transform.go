package dataset

import (
	"math"
	"sort"

	"probe-ids/arff"

	"github.com/pkg/errors"
)

// DefaultFeatureCount is the number of leading header-based columns kept as features.
const DefaultFeatureCount = 20

// SelectFeatures keeps columns [0, n) and the label column. Every column of
// the result except the last is a feature.
func (t *Table) SelectFeatures(n int) (*Table, error) {
	if n <= 0 {
		return nil, errors.Errorf("dataset: feature count must be positive, got %d", n)
	}
	if t.NumCols() < n+1 {
		return nil, errors.Wrapf(ErrTooFewColumns, "need %d features plus a label, table has %d columns", n, t.NumCols())
	}

	last := t.NumCols() - 1
	cols := make([]Column, 0, n+1)
	cols = append(cols, t.Columns[:n]...)
	cols = append(cols, t.Columns[last])

	rows := make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Value, 0, n+1)
		r = append(r, row[:n]...)
		r = append(r, row[last])
		rows[i] = r
	}
	return &Table{Relation: t.Relation, Columns: cols, Rows: rows}, nil
}

// LabelMap maps class labels to integer codes. Codes must be 0..len-1.
type LabelMap map[string]int

// DefaultLabels is the binary normal/attack mapping.
func DefaultLabels() LabelMap {
	return LabelMap{"normal": 0, "attack": 1}
}

// Validate rejects empty maps and codes that are not exactly 0..len-1.
func (m LabelMap) Validate() error {
	if len(m) == 0 {
		return errors.New("dataset: empty label map")
	}
	seen := make(map[int]string, len(m))
	for name, code := range m {
		if code < 0 || code >= len(m) {
			return errors.Errorf("dataset: label %q has code %d, codes must be in [0,%d)", name, code, len(m))
		}
		if other, ok := seen[code]; ok {
			return errors.Errorf("dataset: labels %q and %q share code %d", other, name, code)
		}
		seen[code] = name
	}
	return nil
}

// ClassNames lists label names ordered by code.
func (m LabelMap) ClassNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return m[names[i]] < m[names[j]] })
	return names
}

// EncodeLabels returns a copy of the table whose label column holds the
// integer code of each row's label. A missing label or one outside m is an
// error naming the row.
func (t *Table) EncodeLabels(m LabelMap) (*Table, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if t.NumCols() == 0 {
		return nil, errors.New("dataset: table has no columns")
	}
	label := t.LabelColumn()
	if label.Kind != arff.Nominal && label.Kind != arff.String {
		return nil, errors.Errorf("dataset: label column %q is %s, want nominal or string", label.Name, label.Kind)
	}

	last := t.NumCols() - 1
	rows := make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		v := row[last]
		if v.Missing {
			return nil, errors.Wrapf(ErrUnknownLabel, "row %d: missing label", i)
		}
		code, ok := m[v.Str]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownLabel, "row %d: %q", i, v.Str)
		}
		r := make([]Value, len(row))
		copy(r, row)
		r[last] = Value{Num: float64(code), Str: v.Str}
		rows[i] = r
	}

	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	cols[last] = Column{Name: label.Name, Kind: arff.Numeric}
	return &Table{Relation: t.Relation, Columns: cols, Rows: rows}, nil
}

// Matrix converts an encoded table into a feature matrix and label vector.
// Nominal features become their declared index; missing values become NaN.
func (t *Table) Matrix() ([][]float64, []int, error) {
	if t.NumCols() < 2 {
		return nil, nil, errors.Wrapf(ErrTooFewColumns, "matrix needs at least one feature and a label, table has %d columns", t.NumCols())
	}
	last := t.NumCols() - 1
	if t.Columns[last].Kind != arff.Numeric {
		return nil, nil, ErrNotEncoded
	}
	for _, c := range t.Columns[:last] {
		if c.Kind != arff.Numeric && c.Kind != arff.Nominal {
			return nil, nil, errors.Wrapf(ErrNonNumeric, "column %q is %s", c.Name, c.Kind)
		}
	}

	X := make([][]float64, len(t.Rows))
	y := make([]int, len(t.Rows))
	for i, row := range t.Rows {
		x := make([]float64, last)
		for j := 0; j < last; j++ {
			if row[j].Missing {
				x[j] = math.NaN()
				continue
			}
			x[j] = row[j].Num
		}
		X[i] = x
		if row[last].Missing {
			return nil, nil, errors.Wrapf(ErrUnknownLabel, "row %d: missing label", i)
		}
		y[i] = int(row[last].Num)
	}
	return X, y, nil
}
