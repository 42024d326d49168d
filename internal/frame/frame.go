package frame

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// QuantifiedFrame is a dense feature matrix: one row per feature
// identifier, one column per sample accession. Frames are treated as
// immutable once built; operations that change shape return new frames.
type QuantifiedFrame struct {
	features []string
	columns  []string
	values   [][]float64
	rowIndex map[string]int
}

// New builds a frame from a feature index, column names, and row-major
// values. The value slice is adopted, not copied.
func New(features, columns []string, values [][]float64) (*QuantifiedFrame, error) {
	if len(values) != len(features) {
		return nil, fmt.Errorf("frame: %d rows of values for %d features", len(values), len(features))
	}
	rowIndex := make(map[string]int, len(features))
	for i, feature := range features {
		if feature == "" {
			return nil, errors.New("frame: empty feature identifier")
		}
		if _, dup := rowIndex[feature]; dup {
			return nil, fmt.Errorf("frame: duplicate feature identifier %q", feature)
		}
		rowIndex[feature] = i
	}
	for i, row := range values {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("frame: row %d has %d values for %d columns", i, len(row), len(columns))
		}
	}
	return &QuantifiedFrame{
		features: features,
		columns:  columns,
		values:   values,
		rowIndex: rowIndex,
	}, nil
}

// Features returns the ordered feature identifiers.
func (f *QuantifiedFrame) Features() []string {
	cp := make([]string, len(f.features))
	copy(cp, f.features)
	return cp
}

// Columns returns the ordered column (sample) names.
func (f *QuantifiedFrame) Columns() []string {
	cp := make([]string, len(f.columns))
	copy(cp, f.columns)
	return cp
}

// Rows returns the number of features.
func (f *QuantifiedFrame) Rows() int {
	if f == nil {
		return 0
	}
	return len(f.features)
}

// Cols returns the number of sample columns.
func (f *QuantifiedFrame) Cols() int {
	if f == nil {
		return 0
	}
	return len(f.columns)
}

// HasColumn reports whether a column name is present.
func (f *QuantifiedFrame) HasColumn(name string) bool {
	for _, column := range f.columns {
		if column == name {
			return true
		}
	}
	return false
}

// LeadColumn returns the first column name, or false when the frame has
// no columns at all.
func (f *QuantifiedFrame) LeadColumn() (string, bool) {
	if f == nil || len(f.columns) == 0 {
		return "", false
	}
	return f.columns[0], true
}

// Value returns the cell at (row, col).
func (f *QuantifiedFrame) Value(row, col int) float64 {
	return f.values[row][col]
}

// RowByFeature returns a copy of the row for the given feature identifier.
func (f *QuantifiedFrame) RowByFeature(feature string) ([]float64, bool) {
	i, ok := f.rowIndex[feature]
	if !ok {
		return nil, false
	}
	row := make([]float64, len(f.values[i]))
	copy(row, f.values[i])
	return row, true
}

// InnerJoin merges two frames on their feature indices. Only features
// present in both frames survive; the result carries the receiver's
// columns followed by the other frame's columns, in the receiver's
// feature order. The result can be empty when the indices are disjoint.
func (f *QuantifiedFrame) InnerJoin(other *QuantifiedFrame) (*QuantifiedFrame, error) {
	features := make([]string, 0, min(len(f.features), len(other.features)))
	values := make([][]float64, 0, cap(features))
	for i, feature := range f.features {
		j, ok := other.rowIndex[feature]
		if !ok {
			continue
		}
		row := make([]float64, 0, len(f.columns)+len(other.columns))
		row = append(row, f.values[i]...)
		row = append(row, other.values[j]...)
		features = append(features, feature)
		values = append(values, row)
	}
	columns := make([]string, 0, len(f.columns)+len(other.columns))
	columns = append(columns, f.columns...)
	columns = append(columns, other.columns...)
	return New(features, columns, values)
}

// Transpose returns a new frame with features and columns swapped.
func (f *QuantifiedFrame) Transpose() *QuantifiedFrame {
	values := make([][]float64, len(f.columns))
	for i := range f.columns {
		row := make([]float64, len(f.features))
		for j := range f.features {
			row[j] = f.values[j][i]
		}
		values[i] = row
	}
	features := make([]string, len(f.columns))
	copy(features, f.columns)
	columns := make([]string, len(f.features))
	copy(columns, f.features)
	transposed, err := New(features, columns, values)
	if err != nil {
		// Shape is preserved by construction, so New cannot fail here.
		panic(err)
	}
	return transposed
}

// Equal reports whether two frames have identical labels and values.
func (f *QuantifiedFrame) Equal(other *QuantifiedFrame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if len(f.features) != len(other.features) || len(f.columns) != len(other.columns) {
		return false
	}
	for i, feature := range f.features {
		if other.features[i] != feature {
			return false
		}
	}
	for i, column := range f.columns {
		if other.columns[i] != column {
			return false
		}
	}
	for i := range f.values {
		for j := range f.values[i] {
			if f.values[i][j] != other.values[i][j] {
				return false
			}
		}
	}
	return true
}

// WriteTSV writes the frame as UTF-8 tab-separated values: a header row
// of indexLabel followed by the column names, then one row per feature.
func (f *QuantifiedFrame) WriteTSV(w io.Writer, indexLabel string) error {
	var builder strings.Builder
	builder.WriteString(indexLabel)
	for _, column := range f.columns {
		builder.WriteByte('\t')
		builder.WriteString(column)
	}
	builder.WriteByte('\n')
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, feature := range f.features {
		builder.Reset()
		builder.WriteString(feature)
		for _, value := range f.values[i] {
			builder.WriteByte('\t')
			builder.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
		}
		builder.WriteByte('\n')
		if _, err := io.WriteString(w, builder.String()); err != nil {
			return fmt.Errorf("write row %s: %w", feature, err)
		}
	}
	return nil
}
