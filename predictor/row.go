package predictor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FeatureRow is one fully resolved model input. Column order follows the metadata.
type FeatureRow struct {
	columns []string
	values  map[string]float64
}

// NewFeatureRow builds a row from parallel column and value slices.
func NewFeatureRow(columns []string, values []float64) (FeatureRow, error) {
	if len(columns) != len(values) {
		return FeatureRow{}, fmt.Errorf("feature row has %d columns but %d values", len(columns), len(values))
	}
	row := FeatureRow{columns: append([]string(nil), columns...), values: make(map[string]float64, len(columns))}
	for i, col := range columns {
		row.values[col] = values[i]
	}
	return row, nil
}

// Columns returns the column names in schema order.
func (r FeatureRow) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Value returns the resolved value for column.
func (r FeatureRow) Value(column string) (float64, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Len is the number of columns in the row.
func (r FeatureRow) Len() int { return len(r.columns) }

// MarshalJSON serializes the row as an object in schema order. Whole numbers
// are written without a fractional part so category codes stay integers.
func (r FeatureRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v := r.values[col]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// InputFunc returns the raw submitted text for a column, or "" when absent.
// gin's (*Context).PostForm satisfies it.
type InputFunc func(column string) string

// MapInput adapts a plain map to an InputFunc.
func MapInput(m map[string]string) InputFunc {
	return func(column string) string { return m[column] }
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// BuildFeatureRow resolves raw form text into a complete FeatureRow.
//
// Categorical columns accept either a known integer code or a case-insensitive
// prefix of a label; the first label in declared order wins. Numeric columns
// must parse as finite floats. Invalid values fail on the first offending
// column; blank columns are collected and reported together afterwards.
func BuildFeatureRow(meta *Metadata, input InputFunc) (FeatureRow, error) {
	columns := meta.Columns()
	values := make([]float64, len(columns))
	var missing []string

	for i, col := range columns {
		raw := strings.TrimSpace(input(col))
		if raw == "" {
			missing = append(missing, col)
			continue
		}

		if mapping, ok := meta.Mappings[col]; ok {
			code, err := resolveCategory(col, raw, mapping)
			if err != nil {
				return FeatureRow{}, err
			}
			values[i] = float64(code)
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FeatureRow{}, &ParseError{Column: col, Value: raw, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FeatureRow{}, &ParseError{Column: col, Value: raw, Err: strconv.ErrRange}
		}
		values[i] = v
	}

	if len(missing) > 0 {
		return FeatureRow{}, &MissingInputsError{Columns: missing}
	}
	return NewFeatureRow(columns, values)
}

func resolveCategory(column, raw string, mapping CategoryMapping) (int, error) {
	if isDigits(raw) {
		code, err := strconv.Atoi(raw)
		if err != nil || !mapping.HasCode(code) {
			return 0, &InvalidValueError{Column: column, Value: raw}
		}
		return code, nil
	}
	code, ok := mapping.Match(raw)
	if !ok {
		return 0, &InvalidValueError{Column: column, Value: raw}
	}
	return code, nil
}
