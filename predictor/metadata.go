package predictor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Category is one human-readable label and the integer code the model was trained on.
type Category struct {
	Label string
	Code  int
}

// CategoryMapping keeps the labels of a categorical column in the order the
// metadata document declares them. Prefix matching relies on that order.
type CategoryMapping []Category

// UnmarshalJSON decodes a JSON object of label → code without losing key order.
func (m *CategoryMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category mapping must be a JSON object")
	}

	out := CategoryMapping{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("category mapping key must be a string")
		}
		var code int
		if err := dec.Decode(&code); err != nil {
			return fmt.Errorf("category %q: %w", label, err)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("category %q declared twice", label)
		}
		seen[label] = struct{}{}
		out = append(out, Category{Label: label, Code: code})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalJSON writes the mapping back as an object in declared order.
func (m CategoryMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(label)
		fmt.Fprintf(&buf, ":%d", c.Code)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Match returns the code of the first label whose lower-cased text starts
// with the lower-cased input.
func (m CategoryMapping) Match(input string) (int, bool) {
	needle := strings.ToLower(input)
	for _, c := range m {
		if strings.HasPrefix(strings.ToLower(c.Label), needle) {
			return c.Code, true
		}
	}
	return 0, false
}

// HasCode reports whether code is one of the mapping's values.
func (m CategoryMapping) HasCode(code int) bool {
	for _, c := range m {
		if c.Code == code {
			return true
		}
	}
	return false
}

// Labels returns the labels in declared order.
func (m CategoryMapping) Labels() []string {
	labels := make([]string, len(m))
	for i, c := range m {
		labels[i] = c.Label
	}
	return labels
}

// Metadata describes the feature schema the model was trained on.
type Metadata struct {
	CategoricalCols []string                   `json:"categorical_cols"`
	NumericCols     []string                   `json:"numeric_cols"`
	TargetCol       string                     `json:"target_col"`
	Accuracy        float64                    `json:"accuracy"`
	Mappings        map[string]CategoryMapping `json:"mappings"`
}

// Columns returns every feature column: categorical first, then numeric.
func (m *Metadata) Columns() []string {
	cols := make([]string, 0, len(m.CategoricalCols)+len(m.NumericCols))
	cols = append(cols, m.CategoricalCols...)
	return append(cols, m.NumericCols...)
}

// IsCategorical reports whether column resolves through a mapping.
func (m *Metadata) IsCategorical(column string) bool {
	_, ok := m.Mappings[column]
	return ok
}

// Validate checks the schema is usable by BuildFeatureRow.
func (m *Metadata) Validate() error {
	if len(m.CategoricalCols)+len(m.NumericCols) == 0 {
		return fmt.Errorf("metadata declares no feature columns")
	}
	seen := make(map[string]struct{})
	for _, col := range m.Columns() {
		if col == "" {
			return fmt.Errorf("metadata declares an empty column name")
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("column %q declared twice", col)
		}
		seen[col] = struct{}{}
	}
	for _, col := range m.CategoricalCols {
		mapping, ok := m.Mappings[col]
		if !ok || len(mapping) == 0 {
			return fmt.Errorf("categorical column %q has no mapping", col)
		}
	}
	for _, col := range m.NumericCols {
		if _, ok := m.Mappings[col]; ok {
			return fmt.Errorf("numeric column %q must not have a mapping", col)
		}
	}
	return nil
}

// ParseMetadata decodes and validates a metadata document.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	var meta Metadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode model metadata: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model metadata: %w", err)
	}
	return &meta, nil
}

// LoadMetadata reads the metadata document at path.
func LoadMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model metadata: %w", err)
	}
	defer f.Close()
	return ParseMetadata(f)
}
