package predictor

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Classifier predicts a class label for one feature row.
type Classifier interface {
	Predict(row FeatureRow) (int, error)
}

// ProbabilityClassifier additionally exposes per-class probabilities,
// aligned with Classes.
type ProbabilityClassifier interface {
	Classifier
	Classes() []int
	PredictProba(row FeatureRow) ([]float64, error)
}

const leafNode = -1

// Tree is one fitted decision tree in the flat array layout of
// scikit-learn's tree_ attribute. A node is a leaf when its left child is -1.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree arrays have mismatched lengths")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == leafNode {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("leaf %d has %d class values, want %d", i, len(t.Value[i]), nClasses)
			}
			continue
		}
		// Children always come after their parent, which also rules out cycles.
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has out-of-range children %d/%d", i, left, right)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
	}
	return nil
}

// leaf walks x down to a leaf and returns its normalized class distribution.
func (t *Tree) leaf(x []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	counts := t.Value[node]
	var total float64
	for _, c := range counts {
		total += c
	}
	dist := make([]float64, len(counts))
	if total <= 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = c / total
	}
	return dist
}

// Imputer replaces NaN inputs with the fitted per-column statistic.
type Imputer struct {
	Statistics []float64 `json:"statistics"`
}

// Scaler standardizes the listed columns as (x - mean) / scale.
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// Forest is an exported impute → scale → random-forest pipeline.
type Forest struct {
	// Columns is the feature order the trees index into.
	Columns []string `json:"columns"`
	// Classes holds the label of each probability slot.
	ClassLabels []int    `json:"classes"`
	Imputer     *Imputer `json:"imputer,omitempty"`
	Scaler      *Scaler  `json:"scaler,omitempty"`
	Trees       []Tree   `json:"trees"`

	// scaleAt maps a position in Columns to its scaler slot, -1 when unscaled.
	scaleAt []int
}

func (f *Forest) init() error {
	if len(f.Columns) == 0 {
		return fmt.Errorf("forest declares no columns")
	}
	if len(f.ClassLabels) == 0 {
		return fmt.Errorf("forest declares no classes")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if f.Imputer != nil && len(f.Imputer.Statistics) != len(f.Columns) {
		return fmt.Errorf("imputer has %d statistics for %d columns", len(f.Imputer.Statistics), len(f.Columns))
	}

	f.scaleAt = make([]int, len(f.Columns))
	for i := range f.scaleAt {
		f.scaleAt[i] = -1
	}
	if f.Scaler != nil {
		s := f.Scaler
		if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
			return fmt.Errorf("scaler arrays have mismatched lengths")
		}
		index := make(map[string]int, len(f.Columns))
		for i, col := range f.Columns {
			index[col] = i
		}
		for j, col := range s.Columns {
			i, ok := index[col]
			if !ok {
				return fmt.Errorf("scaler column %q is not a forest column", col)
			}
			if s.Scale[j] == 0 {
				return fmt.Errorf("scaler column %q has zero scale", col)
			}
			f.scaleAt[i] = j
		}
	}

	for i := range f.Trees {
		if err := f.Trees[i].validate(len(f.Columns), len(f.ClassLabels)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// ParseForest decodes and validates an exported forest.
func ParseForest(r io.Reader) (*Forest, error) {
	var f Forest
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := f.init(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	return &f, nil
}

// LoadForest reads the exported forest at path.
func LoadForest(path string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer file.Close()
	return ParseForest(file)
}

// Classes returns the class label of each probability slot.
func (f *Forest) Classes() []int {
	return append([]int(nil), f.ClassLabels...)
}

// CheckSchema verifies every forest column is produced by meta.
func (f *Forest) CheckSchema(meta *Metadata) error {
	known := make(map[string]struct{})
	for _, col := range meta.Columns() {
		known[col] = struct{}{}
	}
	for _, col := range f.Columns {
		if _, ok := known[col]; !ok {
			return fmt.Errorf("model column %q is not described by the metadata", col)
		}
	}
	return nil
}

func (f *Forest) transform(row FeatureRow) ([]float64, error) {
	x := make([]float64, len(f.Columns))
	for i, col := range f.Columns {
		v, ok := row.Value(col)
		if !ok {
			return nil, fmt.Errorf("feature row lacks column %q", col)
		}
		if math.IsNaN(v) && f.Imputer != nil {
			v = f.Imputer.Statistics[i]
		}
		if j := f.scaleAt[i]; j >= 0 {
			v = (v - f.Scaler.Mean[j]) / f.Scaler.Scale[j]
		}
		x[i] = v
	}
	return x, nil
}

// PredictProba averages the leaf class distributions of every tree.
func (f *Forest) PredictProba(row FeatureRow) ([]float64, error) {
	x, err := f.transform(row)
	if err != nil {
		return nil, err
	}
	proba := make([]float64, len(f.ClassLabels))
	for i := range f.Trees {
		for k, p := range f.Trees[i].leaf(x) {
			proba[k] += p
		}
	}
	for k := range proba {
		proba[k] /= float64(len(f.Trees))
	}
	return proba, nil
}

// Predict returns the class with the highest averaged probability; ties go to
// the earlier class.
func (f *Forest) Predict(row FeatureRow) (int, error) {
	proba, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	best := 0
	for k := 1; k < len(proba); k++ {
		if proba[k] > proba[best] {
			best = k
		}
	}
	return f.ClassLabels[best], nil
}
