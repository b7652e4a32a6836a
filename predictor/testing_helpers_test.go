package predictor

import (
	"errors"
	"testing"
)

func loadTestMetadata(t *testing.T) *Metadata {
	t.Helper()
	meta, err := LoadMetadata("testdata/meta.json")
	if err != nil {
		t.Fatalf("load metadata: %v", err)
	}
	return meta
}

func loadTestForest(t *testing.T) *Forest {
	t.Helper()
	forest, err := LoadForest("testdata/forest.json")
	if err != nil {
		t.Fatalf("load forest: %v", err)
	}
	return forest
}

// workedExample is a complete, valid low-risk submission.
func workedExample() map[string]string {
	return map[string]string{
		"sex":      "m",
		"cp":       "typical",
		"age":      "54",
		"trestbps": "130",
		"chol":     "250",
		"thalch":   "150",
		"ca":       "0",
		"oldpeak":  "1.0",
		"fbs":      "false",
		"restecg":  "normal",
		"exang":    "false",
		"slope":    "flat",
		"thal":     "normal",
	}
}

func withInput(base map[string]string, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// stubClassifier returns a fixed label and counts calls.
type stubClassifier struct {
	label int
	err   error
	calls int
}

func (s *stubClassifier) Predict(FeatureRow) (int, error) {
	s.calls++
	return s.label, s.err
}

// stubProbaClassifier also exposes probabilities.
type stubProbaClassifier struct {
	stubClassifier
	classes []int
	proba   []float64
}

func (s *stubProbaClassifier) Classes() []int { return s.classes }

func (s *stubProbaClassifier) PredictProba(FeatureRow) ([]float64, error) {
	if s.proba == nil {
		return nil, errors.New("no probabilities")
	}
	return s.proba, nil
}
