package predictor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func buildRow(t *testing.T, meta *Metadata) FeatureRow {
	t.Helper()
	row, err := BuildFeatureRow(meta, MapInput(workedExample()))
	require.NoError(t, err)
	return row
}

func TestService_ClassifyMessages(t *testing.T) {
	meta := loadTestMetadata(t)

	tests := []struct {
		label   int
		message string
	}{
		{HighRisk, HighRiskMessage},
		{LowRisk, LowRiskMessage},
	}
	for _, tt := range tests {
		stub := &stubClassifier{label: tt.label}
		svc, err := NewService(meta, stub)
		require.NoError(t, err)

		outcome, err := svc.Classify(buildRow(t, meta))
		require.NoError(t, err)
		assert.Equal(t, tt.label, outcome.Label)
		assert.Equal(t, tt.message, outcome.Message)
		assert.Nil(t, outcome.Probability, "plain classifiers expose no probability")
		assert.Equal(t, 1, stub.calls)
	}
}

func TestService_ClassifyUnexpectedLabel(t *testing.T) {
	meta := loadTestMetadata(t)
	svc, err := NewService(meta, &stubClassifier{label: 2})
	require.NoError(t, err)

	_, err = svc.Classify(buildRow(t, meta))
	assert.ErrorContains(t, err, "unexpected label 2")
}

func TestService_ClassifyModelError(t *testing.T) {
	meta := loadTestMetadata(t)
	boom := errors.New("boom")
	svc, err := NewService(meta, &stubClassifier{err: boom})
	require.NoError(t, err)

	_, err = svc.Classify(buildRow(t, meta))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsValidationError(err))
}

func TestService_ClassifyProbability(t *testing.T) {
	meta := loadTestMetadata(t)
	stub := &stubProbaClassifier{
		stubClassifier: stubClassifier{label: HighRisk},
		classes:        []int{0, 1},
		proba:          []float64{0.27654, 0.72346},
	}
	svc, err := NewService(meta, stub)
	require.NoError(t, err)

	outcome, err := svc.Classify(buildRow(t, meta))
	require.NoError(t, err)
	require.NotNil(t, outcome.Probability)
	assert.Equal(t, 72.35, *outcome.Probability)
}

func TestService_ClassifyProbabilityClassOrder(t *testing.T) {
	meta := loadTestMetadata(t)
	stub := &stubProbaClassifier{
		stubClassifier: stubClassifier{label: LowRisk},
		classes:        []int{1, 0},
		proba:          []float64{0.1, 0.9},
	}
	svc, err := NewService(meta, stub)
	require.NoError(t, err)

	outcome, err := svc.Classify(buildRow(t, meta))
	require.NoError(t, err)
	assert.Equal(t, 10.0, *outcome.Probability)
}

func TestService_ClassifyProbabilityError(t *testing.T) {
	meta := loadTestMetadata(t)
	stub := &stubProbaClassifier{stubClassifier: stubClassifier{label: LowRisk}, classes: []int{0, 1}}
	svc, err := NewService(meta, stub)
	require.NoError(t, err)

	_, err = svc.Classify(buildRow(t, meta))
	assert.ErrorContains(t, err, "predict_proba")
}

func TestService_WithForest(t *testing.T) {
	svc, err := LoadService("testdata/meta.json", "testdata/forest.json")
	require.NoError(t, err)

	row, err := svc.Build(MapInput(workedExample()))
	require.NoError(t, err)

	outcome, err := svc.Classify(row)
	require.NoError(t, err)
	assert.Equal(t, LowRiskMessage, outcome.Message)
	require.NotNil(t, outcome.Probability)
	assert.Equal(t, 35.0, *outcome.Probability)
}

func TestNewService_RequiresInputs(t *testing.T) {
	meta := loadTestMetadata(t)

	_, err := NewService(nil, &stubClassifier{})
	assert.Error(t, err)
	_, err = NewService(meta, nil)
	assert.Error(t, err)
	_, err = NewService(&Metadata{}, &stubClassifier{})
	assert.Error(t, err)
}

func TestRoundProbability(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1, 100},
		{0.123456, 12.35},
		{0.5, 50},
		{0.99999, 100},
		{1.5, 100},
		{-0.2, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		got := RoundProbability(tt.in)
		assert.Equal(t, tt.want, got, "RoundProbability(%v)", tt.in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}
