package predictor

import (
	"errors"
	"fmt"
	"math"
)

// Risk messages keyed by predicted class.
const (
	HighRiskMessage = "High Risk of Heart Disease. Your results indicate an elevated likelihood of heart disease."
	LowRiskMessage  = "Low Risk of Heart Disease. Your profile suggests a lower chance of heart disease at this time."
)

const (
	LowRisk  = 0
	HighRisk = 1
)

// Outcome is the classification of one feature row.
type Outcome struct {
	Label   int
	Message string
	// Probability is P(high risk) as a percentage with two decimals, nil
	// when the model does not expose probabilities.
	Probability *float64
}

// Service bundles the loaded metadata and model. It is immutable after
// construction and safe for concurrent use.
type Service struct {
	meta  *Metadata
	model Classifier
}

// NewService pairs a schema with any Classifier, which lets tests substitute the model.
func NewService(meta *Metadata, model Classifier) (*Service, error) {
	if meta == nil {
		return nil, errors.New("model metadata is required")
	}
	if model == nil {
		return nil, errors.New("model is required")
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model metadata: %w", err)
	}
	return &Service{meta: meta, model: model}, nil
}

// LoadService reads the metadata document and the exported forest from disk.
func LoadService(metaPath, modelPath string) (*Service, error) {
	meta, err := LoadMetadata(metaPath)
	if err != nil {
		return nil, err
	}
	forest, err := LoadForest(modelPath)
	if err != nil {
		return nil, err
	}
	if err := forest.CheckSchema(meta); err != nil {
		return nil, err
	}
	return NewService(meta, forest)
}

// Metadata returns the feature schema. Callers must not modify it.
func (s *Service) Metadata() *Metadata {
	return s.meta
}

// Build resolves raw input against the service's schema.
func (s *Service) Build(input InputFunc) (FeatureRow, error) {
	return BuildFeatureRow(s.meta, input)
}

// Classify runs the model on a complete row and maps the label to a risk message.
func (s *Service) Classify(row FeatureRow) (Outcome, error) {
	label, err := s.model.Predict(row)
	if err != nil {
		return Outcome{}, fmt.Errorf("model predict: %w", err)
	}

	var outcome Outcome
	switch label {
	case HighRisk:
		outcome = Outcome{Label: HighRisk, Message: HighRiskMessage}
	case LowRisk:
		outcome = Outcome{Label: LowRisk, Message: LowRiskMessage}
	default:
		return Outcome{}, fmt.Errorf("model returned unexpected label %d", label)
	}

	if pc, ok := s.model.(ProbabilityClassifier); ok {
		proba, err := pc.PredictProba(row)
		if err != nil {
			return Outcome{}, fmt.Errorf("model predict_proba: %w", err)
		}
		classes := pc.Classes()
		if len(classes) != len(proba) {
			return Outcome{}, fmt.Errorf("model returned %d probabilities for %d classes", len(proba), len(classes))
		}
		p := 0.0
		for i, class := range classes {
			if class == HighRisk {
				p = proba[i]
				break
			}
		}
		pct := RoundProbability(p)
		outcome.Probability = &pct
	}
	return outcome, nil
}

// RoundProbability converts a probability in [0, 1] to a percentage rounded
// to two decimals and clamped to [0, 100].
func RoundProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	pct := math.Round(p*100*100) / 100
	return math.Max(0, math.Min(100, pct))
}
