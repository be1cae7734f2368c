package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/futurisys/attrition/internal/domain/features"
)

// Artifact is the serialized scoring pipeline: mean imputation and
// standardization for numeric columns, one-hot vocabularies for categorical
// columns, and the logistic coefficients on top. Exported from training as
// JSON.
type Artifact struct {
	Version     string                     `json:"version"`
	Columns     []string                   `json:"columns"`
	Classes     []int                      `json:"classes"`
	Intercept   float64                    `json:"intercept"`
	Numeric     map[string]NumericSpec     `json:"numeric"`
	Categorical map[string]CategoricalSpec `json:"categorical"`
}

// NumericSpec carries the preprocessing parameters and the fitted weight of
// one numeric column.
type NumericSpec struct {
	Impute float64 `json:"impute"`
	Center float64 `json:"center"`
	Scale  float64 `json:"scale"`
	Coef   float64 `json:"coef"`
}

// CategoricalSpec carries per-category weights of one one-hot encoded
// column. Categories absent from the map (and nulls) contribute nothing.
type CategoricalSpec struct {
	Coef map[string]float64 `json:"coef"`
}

// ReadArtifact loads and sanity-checks an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelInvalid, path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelInvalid, path, err)
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	if len(a.Columns) == 0 {
		return fmt.Errorf("no columns")
	}
	if len(a.Classes) != 2 {
		return fmt.Errorf("expected 2 classes, got %d", len(a.Classes))
	}
	for _, col := range a.Columns {
		_, num := a.Numeric[col]
		_, cat := a.Categorical[col]
		if !num && !cat {
			return fmt.Errorf("column %q has neither numeric nor categorical spec", col)
		}
	}
	for col, spec := range a.Numeric {
		if spec.Scale == 0 {
			return fmt.Errorf("column %q has zero scale", col)
		}
	}
	return nil
}

// decision computes the logit of the fitted logistic regression for one
// feature vector. Null numerics are imputed, null or unseen categories
// contribute zero.
func (a *Artifact) decision(v features.Vector) float64 {
	z := a.Intercept
	for _, col := range a.Columns {
		if spec, ok := a.Numeric[col]; ok {
			x, present := v.Number(col)
			if !present {
				x = spec.Impute
			}
			z += spec.Coef * ((x - spec.Center) / spec.Scale)
			continue
		}
		if spec, ok := a.Categorical[col]; ok {
			if cat, present := v.Category(col); present {
				z += spec.Coef[cat]
			}
		}
	}
	return z
}
