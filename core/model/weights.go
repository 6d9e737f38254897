package model

import (
	"encoding/json"
	"fmt"
)

// MatrixWeights is a dense matrix in row-major order, used to serialize
// learned matrix-valued parameters.
type MatrixWeights struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// ModelWeights is a serializable container for an estimator's learned
// parameters, used for export/import round-trips with exact reproducibility.
type ModelWeights struct {
	// ModelType identifies the estimator type (e.g. "OPLS").
	ModelType string `json:"model_type"`

	// Version of the weight format, for compatibility checks.
	Version string `json:"version"`

	// Coefficients holds the primary coefficient vector.
	Coefficients []float64 `json:"coefficients"`

	// Intercept is the additive constant applied to predictions.
	Intercept float64 `json:"intercept"`

	// Matrices holds named matrix-valued parameters (loadings, weights,
	// scores).
	Matrices map[string]*MatrixWeights `json:"matrices,omitempty"`

	// Hyperparameters holds the configuration the model was fitted with.
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata holds additional statistics recorded at fit time.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted records whether the source model was fitted.
	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes the weights to indented JSON.
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON deserializes the weights from JSON.
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Validate checks the weights for internal consistency.
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}

	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}

	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return fmt.Errorf("unfitted model should not have coefficients")
	}

	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return fmt.Errorf("fitted model must have coefficients")
	}

	for name, m := range mw.Matrices {
		if m == nil {
			return fmt.Errorf("matrix %q is nil", name)
		}
		if len(m.Data) != m.Rows*m.Cols {
			return fmt.Errorf("matrix %q: %d values for %dx%d shape", name, len(m.Data), m.Rows, m.Cols)
		}
	}

	return nil
}

// Clone creates a deep copy of the weights.
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([]float64, len(mw.Coefficients)),
		Matrices:        make(map[string]*MatrixWeights),
		Hyperparameters: make(map[string]interface{}),
		Metadata:        make(map[string]interface{}),
	}

	copy(clone.Coefficients, mw.Coefficients)

	for name, m := range mw.Matrices {
		data := make([]float64, len(m.Data))
		copy(data, m.Data)
		clone.Matrices[name] = &MatrixWeights{Rows: m.Rows, Cols: m.Cols, Data: data}
	}

	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}

	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}
