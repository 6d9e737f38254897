package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for supervised estimators that learn from data.
type Fitter interface {
	// Fit trains the estimator on the given feature matrix and target.
	Fit(X, y mat.Matrix) error
}

// Transformer is the interface for supervised data filters. Fitting requires
// a target because the learned transformation depends on it.
type Transformer interface {
	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (*mat.Dense, error)

	// FitTransform fits the transformation on (X, y) and applies it to X.
	FitTransform(X, y mat.Matrix) (*mat.Dense, error)
}

// Predictor is the interface for estimators that produce predictions.
type Predictor interface {
	// Predict returns predictions for the input data.
	Predict(X mat.Matrix) (*mat.Dense, error)
}

// Scorer is the interface for estimators that can score themselves.
type Scorer interface {
	// Score returns the coefficient of determination R² of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines the capabilities of a fitted regression model.
// Callers should depend on the narrowest interface they need.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// WeightsExporter is the interface for estimators whose learned parameters
// can be exported and re-imported for exact reproducibility.
type WeightsExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(weights *ModelWeights) error
}
