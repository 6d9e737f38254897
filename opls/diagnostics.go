package opls

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goopls/metrics"
	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// PRESS returns the predicted residual error sum of squares of raw
// predictions on (X, y): Σ(y - predict(X))².
func (o *OPLS) PRESS(X, y mat.Matrix) (float64, error) {
	if !o.state.IsFitted() {
		return 0, errors.NewNotFittedError("OPLS", "PRESS")
	}

	pred, yVec, err := o.predictionPair("OPLS.PRESS", X, y)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < yVec.Len(); i++ {
		diff := yVec.AtVec(i) - pred.AtVec(i)
		sum += diff * diff
	}
	return sum, nil
}

// PRESSD is PRESS with predictions first clipped to the [yMin, yMax] range
// observed on the processed training target.
func (o *OPLS) PRESSD(X, y mat.Matrix) (float64, error) {
	if !o.state.IsFitted() {
		return 0, errors.NewNotFittedError("OPLS", "PRESSD")
	}

	pred, yVec, err := o.predictionPair("OPLS.PRESSD", X, y)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < yVec.Len(); i++ {
		clipped := errors.ClipValue(pred.AtVec(i), o.fit_.yMin, o.fit_.yMax)
		diff := yVec.AtVec(i) - clipped
		sum += diff * diff
	}
	return sum, nil
}

// R2DScore returns R² computed on predictions clipped to [-1, 1], delegating
// the scoring to metrics.R2Score. When (X, y) were not used to train the
// estimator this is a Q²-style out-of-sample score.
func (o *OPLS) R2DScore(X, y mat.Matrix) (float64, error) {
	if !o.state.IsFitted() {
		return 0, errors.NewNotFittedError("OPLS", "R2DScore")
	}

	pred, yVec, err := o.predictionPair("OPLS.R2DScore", X, y)
	if err != nil {
		return 0, err
	}

	for i := 0; i < pred.Len(); i++ {
		pred.SetVec(i, errors.ClipValue(pred.AtVec(i), -1, 1))
	}
	return metrics.R2Score(yVec, pred)
}

// DiscriminatorAccuracyScore thresholds predictions at their sign and
// delegates to metrics.AccuracyScore. It is meaningful only for ±1 coded
// binary targets (OPLS-DA).
func (o *OPLS) DiscriminatorAccuracyScore(X, y mat.Matrix) (float64, error) {
	if !o.state.IsFitted() {
		return 0, errors.NewNotFittedError("OPLS", "DiscriminatorAccuracyScore")
	}

	pred, yVec, err := o.predictionPair("OPLS.DiscriminatorAccuracyScore", X, y)
	if err != nil {
		return 0, err
	}

	for i := 0; i < pred.Len(); i++ {
		pred.SetVec(i, sign(pred.AtVec(i)))
	}
	return metrics.AccuracyScore(yVec, pred)
}

// Score returns the coefficient of determination R² of raw predictions on
// (X, y).
func (o *OPLS) Score(X, y mat.Matrix) (float64, error) {
	if !o.state.IsFitted() {
		return 0, errors.NewNotFittedError("OPLS", "Score")
	}

	pred, yVec, err := o.predictionPair("OPLS.Score", X, y)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yVec, pred)
}

// predictionPair validates y against X, predicts, and returns both as
// vectors for the scoring collaborators.
func (o *OPLS) predictionPair(op string, X, y mat.Matrix) (pred, yVec *mat.VecDense, err error) {
	n, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if yRows != n {
		return nil, nil, errors.NewDimensionError(op, n, yRows, 0)
	}

	predMat, err := o.Predict(X)
	if err != nil {
		return nil, nil, err
	}

	pred = mat.NewVecDense(n, nil)
	yVec = mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		pred.SetVec(i, predMat.At(i, 0))
		yVec.SetVec(i, y.At(i, 0))
	}
	return pred, yVec, nil
}

// sign matches the three-valued sign convention: -1, 0, or +1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	case math.IsNaN(v):
		return math.NaN()
	default:
		return 0
	}
}
