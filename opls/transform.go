package opls

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// Transform removes the learned orthogonal variation from X and returns the
// filtered matrix, in the same units as the locally centered input.
//
// X is centered by its own column means, not the stored training means; this
// per-call centering is deliberate and distinct from OrthogonalTransform,
// which standardizes with the training statistics. Each
// stored orthogonal component is then subtracted as a rank-1 projection, in
// extraction order, mirroring the deflation applied during Fit. The caller's
// X and the stored model state are never mutated.
func (o *OPLS) Transform(X mat.Matrix) (*mat.Dense, error) {
	const op = "OPLS.Transform"

	if !o.state.IsFitted() {
		return nil, errors.NewNotFittedError("OPLS", "Transform")
	}
	fs := o.fit_

	n, m := X.Dims()
	if m != fs.nFeatures {
		return nil, errors.NewDimensionError(op, fs.nFeatures, m, 1)
	}
	if n == 0 {
		return nil, errors.NewValueError(op, "empty feature matrix")
	}
	if !errors.MatrixIsFinite(X, n, m) {
		return nil, errors.NewValueError(op, "X contains NaN or Inf")
	}

	z := centeredCopy(X)

	_, k := fs.wOrtho.Dims()
	s := mat.NewVecDense(n, nil)
	var proj mat.Dense
	for f := 0; f < k; f++ {
		wo := fs.wOrtho.ColView(f)
		po := fs.pOrtho.ColView(f)

		s.MulVec(z, wo)
		s.ScaleVec(1/mat.Dot(wo, wo), s)
		proj.Outer(1, s, po)
		z.Sub(z, &proj)
	}

	return z, nil
}

// FitTransform fits the model on (X, Y) and returns the filtered X. The
// result is identical to calling Fit followed by Transform on the same data.
func (o *OPLS) FitTransform(X, Y mat.Matrix) (*mat.Dense, error) {
	if err := o.Fit(X, Y); err != nil {
		return nil, err
	}
	return o.Transform(X)
}

// Predict returns predictions for X as an n×1 matrix:
// Transform(X)·coef + yMean. The caller's input is not mutated.
func (o *OPLS) Predict(X mat.Matrix) (*mat.Dense, error) {
	if !o.state.IsFitted() {
		return nil, errors.NewNotFittedError("OPLS", "Predict")
	}

	z, err := o.Transform(X)
	if err != nil {
		return nil, err
	}

	n, _ := z.Dims()
	pred := mat.NewDense(n, 1, nil)
	pred.Mul(z, o.fit_.coef)
	for i := 0; i < n; i++ {
		pred.Set(i, 0, pred.At(i, 0)+o.fit_.yMean)
	}

	return pred, nil
}

// PredictProba maps predictions into a soft score via
// 0.5·clip(predict(X), -1, 1) + 1.
//
// This is a reinterpretation of the signed output intended only for ±1 coded
// discriminant use (OPLS-DA); it is not a calibrated probability and is
// meaningless for general regression targets.
func (o *OPLS) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !o.state.IsFitted() {
		return nil, errors.NewNotFittedError("OPLS", "PredictProba")
	}

	pred, err := o.Predict(X)
	if err != nil {
		return nil, err
	}

	n, _ := pred.Dims()
	for i := 0; i < n; i++ {
		pred.Set(i, 0, 0.5*errors.ClipValue(pred.At(i, 0), -1, 1)+1)
	}

	return pred, nil
}

// OrthogonalTransform projects X onto the orthogonal weight directions,
// returning the n×k score matrix of the variation the filter removes.
//
// Unlike Transform, X is standardized with the stored training means and
// scales before projection. Use this to examine exactly what variation was
// excluded from the predictive model.
func (o *OPLS) OrthogonalTransform(X mat.Matrix) (*mat.Dense, error) {
	const op = "OPLS.OrthogonalTransform"

	if !o.state.IsFitted() {
		return nil, errors.NewNotFittedError("OPLS", "OrthogonalTransform")
	}
	fs := o.fit_

	n, m := X.Dims()
	if m != fs.nFeatures {
		return nil, errors.NewDimensionError(op, fs.nFeatures, m, 1)
	}
	if n == 0 {
		return nil, errors.NewValueError(op, "empty feature matrix")
	}
	if !errors.MatrixIsFinite(X, n, m) {
		return nil, errors.NewValueError(op, "X contains NaN or Inf")
	}

	std := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			std.Set(i, j, (X.At(i, j)-fs.xMean[j])/fs.xStd[j])
		}
	}

	_, k := fs.wOrtho.Dims()
	xScores := mat.NewDense(n, k, nil)
	xScores.Mul(std, fs.wOrtho)
	return xScores, nil
}

// OrthogonalTransformXY is OrthogonalTransform with a target: it additionally
// standardizes Y with the training statistics and projects it onto the
// target weight, returning both score sets.
func (o *OPLS) OrthogonalTransformXY(X, Y mat.Matrix) (*mat.Dense, *mat.VecDense, error) {
	const op = "OPLS.OrthogonalTransformXY"

	xScores, err := o.OrthogonalTransform(X)
	if err != nil {
		return nil, nil, err
	}
	fs := o.fit_

	yRows, yCols := Y.Dims()
	if yCols != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, yCols, 1)
	}
	n, _ := X.Dims()
	if yRows != n {
		return nil, nil, errors.NewDimensionError(op, n, yRows, 0)
	}

	yScores := mat.NewVecDense(yRows, nil)
	for i := 0; i < yRows; i++ {
		yScores.SetVec(i, (Y.At(i, 0)-fs.yMean)/fs.yStd*fs.yWeights)
	}

	return xScores, yScores, nil
}
