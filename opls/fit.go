package opls

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goopls/pkg/errors"
	"github.com/YuminosukeSato/goopls/pkg/log"
)

// Fit learns the orthogonal filter and the predictive component from X
// (n_samples × n_features) and Y (n_samples × 1).
//
// Only a single response column is supported; a wider Y is rejected with a
// DimensionError before any computation. On success all fitted attributes
// are replaced atomically; on failure no partial state becomes visible.
//
// Zero-norm directions or zero denominators inside the extraction loop (for
// example a target with zero variance) do not abort the fit: NaN/Inf
// propagate into the fitted state and a DegenerateComponentWarning is raised
// through pkg/errors.Warn.
func (o *OPLS) Fit(X, Y mat.Matrix) error {
	const op = "OPLS.Fit"
	start := time.Now()

	if o.nComponents < 1 {
		return errors.NewValidationError("n_components", "must be a positive integer", o.nComponents)
	}

	n, m := X.Dims()
	if n == 0 || m == 0 {
		return errors.NewValueError(op, "empty feature matrix")
	}

	yRows, yCols := Y.Dims()
	if yCols != 1 {
		// Multiple responses are not supported: Y must be (n_samples, 1).
		return errors.NewDimensionError(op, 1, yCols, 1)
	}
	if yRows != n {
		return errors.NewDimensionError(op, n, yRows, 0)
	}

	if !errors.MatrixIsFinite(X, n, m) {
		return errors.NewValueError(op, "X contains NaN or Inf")
	}
	if !errors.MatrixIsFinite(Y, n, 1) {
		return errors.NewValueError(op, "Y contains NaN or Inf")
	}

	// Ownership contract: with copy enabled Fit works on private copies;
	// with copy disabled and *mat.Dense inputs the caller's buffers are
	// centered and scaled in place.
	Xw := workingDense(X, o.copyX)
	Yw := workingDense(Y, o.copyX)

	xMean, xStd, yMean, yStd := centerScaleXY(Xw, Yw, o.scale)
	yMin := mat.Min(Yw)
	yMax := mat.Max(Yw)

	// Working residuals are always private: deflation must never reach the
	// caller's buffers, even with copy disabled.
	Xres := centeredCopy(Xw)
	yRes := centeredColumn(Yw)

	ssY := mat.Dot(yRes, yRes)
	frob := mat.Norm(Xres, 2)
	ssX := frob * frob

	k := o.nComponents
	wOrtho := mat.NewDense(m, k, nil)
	pOrtho := mat.NewDense(m, k, nil)
	tOrtho := mat.NewDense(n, k, nil)

	w := mat.NewVecDense(m, nil)
	t := mat.NewVecDense(n, nil)
	p := mat.NewVecDense(m, nil)
	wo := mat.NewVecDense(m, nil)
	to := mat.NewVecDense(n, nil)
	po := mat.NewVecDense(m, nil)
	var deflate mat.Dense

	for i := 0; i < k; i++ {
		// PLS weight: direction in feature space most covariant with the
		// target, unit length.
		w.MulVec(Xres.T(), yRes)
		warnIfZero(op, i, mat.Dot(yRes, yRes), "target residual norm")
		w.ScaleVec(1/mat.Dot(yRes, yRes), w)
		wNorm := mat.Norm(w, 2)
		warnIfZero(op, i, wNorm, "PLS weight norm")
		w.ScaleVec(1/wNorm, w)

		// Score and loading along w.
		t.MulVec(Xres, w)
		t.ScaleVec(1/mat.Dot(w, w), t)
		tt := mat.Dot(t, t)
		warnIfZero(op, i, tt, "score norm")
		p.MulVec(Xres.T(), t)
		p.ScaleVec(1/tt, p)

		// Orthogonal direction: the part of p not projecting onto w,
		// renormalized.
		wo.AddScaledVec(p, -mat.Dot(w, p)/mat.Dot(w, w), w)
		woNorm := mat.Norm(wo, 2)
		warnIfZero(op, i, woNorm, "orthogonal weight norm")
		wo.ScaleVec(1/woNorm, wo)

		to.MulVec(Xres, wo)
		to.ScaleVec(1/mat.Dot(wo, wo), to)
		toto := mat.Dot(to, to)
		warnIfZero(op, i, toto, "orthogonal score norm")
		po.MulVec(Xres.T(), to)
		po.ScaleVec(1/toto, po)

		// Deflate the working residual by the rank-1 orthogonal part.
		deflate.Outer(1, to, po)
		Xres.Sub(Xres, &deflate)

		setCol(wOrtho, i, wo)
		setCol(pOrtho, i, po)
		setCol(tOrtho, i, to)
	}

	// Terminal PLS step on the fully deflated residual: the single
	// predictive component.
	w.MulVec(Xres.T(), yRes)
	warnIfZero(op, k, mat.Dot(yRes, yRes), "target residual norm")
	w.ScaleVec(1/mat.Dot(yRes, yRes), w)
	wNorm := mat.Norm(w, 2)
	warnIfZero(op, k, wNorm, "PLS weight norm")
	w.ScaleVec(1/wNorm, w)

	t.MulVec(Xres, w)
	t.ScaleVec(1/mat.Dot(w, w), t)
	tt := mat.Dot(t, t)
	warnIfZero(op, k, tt, "score norm")

	// Scalar target weight; valid only because Y is single-column.
	c := mat.Dot(t, yRes) / tt
	warnIfZero(op, k, c, "target weight")

	u := mat.NewVecDense(n, nil)
	u.ScaleVec(c/(c*c), yRes)

	p.MulVec(Xres.T(), t)
	p.ScaleVec(1/tt, p)

	b := (1 / tt) * mat.Dot(u, t)

	// Back-transform into the original mean-centered feature space:
	// W* = w / (pᵀw), coef = W* · b · c.
	pw := mat.Dot(p, w)
	warnIfZero(op, k, pw, "loading-weight inner product")
	coefVec := mat.NewVecDense(m, nil)
	coefVec.ScaleVec(b*c/pw, w)
	coef := mat.NewDense(m, 1, nil)
	coef.SetCol(0, vecData(coefVec))

	rSquaredX := tt * mat.Dot(p, p) / ssX
	rSquaredY := tt * b * b * c * c / ssY
	residualSumSqY := -1 * (rSquaredY - 1) * ssY

	o.fit_ = &fitState{
		wOrtho:         wOrtho,
		pOrtho:         pOrtho,
		tOrtho:         tOrtho,
		xWeights:       mat.VecDenseCopyOf(w),
		xLoadings:      mat.VecDenseCopyOf(p),
		xScores:        mat.VecDenseCopyOf(t),
		yScores:        u,
		yWeights:       c,
		b:              b,
		coef:           coef,
		xMean:          xMean,
		xStd:           xStd,
		yMean:          yMean,
		yStd:           yStd,
		yMin:           yMin,
		yMax:           yMax,
		sumSqX:         ssX,
		sumSqY:         ssY,
		rSquaredX:      rSquaredX,
		rSquaredY:      rSquaredY,
		residualSumSqY: residualSumSqY,
		nFeatures:      m,
	}
	o.state.SetFitted()
	o.state.SetDimensions(m, n)

	logger := log.NewLogger("opls")
	logger.Debug().
		Int("n_samples", n).
		Int("n_features", m).
		Int("n_components", k).
		Float64("r_squared_x", rSquaredX).
		Float64("r_squared_y", rSquaredY).
		Dur("duration", time.Since(start)).
		Msg("fit complete")

	return nil
}

// workingDense returns m as a *mat.Dense, copying unless copying is disabled
// and m already is a *mat.Dense the caller has handed over for mutation.
func workingDense(m mat.Matrix, copy bool) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok && !copy {
		return d
	}
	return mat.DenseCopyOf(m)
}

// centerScaleXY centers X and Y in place and, if scale is set, divides each
// column by its sample standard deviation (denominator n-1). Zero-variance
// columns keep scale 1 so the division is a no-op instead of producing NaN.
// Returns the means and scales for reuse at apply time.
func centerScaleXY(X, Y *mat.Dense, scale bool) (xMean, xStd []float64, yMean, yStd float64) {
	n, m := X.Dims()
	xMean = make([]float64, m)
	xStd = make([]float64, m)
	col := make([]float64, n)

	for j := 0; j < m; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		if !scale || std == 0 {
			std = 1.0
		}
		xMean[j] = mean
		xStd[j] = std
		for i := 0; i < n; i++ {
			X.Set(i, j, (X.At(i, j)-mean)/std)
		}
	}

	mat.Col(col, 0, Y)
	yMean, yStd = stat.MeanStdDev(col, nil)
	if !scale || yStd == 0 {
		yStd = 1.0
	}
	for i := 0; i < n; i++ {
		Y.Set(i, 0, (Y.At(i, 0)-yMean)/yStd)
	}

	return xMean, xStd, yMean, yStd
}

// centeredCopy returns a copy of X with its own column means subtracted.
func centeredCopy(X mat.Matrix) *mat.Dense {
	n, m := X.Dims()
	out := mat.DenseCopyOf(X)
	col := make([]float64, n)
	for j := 0; j < m; j++ {
		mat.Col(col, j, out)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			out.Set(i, j, out.At(i, j)-mean)
		}
	}
	return out
}

// centeredColumn extracts column 0 of Y and subtracts its mean.
func centeredColumn(Y mat.Matrix) *mat.VecDense {
	n, _ := Y.Dims()
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = Y.At(i, 0)
	}
	mean := stat.Mean(data, nil)
	for i := range data {
		data[i] -= mean
	}
	return mat.NewVecDense(n, data)
}

// warnIfZero raises a DegenerateComponentWarning when a denominator or norm
// about to be divided by is exactly zero. The computation continues and lets
// NaN/Inf propagate; the warning makes the degeneracy observable.
func warnIfZero(op string, component int, denom float64, what string) {
	if denom == 0 {
		errors.Warn(errors.NewDegenerateComponentWarning(op, component, what+" is zero"))
	}
}

func setCol(dst *mat.Dense, j int, v *mat.VecDense) {
	dst.SetCol(j, vecData(v))
}

func vecData(v *mat.VecDense) []float64 {
	raw := v.RawVector()
	if raw.Inc == 1 {
		return raw.Data
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
