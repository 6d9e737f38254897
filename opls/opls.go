// Package opls implements Orthogonal Projection to Latent Structures (O-PLS)
// for a single response variable, as described in Trygg and Wold,
// "Orthogonal projections to latent structures (O-PLS)", J. Chemometrics
// 2002; 16:119-128.
//
// O-PLS separates the variation in X into a part orthogonal to y (removed by
// filtering) and a part correlated with y, then fits a one-component PLS
// model on the correlated part. With ±1 coded targets this yields OPLS-DA.
// The effectiveness of the filtering can be judged from a plot of a column
// of the orthogonal X scores against the predictive X scores: class
// separation should appear along the horizontal (predictive) axis only.
package opls

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goopls/core/model"
	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// OPLS is the O-PLS estimator. The zero value is not usable; construct with
// New. Hyperparameters are fixed after Fit.
//
// A fitted OPLS is safe for concurrent read-only use (Transform, Predict,
// diagnostics). Concurrent Fit calls on the same instance must be serialized
// by the caller.
type OPLS struct {
	state *model.StateManager

	// Hyperparameters
	nComponents int  // number of orthogonal components to filter
	scale       bool // divide by column standard deviations (ddof=1)
	copyX       bool // work on copies of the caller's X and Y

	version string

	// Learned parameters, nil until Fit succeeds. Assigned in a single
	// statement so a failed Fit never leaves partial state behind.
	fit_ *fitState
}

// fitState carries everything learned by a successful Fit. It is immutable
// once stored.
type fitState struct {
	// Orthogonal components, one column per component in extraction order.
	wOrtho *mat.Dense // orthogonal X weights, m×k
	pOrtho *mat.Dense // orthogonal X loadings, m×k
	tOrtho *mat.Dense // orthogonal X scores, n×k

	// The single predictive component.
	xWeights  *mat.VecDense // w, m
	xLoadings *mat.VecDense // p, m
	xScores   *mat.VecDense // t, n
	yScores   *mat.VecDense // u, n
	yWeights  float64       // c (scalar: single-column y)
	b         float64       // inner-relation coefficient

	// Coefficients in the original mean-centered feature space.
	coef *mat.Dense // m×1

	// Centering/scaling statistics.
	xMean []float64
	xStd  []float64
	yMean float64
	yStd  float64
	yMin  float64 // of the processed training target, for clipped PRESS
	yMax  float64

	// Fit-quality statistics.
	sumSqX         float64
	sumSqY         float64
	rSquaredX      float64
	rSquaredY      float64
	residualSumSqY float64

	nFeatures int
}

// Option configures an OPLS estimator at construction time.
type Option func(*OPLS)

// WithNComponents sets the number of orthogonal components to filter
// (default 5).
func WithNComponents(n int) Option {
	return func(o *OPLS) {
		o.nComponents = n
	}
}

// WithScale sets whether columns are scaled to unit variance in addition to
// centering (default true). Scaling uses the sample standard deviation
// (denominator n-1); zero-variance columns keep scale 1.
func WithScale(scale bool) Option {
	return func(o *OPLS) {
		o.scale = scale
	}
}

// WithCopy sets whether Fit works on copies of the caller's X and Y
// (default true). With copy disabled and *mat.Dense inputs, Fit centers and
// scales the caller's buffers in place.
func WithCopy(copy bool) Option {
	return func(o *OPLS) {
		o.copyX = copy
	}
}

// New creates an OPLS estimator with the given options.
func New(options ...Option) *OPLS {
	o := &OPLS{
		state:       model.NewStateManager(),
		nComponents: 5,
		scale:       true,
		copyX:       true,
		version:     "1.0.0",
	}

	for _, opt := range options {
		opt(o)
	}

	return o
}

// Interface conformance.
var (
	_ model.Fitter          = (*OPLS)(nil)
	_ model.Transformer     = (*OPLS)(nil)
	_ model.Predictor       = (*OPLS)(nil)
	_ model.Scorer          = (*OPLS)(nil)
	_ model.WeightsExporter = (*OPLS)(nil)
)

// IsFitted returns whether the model has been fitted.
func (o *OPLS) IsFitted() bool {
	return o.state.IsFitted()
}

// NComponents returns the configured number of orthogonal components.
func (o *OPLS) NComponents() int {
	return o.nComponents
}

// GetParams returns the model's hyperparameters.
func (o *OPLS) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": o.nComponents,
		"scale":        o.scale,
		"copy":         o.copyX,
	}
}

// SetParams sets the model's hyperparameters. Calling SetParams on a fitted
// model returns a ValidationError: hyperparameters are immutable after Fit.
func (o *OPLS) SetParams(params map[string]interface{}) error {
	if o.state.IsFitted() {
		return errors.NewValidationError("params", "cannot change hyperparameters of a fitted model", params)
	}

	switch v := params["n_components"].(type) {
	case int:
		o.nComponents = v
	case float64:
		// JSON round-trips deliver numbers as float64.
		o.nComponents = int(v)
	}
	if v, ok := params["scale"].(bool); ok {
		o.scale = v
	}
	if v, ok := params["copy"].(bool); ok {
		o.copyX = v
	}

	return nil
}

// String returns the string representation of the model.
func (o *OPLS) String() string {
	if !o.state.IsFitted() {
		return fmt.Sprintf("OPLS(n_components=%d, scale=%t, copy=%t)",
			o.nComponents, o.scale, o.copyX)
	}
	return fmt.Sprintf("OPLS(n_components=%d, n_features=%d, fitted=true)",
		o.nComponents, o.fit_.nFeatures)
}

// Coef returns the learned coefficient vector as an m×1 matrix, defined in
// the original mean-centered feature space. Returns nil if not fitted.
func (o *OPLS) Coef() *mat.Dense {
	if o.fit_ == nil {
		return nil
	}
	return mat.DenseCopyOf(o.fit_.coef)
}

// XWeights returns the predictive weight vector w. Returns nil if not fitted.
func (o *OPLS) XWeights() *mat.VecDense {
	if o.fit_ == nil {
		return nil
	}
	return mat.VecDenseCopyOf(o.fit_.xWeights)
}

// XLoadings returns the predictive loading vector p. Returns nil if not
// fitted.
func (o *OPLS) XLoadings() *mat.VecDense {
	if o.fit_ == nil {
		return nil
	}
	return mat.VecDenseCopyOf(o.fit_.xLoadings)
}

// XScores returns the predictive score vector t. Returns nil if not fitted.
func (o *OPLS) XScores() *mat.VecDense {
	if o.fit_ == nil {
		return nil
	}
	return mat.VecDenseCopyOf(o.fit_.xScores)
}

// YScores returns the target score vector u. Returns nil if not fitted.
func (o *OPLS) YScores() *mat.VecDense {
	if o.fit_ == nil {
		return nil
	}
	return mat.VecDenseCopyOf(o.fit_.yScores)
}

// YWeights returns the target weight c, a scalar because only single-column
// targets are supported. Returns 0 if not fitted.
func (o *OPLS) YWeights() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.yWeights
}

// B returns the inner-relation coefficient relating target scores to
// predictive scores. Returns 0 if not fitted.
func (o *OPLS) B() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.b
}

// OrthogonalXWeights returns the orthogonal weight matrix, one column per
// extracted component in extraction order. Returns nil if not fitted.
func (o *OPLS) OrthogonalXWeights() *mat.Dense {
	if o.fit_ == nil {
		return nil
	}
	return mat.DenseCopyOf(o.fit_.wOrtho)
}

// OrthogonalXLoadings returns the orthogonal loading matrix. Returns nil if
// not fitted.
func (o *OPLS) OrthogonalXLoadings() *mat.Dense {
	if o.fit_ == nil {
		return nil
	}
	return mat.DenseCopyOf(o.fit_.pOrtho)
}

// OrthogonalXScores returns the orthogonal score matrix recorded during fit.
// Returns nil if not fitted.
func (o *OPLS) OrthogonalXScores() *mat.Dense {
	if o.fit_ == nil {
		return nil
	}
	return mat.DenseCopyOf(o.fit_.tOrtho)
}

// XMean returns the per-feature training means. Returns nil if not fitted.
func (o *OPLS) XMean() []float64 {
	if o.fit_ == nil {
		return nil
	}
	out := make([]float64, len(o.fit_.xMean))
	copy(out, o.fit_.xMean)
	return out
}

// XStd returns the per-feature training standard deviations (all 1 when
// scaling is disabled). Returns nil if not fitted.
func (o *OPLS) XStd() []float64 {
	if o.fit_ == nil {
		return nil
	}
	out := make([]float64, len(o.fit_.xStd))
	copy(out, o.fit_.xStd)
	return out
}

// YMean returns the training target mean. Returns 0 if not fitted.
func (o *OPLS) YMean() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.yMean
}

// YStd returns the training target standard deviation (1 when scaling is
// disabled or the target has zero variance). Returns 0 if not fitted.
func (o *OPLS) YStd() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.yStd
}

// SumSqX returns the total sum of squares of the processed training X.
// Returns 0 if not fitted.
func (o *OPLS) SumSqX() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.sumSqX
}

// SumSqY returns the total sum of squares of the processed training target.
// Returns 0 if not fitted.
func (o *OPLS) SumSqY() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.sumSqY
}

// RSquaredX returns the fraction of X variation explained by the predictive
// component. In a well-filtered O-PLS model this is small: most X variation
// was orthogonal to the target and has been removed. Returns 0 if not
// fitted.
func (o *OPLS) RSquaredX() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.rSquaredX
}

// RSquaredY returns the fraction of target variation explained by the model.
// The formula does not bound this to [0, 1] for pathological data. If the
// processed target has zero variance the value is degenerate (±Inf or NaN)
// but Fit still completes. Returns 0 if not fitted.
func (o *OPLS) RSquaredY() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.rSquaredY
}

// ResidualSumSqY returns (1 - R²Y) · SumSqY, the residual sum of squares of
// the training target. Returns 0 if not fitted.
func (o *OPLS) ResidualSumSqY() float64 {
	if o.fit_ == nil {
		return 0
	}
	return o.fit_.residualSumSqY
}
