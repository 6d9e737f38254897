package opls

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goopls/core/model"
	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// ExportWeights exports the fitted parameters for serialization. The export
// carries everything needed to reproduce predictions exactly.
func (o *OPLS) ExportWeights() (*model.ModelWeights, error) {
	if !o.state.IsFitted() {
		return nil, errors.NewNotFittedError("OPLS", "ExportWeights")
	}
	fs := o.fit_

	m := fs.nFeatures
	coef := make([]float64, m)
	mat.Col(coef, 0, fs.coef)

	nFeatures, nSamples := o.state.GetDimensions()
	weights := &model.ModelWeights{
		ModelType:    "OPLS",
		Version:      o.version,
		Coefficients: coef,
		Intercept:    fs.yMean,
		IsFitted:     true,
		Matrices: map[string]*model.MatrixWeights{
			"orthogonal_x_weights":  denseWeights(fs.wOrtho),
			"orthogonal_x_loadings": denseWeights(fs.pOrtho),
			"orthogonal_x_scores":   denseWeights(fs.tOrtho),
			"x_weights":             vecWeights(fs.xWeights),
			"x_loadings":            vecWeights(fs.xLoadings),
			"x_scores":              vecWeights(fs.xScores),
			"y_scores":              vecWeights(fs.yScores),
			"x_mean":                sliceWeights(fs.xMean),
			"x_std":                 sliceWeights(fs.xStd),
		},
		Hyperparameters: o.GetParams(),
		Metadata: map[string]interface{}{
			"y_weights":         fs.yWeights,
			"b":                 fs.b,
			"y_mean":            fs.yMean,
			"y_std":             fs.yStd,
			"y_min":             fs.yMin,
			"y_max":             fs.yMax,
			"sum_sq_x":          fs.sumSqX,
			"sum_sq_y":          fs.sumSqY,
			"r_squared_x":       fs.rSquaredX,
			"r_squared_y":       fs.rSquaredY,
			"residual_sum_sq_y": fs.residualSumSqY,
			"n_features":        nFeatures,
			"n_samples":         nSamples,
		},
	}

	data, _ := json.Marshal(weights.Coefficients)
	hash := sha256.Sum256(data)
	weights.Metadata["checksum"] = hex.EncodeToString(hash[:])

	return weights, nil
}

// ImportWeights restores fitted parameters from an export, making the model
// usable for Transform and Predict without refitting.
func (o *OPLS) ImportWeights(weights *model.ModelWeights) error {
	const op = "OPLS.ImportWeights"

	if weights == nil {
		return errors.NewValueError(op, "weights cannot be nil")
	}
	if weights.ModelType != "OPLS" {
		return errors.NewValueError(op, "model type mismatch: expected OPLS, got "+weights.ModelType)
	}
	if err := weights.Validate(); err != nil {
		return errors.Wrap(err, "goopls: "+op)
	}

	if checksumStr, ok := weights.Metadata["checksum"].(string); ok {
		data, _ := json.Marshal(weights.Coefficients)
		hash := sha256.Sum256(data)
		if checksumStr != hex.EncodeToString(hash[:]) {
			return errors.NewValueError(op, "checksum mismatch: weights may be corrupted")
		}
	}

	if err := o.SetParams(weights.Hyperparameters); err != nil {
		return err
	}

	wOrtho, err := weightsDense(weights, "orthogonal_x_weights")
	if err != nil {
		return err
	}
	pOrtho, err := weightsDense(weights, "orthogonal_x_loadings")
	if err != nil {
		return err
	}
	tOrtho, err := weightsDense(weights, "orthogonal_x_scores")
	if err != nil {
		return err
	}
	xWeights, err := weightsVec(weights, "x_weights")
	if err != nil {
		return err
	}
	xLoadings, err := weightsVec(weights, "x_loadings")
	if err != nil {
		return err
	}
	xScores, err := weightsVec(weights, "x_scores")
	if err != nil {
		return err
	}
	yScores, err := weightsVec(weights, "y_scores")
	if err != nil {
		return err
	}
	xMean, err := weightsSlice(weights, "x_mean")
	if err != nil {
		return err
	}
	xStd, err := weightsSlice(weights, "x_std")
	if err != nil {
		return err
	}

	m := len(weights.Coefficients)
	coefData := make([]float64, m)
	copy(coefData, weights.Coefficients)

	o.fit_ = &fitState{
		wOrtho:         wOrtho,
		pOrtho:         pOrtho,
		tOrtho:         tOrtho,
		xWeights:       xWeights,
		xLoadings:      xLoadings,
		xScores:        xScores,
		yScores:        yScores,
		yWeights:       metaFloat(weights.Metadata, "y_weights"),
		b:              metaFloat(weights.Metadata, "b"),
		coef:           mat.NewDense(m, 1, coefData),
		xMean:          xMean,
		xStd:           xStd,
		yMean:          metaFloat(weights.Metadata, "y_mean"),
		yStd:           metaFloat(weights.Metadata, "y_std"),
		yMin:           metaFloat(weights.Metadata, "y_min"),
		yMax:           metaFloat(weights.Metadata, "y_max"),
		sumSqX:         metaFloat(weights.Metadata, "sum_sq_x"),
		sumSqY:         metaFloat(weights.Metadata, "sum_sq_y"),
		rSquaredX:      metaFloat(weights.Metadata, "r_squared_x"),
		rSquaredY:      metaFloat(weights.Metadata, "r_squared_y"),
		residualSumSqY: metaFloat(weights.Metadata, "residual_sum_sq_y"),
		nFeatures:      m,
	}

	nRows, _ := tOrtho.Dims()
	o.state.SetFitted()
	o.state.SetDimensions(m, nRows)
	return nil
}

func denseWeights(d *mat.Dense) *model.MatrixWeights {
	r, c := d.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = d.At(i, j)
		}
	}
	return &model.MatrixWeights{Rows: r, Cols: c, Data: data}
}

func vecWeights(v *mat.VecDense) *model.MatrixWeights {
	n := v.Len()
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = v.AtVec(i)
	}
	return &model.MatrixWeights{Rows: n, Cols: 1, Data: data}
}

func sliceWeights(s []float64) *model.MatrixWeights {
	data := make([]float64, len(s))
	copy(data, s)
	return &model.MatrixWeights{Rows: 1, Cols: len(s), Data: data}
}

func weightsDense(w *model.ModelWeights, name string) (*mat.Dense, error) {
	mw, ok := w.Matrices[name]
	if !ok {
		return nil, errors.NewValueError("OPLS.ImportWeights", "missing matrix "+name)
	}
	data := make([]float64, len(mw.Data))
	copy(data, mw.Data)
	return mat.NewDense(mw.Rows, mw.Cols, data), nil
}

func weightsVec(w *model.ModelWeights, name string) (*mat.VecDense, error) {
	mw, ok := w.Matrices[name]
	if !ok {
		return nil, errors.NewValueError("OPLS.ImportWeights", "missing matrix "+name)
	}
	data := make([]float64, len(mw.Data))
	copy(data, mw.Data)
	return mat.NewVecDense(mw.Rows, data), nil
}

func weightsSlice(w *model.ModelWeights, name string) ([]float64, error) {
	mw, ok := w.Matrices[name]
	if !ok {
		return nil, errors.NewValueError("OPLS.ImportWeights", "missing matrix "+name)
	}
	data := make([]float64, len(mw.Data))
	copy(data, mw.Data)
	return data, nil
}

// metaFloat reads a numeric metadata entry, tolerating the float64 values
// produced by JSON round-trips.
func metaFloat(metadata map[string]interface{}, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
