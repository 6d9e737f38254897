package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// AccuracyScore computes the fraction of predictions that exactly match the
// true labels. Labels are compared as float64 values, so callers thresholding
// continuous predictions should do so before calling.
func AccuracyScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AccuracyScore", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("AccuracyScore", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}
