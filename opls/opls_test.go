package opls

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goopls/core/model"
	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// Six-sample scenario: feature 0 perfectly correlated with Y, feature 1
// arbitrary.
func scenarioData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		1, 5,
		2, 4,
		3, 6,
		4, 3,
		5, 7,
		6, 2,
	})
	Y := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	return X, Y
}

func TestOPLS_EndToEnd(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// With two features and one orthogonal component removed, the remaining
	// variation reconstructs Y exactly.
	if r2Y := model.RSquaredY(); math.Abs(r2Y-1.0) > 1e-8 {
		t.Errorf("RSquaredY = %v, want ~1.0", r2Y)
	}
	if r2X := model.RSquaredX(); math.Abs(r2X-0.533061) > 1e-4 {
		t.Errorf("RSquaredX = %v, want ~0.533061", r2X)
	}

	pred, err := model.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 6; i++ {
		if math.Abs(pred.At(i, 0)-Y.At(i, 0)) > 1e-6 {
			t.Errorf("Predict[%d] = %v, want %v", i, pred.At(i, 0), Y.At(i, 0))
		}
	}

	press, err := model.PRESS(X, Y)
	if err != nil {
		t.Fatalf("PRESS failed: %v", err)
	}
	if press > 1e-8 {
		t.Errorf("PRESS = %v, want ~0", press)
	}
}

func TestOPLS_ShapeInvariants(t *testing.T) {
	X := mat.NewDense(6, 3, []float64{
		1, 5, 2.5,
		2, 4, 1.0,
		3, 6, 3.5,
		4, 3, 2.0,
		5, 7, 4.5,
		6, 2, 1.5,
	})
	Y := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})

	model := New(WithNComponents(2))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	checkDims := func(name string, m mat.Matrix, wantRows, wantCols int) {
		t.Helper()
		r, c := m.Dims()
		if r != wantRows || c != wantCols {
			t.Errorf("%s dims = (%d, %d), want (%d, %d)", name, r, c, wantRows, wantCols)
		}
	}

	checkDims("OrthogonalXWeights", model.OrthogonalXWeights(), 3, 2)
	checkDims("OrthogonalXLoadings", model.OrthogonalXLoadings(), 3, 2)
	checkDims("OrthogonalXScores", model.OrthogonalXScores(), 6, 2)
	checkDims("Coef", model.Coef(), 3, 1)

	if got := model.XWeights().Len(); got != 3 {
		t.Errorf("XWeights length = %d, want 3", got)
	}
	if got := model.XScores().Len(); got != 6 {
		t.Errorf("XScores length = %d, want 6", got)
	}
}

func TestOPLS_RejectsMultiColumnY(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	Y := mat.NewDense(4, 2, []float64{1, 0, 2, 0, 3, 0, 4, 0})

	model := New()
	err := model.Fit(X, Y)
	if err == nil {
		t.Fatal("Fit should reject multi-column Y")
	}

	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("want DimensionError, got %T: %v", err, err)
	}
	if model.IsFitted() {
		t.Error("model must not be fitted after a failed Fit")
	}
}

func TestOPLS_NotFittedErrors(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	y := mat.NewDense(2, 1, []float64{1, 2})
	model := New()

	checks := []struct {
		name string
		call func() error
	}{
		{"Transform", func() error { _, err := model.Transform(X); return err }},
		{"Predict", func() error { _, err := model.Predict(X); return err }},
		{"PredictProba", func() error { _, err := model.PredictProba(X); return err }},
		{"OrthogonalTransform", func() error { _, err := model.OrthogonalTransform(X); return err }},
		{"OrthogonalTransformXY", func() error { _, _, err := model.OrthogonalTransformXY(X, y); return err }},
		{"PRESS", func() error { _, err := model.PRESS(X, y); return err }},
		{"PRESSD", func() error { _, err := model.PRESSD(X, y); return err }},
		{"R2DScore", func() error { _, err := model.R2DScore(X, y); return err }},
		{"DiscriminatorAccuracyScore", func() error { _, err := model.DiscriminatorAccuracyScore(X, y); return err }},
		{"Score", func() error { _, err := model.Score(X, y); return err }},
		{"ExportWeights", func() error { _, err := model.ExportWeights(); return err }},
	}

	for _, tc := range checks {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if err == nil {
				t.Fatalf("%s on unfitted model should fail", tc.name)
			}
			var notFitted *errors.NotFittedError
			if !errors.As(err, &notFitted) {
				t.Errorf("want NotFittedError, got %T: %v", err, err)
			}
		})
	}
}

func TestOPLS_FitTransformIdentity(t *testing.T) {
	X, Y := scenarioData()

	a := New(WithNComponents(1))
	viaFitTransform, err := a.FitTransform(X, Y)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	b := New(WithNComponents(1))
	if err := b.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	viaTransform, err := b.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if !mat.Equal(viaFitTransform, viaTransform) {
		t.Error("FitTransform(X, Y) must equal Fit(X, Y) followed by Transform(X)")
	}
}

func TestOPLS_PredictIdentity(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := model.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	z, err := model.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	var manual mat.Dense
	manual.Mul(z, model.Coef())
	for i := 0; i < 6; i++ {
		want := manual.At(i, 0) + model.YMean()
		if math.Abs(pred.At(i, 0)-want) > 1e-12 {
			t.Errorf("Predict[%d] = %v, want transform·coef + yMean = %v", i, pred.At(i, 0), want)
		}
	}
}

func TestOPLS_ResidualSumSqFormula(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	want := (1 - model.RSquaredY()) * model.SumSqY()
	if got := model.ResidualSumSqY(); math.Abs(got-want) > 1e-10 {
		t.Errorf("ResidualSumSqY = %v, want (1-R²Y)·SumSqY = %v", got, want)
	}
}

func TestOPLS_OrthogonalComponentCapturesNoise(t *testing.T) {
	// Feature 0 tracks Y with a small perturbation; feature 1 is constructed
	// to be exactly uncorrelated with Y. The single orthogonal component
	// should land on feature 1's direction.
	X := mat.NewDense(4, 2, []float64{
		1.01, 1,
		1.99, -1,
		2.99, -1,
		4.01, 1,
	})
	Y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	wOrtho := model.OrthogonalXWeights()
	if math.Abs(wOrtho.At(1, 0)) < 0.99 {
		t.Errorf("orthogonal weight on noise feature = %v, want ~±1", wOrtho.At(1, 0))
	}
	if math.Abs(wOrtho.At(0, 0)) > 0.1 {
		t.Errorf("orthogonal weight on predictive feature = %v, want ~0", wOrtho.At(0, 0))
	}

	press, err := model.PRESS(X, Y)
	if err != nil {
		t.Fatalf("PRESS failed: %v", err)
	}
	if press > 1e-3 {
		t.Errorf("PRESS = %v, want near 0 after filtering", press)
	}
}

func TestOPLS_DegenerateYCompletes(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(func(error) {})

	X, _ := scenarioData()
	Y := mat.NewDense(6, 1, []float64{2, 2, 2, 2, 2, 2})

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit on zero-variance Y must complete, got: %v", err)
	}
	if !model.IsFitted() {
		t.Fatal("model should be fitted")
	}

	// The zero-variance target makes every denominator in the extraction
	// loop zero; the fitted state is numerically meaningless by design.
	if r2Y := model.RSquaredY(); !math.IsNaN(r2Y) {
		t.Errorf("RSquaredY = %v, want NaN for a zero-variance target", r2Y)
	}
	if warned == nil {
		t.Error("expected a DegenerateComponentWarning")
	} else {
		var degenerate *errors.DegenerateComponentWarning
		if !errors.As(warned, &degenerate) {
			t.Errorf("want DegenerateComponentWarning, got %T", warned)
		}
	}
}

func TestOPLS_CopyContract(t *testing.T) {
	t.Run("copy enabled leaves input untouched", func(t *testing.T) {
		X, Y := scenarioData()
		orig := mat.DenseCopyOf(X)

		model := New(WithNComponents(1), WithCopy(true))
		if err := model.Fit(X, Y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		if !mat.Equal(X, orig) {
			t.Error("Fit with copy enabled must not mutate the caller's X")
		}
	})

	t.Run("copy disabled centers input in place", func(t *testing.T) {
		X, Y := scenarioData()
		orig := mat.DenseCopyOf(X)

		model := New(WithNComponents(1), WithCopy(false))
		if err := model.Fit(X, Y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		if mat.Equal(X, orig) {
			t.Error("Fit with copy disabled should center and scale the caller's X in place")
		}
	})
}

func TestOPLS_Refit(t *testing.T) {
	X, Y := scenarioData()
	X2 := mat.NewDense(4, 2, []float64{
		1.01, 1,
		1.99, -1,
		2.99, -1,
		4.01, 1,
	})
	Y2 := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	refitted := New(WithNComponents(1))
	if err := refitted.Fit(X, Y); err != nil {
		t.Fatalf("first Fit failed: %v", err)
	}
	if err := refitted.Fit(X2, Y2); err != nil {
		t.Fatalf("second Fit failed: %v", err)
	}

	fresh := New(WithNComponents(1))
	if err := fresh.Fit(X2, Y2); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	predRefitted, err := refitted.Predict(X2)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	predFresh, err := fresh.Predict(X2)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if !mat.Equal(predRefitted, predFresh) {
		t.Error("a second Fit must fully replace the fitted state")
	}
}

func TestOPLS_SetParamsAfterFit(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	err := model.SetParams(map[string]interface{}{"n_components": 3})
	if err == nil {
		t.Fatal("SetParams on a fitted model should fail")
	}
	var validation *errors.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("want ValidationError, got %T: %v", err, err)
	}
}

func TestOPLS_InvalidNComponents(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(0))
	err := model.Fit(X, Y)
	if err == nil {
		t.Fatal("Fit with n_components=0 should fail")
	}
	var validation *errors.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("want ValidationError, got %T: %v", err, err)
	}
}

func TestOPLS_OrthogonalTransform(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	xScores, err := model.OrthogonalTransform(X)
	if err != nil {
		t.Fatalf("OrthogonalTransform failed: %v", err)
	}
	r, c := xScores.Dims()
	if r != 6 || c != 1 {
		t.Errorf("xScores dims = (%d, %d), want (6, 1)", r, c)
	}

	xScores2, yScores, err := model.OrthogonalTransformXY(X, Y)
	if err != nil {
		t.Fatalf("OrthogonalTransformXY failed: %v", err)
	}
	if !mat.Equal(xScores, xScores2) {
		t.Error("x-scores must not depend on whether Y is supplied")
	}
	if yScores.Len() != 6 {
		t.Errorf("yScores length = %d, want 6", yScores.Len())
	}

	// y-scores are the standardized target projected onto the target weight.
	for i := 0; i < 6; i++ {
		want := (Y.At(i, 0) - model.YMean()) / model.YStd() * model.YWeights()
		if math.Abs(yScores.AtVec(i)-want) > 1e-12 {
			t.Errorf("yScores[%d] = %v, want %v", i, yScores.AtVec(i), want)
		}
	}
}

func TestOPLS_TransformRejectsWrongWidth(t *testing.T) {
	X, Y := scenarioData()

	model := New(WithNComponents(1))
	if err := model.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	bad := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if _, err := model.Transform(bad); err == nil {
		t.Error("Transform should reject a feature-count mismatch")
	}
	if _, err := model.Predict(bad); err == nil {
		t.Error("Predict should reject a feature-count mismatch")
	}
}

func TestOPLS_ExportImportRoundTrip(t *testing.T) {
	X, Y := scenarioData()

	trained := New(WithNComponents(1))
	if err := trained.Fit(X, Y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	weights, err := trained.ExportWeights()
	if err != nil {
		t.Fatalf("ExportWeights failed: %v", err)
	}

	// Serialize through JSON to exercise the same path as persistence.
	data, err := weights.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	restored := &model.ModelWeights{}
	if err := restored.FromJSON(data); err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	imported := New()
	if err := imported.ImportWeights(restored); err != nil {
		t.Fatalf("ImportWeights failed: %v", err)
	}

	predOrig, err := trained.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	predImported, err := imported.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if !mat.Equal(predOrig, predImported) {
		t.Error("imported model must reproduce predictions exactly")
	}
}
