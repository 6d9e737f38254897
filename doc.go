// Package goopls provides Orthogonal Projection to Latent Structures (O-PLS)
// for Go, a supervised filtering and regression technique for a single
// response variable as described by Trygg and Wold (2002).
//
// O-PLS splits the variation in a feature matrix into a part orthogonal to
// the target (structured noise, removed by filtering) and a part correlated
// with the target, then fits a linear model on the correlated part only. It
// is widely used in chemometrics and metabolomics, both for regression and,
// with ±1 coded targets, for discriminant analysis (OPLS-DA).
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goopls/opls"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 2, []float64{1, 5, 2, 4, 3, 6, 4, 3, 5, 7, 6, 2})
//	    y := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
//
//	    model := opls.New(opls.WithNComponents(1))
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := model.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(pred))
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - opls: the O-PLS estimator (Fit, Transform, Predict, diagnostics)
//   - metrics: scoring functions (R², accuracy, MSE)
//   - core/model: fitted-state management and capability interfaces
//   - pkg/errors: typed errors and warnings
//   - pkg/log: structured logging via zerolog
package goopls
