// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	moremath "github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/mat"
)

// CurveFit fits a least-squares polynomial to the data and scores it
// against a reference curve.
//
// The x coordinates come from the xaxis option, or are 0..N-1 if it
// is unset. Fitting a polynomial of degree d needs at least d+1
// values.
//
// The quality of the fit against a reference curve R is
//
//	sum((fit_R(x) - fit(x))^2) / mean(data)
//
// where fit_R is R fitted at the same degree. Lower is closer to the
// reference. The quality is only non-negative for data with a positive
// mean; data with a negative mean gives a negative quality. The quality result is derived from the optimal option
// each time it is read, so changing the reference does not require
// another Execute.
//
// Results are poly (coefficients, highest degree first), fitted (the
// fitted curve at each x), degree and quality.
type CurveFit struct {
	base
	degree  int
	xaxis   []float64
	optimal []float64

	x      []float64
	poly   []float64
	fitted []float64
}

// NewCurveFit returns a linear fit.
func NewCurveFit() *CurveFit {
	return &CurveFit{degree: 1}
}

func (f *CurveFit) Kind() Kind { return KindFit }

func (f *CurveFit) Configure(opts Options) error {
	for key, v := range opts {
		switch key {
		case "degree":
			d, err := optInt(key, v)
			if err != nil {
				return err
			}
			if d < 1 {
				return configErrorf("degree must be at least 1, got %d", d)
			}
			f.degree = d
		case "xaxis", "optimal":
			vs, err := optFloats(key, v)
			if err != nil {
				return err
			}
			if key == "xaxis" {
				f.xaxis = vs
			} else {
				f.optimal = vs
			}
		default:
			return configErrorf("unknown fit option %q", key)
		}
	}
	return nil
}

func (f *CurveFit) SetOption(key string, value interface{}) error {
	return f.Configure(Options{key: value})
}

func (f *CurveFit) SetData(values []float64) error {
	if err := f.setData(values); err != nil {
		return err
	}
	f.x, f.poly, f.fitted = nil, nil, nil
	return nil
}

func (f *CurveFit) Execute() error {
	if err := f.checkData("fit"); err != nil {
		return err
	}
	x := f.xaxis
	if x == nil {
		x = make([]float64, len(f.data))
		for i := range x {
			x[i] = float64(i)
		}
	} else if len(x) != len(f.data) {
		return dataErrorf("x axis has %d values but data has %d", len(x), len(f.data))
	}
	poly, err := polyfit(x, f.data, f.degree)
	if err != nil {
		return err
	}
	f.x, f.poly = x, poly
	f.fitted = make([]float64, len(x))
	for i, xi := range x {
		f.fitted[i] = polyval(poly, xi)
	}
	f.done = true
	return nil
}

// Poly returns the fitted coefficients, highest degree first.
func (f *CurveFit) Poly() []float64 { return f.poly }

// Fitted returns the fitted curve evaluated at each x coordinate.
func (f *CurveFit) Fitted() []float64 { return f.fitted }

// Quality scores the fit against reference, which must have one value
// per data point. See the type documentation for the formula.
func (f *CurveFit) Quality(reference []float64) (float64, error) {
	if !f.done {
		return 0, fmt.Errorf("%w: fit: quality requested before Execute", ErrState)
	}
	if len(reference) != len(f.x) {
		return 0, dataErrorf("reference has %d values but data has %d", len(reference), len(f.x))
	}
	mean := moremath.Mean(f.data)
	if mean == 0 {
		return 0, dataErrorf("cannot score fit of data with zero mean")
	}
	ref, err := polyfit(f.x, reference, f.degree)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i, xi := range f.x {
		d := polyval(ref, xi) - f.fitted[i]
		sum += d * d
	}
	return sum / mean, nil
}

func (f *CurveFit) Get(key string) (interface{}, bool) {
	switch key {
	case "degree":
		return f.degree, true
	case "xaxis":
		return f.xaxis, f.xaxis != nil
	case "optimal":
		return f.optimal, f.optimal != nil
	}
	if !f.done {
		return nil, false
	}
	switch key {
	case "poly":
		return f.poly, true
	case "fitted":
		return f.fitted, true
	case "quality":
		if f.optimal == nil {
			return nil, false
		}
		q, err := f.Quality(f.optimal)
		if err != nil {
			return nil, false
		}
		return q, true
	}
	return nil, false
}

func (f *CurveFit) String() string {
	s := fmt.Sprintf("fit(degree=%d)", f.degree)
	if !f.done {
		return s
	}
	var terms []string
	for _, c := range f.poly {
		terms = append(terms, fmt.Sprintf("%.6g", c))
	}
	s += ": [" + strings.Join(terms, " ") + "]"
	if q, ok := f.Get("quality"); ok {
		s += fmt.Sprintf(" quality %.6g", q)
	}
	return s
}

// polyfit returns the least-squares polynomial of the given degree
// through (x, y), highest degree coefficient first.
func polyfit(x, y []float64, degree int) ([]float64, error) {
	n, m := len(x), degree+1
	if n < m {
		return nil, dataErrorf("degree %d fit needs at least %d values, have %d", degree, m, n)
	}
	a := mat.NewDense(n, m, nil)
	for i, xi := range x {
		p := 1.0
		for j := m - 1; j >= 0; j-- {
			a.Set(i, j, p)
			p *= xi
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, dataErrorf("cannot fit degree %d polynomial: %v", degree, err)
		}
		// Ill-conditioned but solved; the result is still usable.
	}
	return append([]float64(nil), c.RawVector().Data...), nil
}

// polyval evaluates poly at x using Horner's method.
func polyval(poly []float64, x float64) float64 {
	v := 0.0
	for _, c := range poly {
		v = v*x + c
	}
	return v
}
