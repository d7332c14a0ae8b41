// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis provides the statistical passes run over groups of
// benchmark measurements: robust outlier detection, one-dimensional
// k-means clustering and least-squares curve fitting.
//
// Every pass follows the same life cycle. It is configured with
// Options, given a vector of values with SetData, run with Execute and
// then queried by result name with Get. Options that a pass needs but
// that are missing are only reported by Execute, since some of them
// (such as a reference curve) may be supplied after construction.
//
// Passes are independent of each other and hold no shared state, so
// distinct passes may run concurrently. A single pass is not safe for
// concurrent use.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Errors returned by passes wrap one of these, so callers can
// classify failures with errors.Is.
var (
	// ErrConfig reports an invalid option, parameter or
	// configuration.
	ErrConfig = errors.New("configuration error")

	// ErrData reports unusable input data.
	ErrData = errors.New("data error")

	// ErrState reports a call made at the wrong point of a pass's
	// life cycle, such as Execute without data.
	ErrState = errors.New("state error")
)

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

func dataErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrData, fmt.Sprintf(format, args...))
}

// A Kind identifies one of the available analysis passes.
type Kind int

const (
	// KindNone skips analysis.
	KindNone Kind = iota
	// KindOutlier selects Outliers.
	KindOutlier
	// KindCluster selects Clustering.
	KindCluster
	// KindFit selects CurveFit.
	KindFit
)

var kindNames = []string{"none", "outlier", "cluster", "fit"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind named s, as used in descriptor strings.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindNone, configErrorf("unknown analysis %q", s)
}

// Options configures a pass. Keys are option names; values are
// type-checked by the pass.
type Options map[string]interface{}

// A Pass is a single statistical analysis over a vector of values.
type Pass interface {
	// Kind returns the kind of this pass.
	Kind() Kind

	// Configure sets the given options, leaving the others
	// unchanged. It fails with ErrConfig for unknown keys and
	// values of the wrong type or range.
	Configure(opts Options) error

	// SetOption sets a single option. It is shorthand for
	// Configure(Options{key: value}).
	SetOption(key string, value interface{}) error

	// SetData sets the values to analyze. It fails with ErrData
	// if values is empty or contains NaN or infinities.
	SetData(values []float64) error

	// Execute runs the pass over the current data and options.
	// It fails with ErrState if no data has been set. Calling
	// Execute again recomputes every result.
	Execute() error

	// Done reports whether Execute has completed successfully.
	Done() bool

	// Get returns the result named key. It reports false if there
	// is no such result, which is never an error.
	Get(key string) (interface{}, bool)

	// String returns a one-line description of the pass and its
	// results.
	String() string
}

// New returns a new pass of the given kind with default options.
func New(kind Kind) (Pass, error) {
	switch kind {
	case KindOutlier:
		return NewOutliers(), nil
	case KindCluster:
		return NewClustering(), nil
	case KindFit:
		return NewCurveFit(), nil
	}
	return nil, configErrorf("no pass for kind %v", kind)
}

// ParamOptions converts the single numeric parameter of a descriptor
// directive into options for kind: the threshold of an outlier pass,
// the number of clusters of a cluster pass or the degree of a fit.
func ParamOptions(kind Kind, param string) (Options, error) {
	switch kind {
	case KindOutlier:
		v, err := strconv.ParseFloat(param, 64)
		if err != nil || !(v > 0) || math.IsInf(v, 0) {
			return nil, configErrorf("outlier threshold must be a positive number, got %q", param)
		}
		return Options{"threshold": v}, nil
	case KindCluster:
		v, err := strconv.Atoi(param)
		if err != nil || v < 1 {
			return nil, configErrorf("cluster count must be a positive integer, got %q", param)
		}
		return Options{"num_clusters": v}, nil
	case KindFit:
		v, err := strconv.Atoi(param)
		if err != nil || v < 1 {
			return nil, configErrorf("fit degree must be an integer >= 1, got %q", param)
		}
		return Options{"degree": v}, nil
	}
	return nil, configErrorf("analysis %v takes no parameter", kind)
}

// base holds the data management shared by all passes.
type base struct {
	data []float64
	done bool
}

func (b *base) setData(values []float64) error {
	if len(values) == 0 {
		return dataErrorf("no values to analyze")
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dataErrorf("value %d is not a finite number: %v", i, v)
		}
	}
	b.data = append([]float64(nil), values...)
	b.done = false
	return nil
}

func (b *base) checkData(name string) error {
	if b.data == nil {
		return fmt.Errorf("%w: %s: no data set", ErrState, name)
	}
	return nil
}

// Data returns the values being analyzed. The caller must not modify
// the result.
func (b *base) Data() []float64 {
	return b.data
}

func (b *base) Done() bool {
	return b.done
}

// Option value conversions. These accept the numeric types produced
// by literal Go values and by YAML decoding.

func optFloat(key string, v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, configErrorf("option %s must be a number, got %T", key, v)
}

func optInt(key string, v interface{}) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return 0, configErrorf("option %s must be an integer, got %v", key, v)
}

func optFloats(key string, v interface{}) ([]float64, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return append([]float64(nil), v...), nil
	case []int:
		fs := make([]float64, len(v))
		for i, x := range v {
			fs[i] = float64(x)
		}
		return fs, nil
	case []interface{}:
		fs := make([]float64, len(v))
		for i, x := range v {
			f, err := optFloat(key, x)
			if err != nil {
				return nil, err
			}
			fs[i] = f
		}
		return fs, nil
	}
	return nil, configErrorf("option %s must be a list of numbers, got %T", key, v)
}
