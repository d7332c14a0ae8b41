// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// DefaultThreshold is the modified z-score above which a value is
// considered an outlier.
const DefaultThreshold = 3.5

// madScale converts a median absolute deviation into a modified
// z-score, making it comparable to a standard deviation for normally
// distributed data.
const madScale = 0.6745

// Outliers detects outliers using the median absolute deviation.
//
// A value x is an outlier if 0.6745*|x-M|/MAD exceeds the threshold,
// where M is the median of the data and MAD is the median of |x-M|.
// Detection needs at least three values; with fewer, or with a MAD of
// zero, nothing is an outlier.
//
// Results:
//
//	mean, stdev   mean and population standard deviation of the data
//	              before Execute and of the inliers after it
//	scale         X[1]/X[0], only when there are exactly two values
//	outliers      values flagged as outliers, in input order
//	inliers       the remaining values, in input order
//	num_outliers  len(outliers)
//	threshold     the threshold in use
type Outliers struct {
	base
	threshold float64

	mean, stdev float64
	scale       float64
	hasScale    bool

	inliers, outliers []float64
}

// NewOutliers returns an outlier detector with the default threshold.
func NewOutliers() *Outliers {
	return &Outliers{threshold: DefaultThreshold}
}

func (o *Outliers) Kind() Kind { return KindOutlier }

func (o *Outliers) Configure(opts Options) error {
	for key, v := range opts {
		switch key {
		case "threshold":
			t, err := optFloat(key, v)
			if err != nil {
				return err
			}
			if !(t > 0) || math.IsInf(t, 0) {
				return configErrorf("threshold must be positive, got %v", t)
			}
			o.threshold = t
		default:
			return configErrorf("unknown outlier option %q", key)
		}
	}
	return nil
}

func (o *Outliers) SetOption(key string, value interface{}) error {
	return o.Configure(Options{key: value})
}

// SetData sets the values to check and computes their mean and
// standard deviation.
func (o *Outliers) SetData(values []float64) error {
	if err := o.setData(values); err != nil {
		return err
	}
	o.inliers, o.outliers = nil, nil
	o.mean, o.stdev = meanStdev(o.data)
	o.hasScale = len(o.data) == 2
	if o.hasScale {
		o.scale = o.data[1] / o.data[0]
	}
	return nil
}

// Execute partitions the data into inliers and outliers and
// recomputes the mean and standard deviation over the inliers. The
// data itself is left unchanged.
func (o *Outliers) Execute() error {
	if err := o.checkData("outliers"); err != nil {
		return err
	}
	o.inliers, o.outliers = detect(o.data, o.threshold)
	o.mean, o.stdev = meanStdev(o.inliers)
	o.done = true
	return nil
}

// Inliers returns the values not flagged as outliers by the last
// Execute.
func (o *Outliers) Inliers() []float64 { return o.inliers }

// Outliers returns the values flagged by the last Execute.
func (o *Outliers) Outliers() []float64 { return o.outliers }

// Mean returns the current mean. See the type documentation.
func (o *Outliers) Mean() float64 { return o.mean }

// Stdev returns the current population standard deviation.
func (o *Outliers) Stdev() float64 { return o.stdev }

func (o *Outliers) Get(key string) (interface{}, bool) {
	switch key {
	case "threshold":
		return o.threshold, true
	case "mean", "stdev":
		if o.data == nil {
			return nil, false
		}
		if key == "mean" {
			return o.mean, true
		}
		return o.stdev, true
	case "scale":
		if !o.hasScale {
			return nil, false
		}
		return o.scale, true
	case "outliers", "inliers", "num_outliers":
		if !o.done {
			return nil, false
		}
		switch key {
		case "outliers":
			return o.outliers, true
		case "inliers":
			return o.inliers, true
		}
		return len(o.outliers), true
	}
	return nil, false
}

func (o *Outliers) String() string {
	s := fmt.Sprintf("outliers(threshold=%g)", o.threshold)
	if o.done {
		s += fmt.Sprintf(": %d of %d values, mean %.6g stdev %.6g", len(o.outliers), len(o.data), o.mean, o.stdev)
	}
	return s
}

// detect splits xs into inliers and outliers by modified z-score.
// Both results preserve the order of xs and are never nil.
func detect(xs []float64, threshold float64) (inliers, outliers []float64) {
	inliers, outliers = []float64{}, []float64{}
	if len(xs) < 3 {
		return append(inliers, xs...), outliers
	}
	median, _ := stats.Median(xs)
	mad, _ := stats.MedianAbsoluteDeviationPopulation(xs)
	if mad == 0 {
		return append(inliers, xs...), outliers
	}
	for _, x := range xs {
		if madScale*math.Abs(x-median)/mad > threshold {
			outliers = append(outliers, x)
		} else {
			inliers = append(inliers, x)
		}
	}
	return inliers, outliers
}

// meanStdev returns the mean and population standard deviation of xs,
// or NaNs if xs is empty.
func meanStdev(xs []float64) (mean, stdev float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, _ = stats.Mean(xs)
	stdev, _ = stats.StandardDeviationPopulation(xs)
	return mean, stdev
}
