// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package category

import (
	"sort"
	"strings"

	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// LabelValue returns the numeric value of a category label such as a
// core count ("8") or a size ("64k").
func LabelValue(label string) (float64, bool) {
	v, err := record.ParseValue(label)
	return v, err == nil
}

// compareLabels orders numeric labels by value and before all other
// labels, which are ordered as strings.
func compareLabels(a, b string) int {
	aa, oka := LabelValue(a)
	bb, okb := LabelValue(b)
	switch {
	case oka && okb:
		if aa < bb {
			return -1
		}
		if aa > bb {
			return 1
		}
	case oka:
		return -1
	case okb:
		return 1
	}
	return strings.Compare(a, b)
}

// SortLabels returns labels sorted so that numeric labels come first
// in numeric order ("2" before "16"), followed by the rest in string
// order. The input is not modified.
func SortLabels(labels []string) []string {
	out := append([]string(nil), labels...)
	sort.SliceStable(out, func(i, j int) bool {
		return compareLabels(out[i], out[j]) < 0
	})
	return out
}

// Numeric reports whether every label has a numeric value, and
// returns the values.
func Numeric(labels []string) ([]float64, bool) {
	vs := make([]float64, len(labels))
	for i, l := range labels {
		v, ok := LabelValue(l)
		if !ok {
			return nil, false
		}
		vs[i] = v
	}
	return vs, true
}
