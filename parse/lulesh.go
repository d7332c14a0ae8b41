// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"regexp"

	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// Lulesh extracts the figures of merit from the output of the LULESH
// proxy application.
type Lulesh struct{}

func (Lulesh) Name() string { return "lulesh" }

var luleshFields = []struct {
	key string
	re  *regexp.Regexp
}{
	{"ProblemSize", regexp.MustCompile(`Problem size\s+=\s+(\d+)`)},
	{"IterationCount", regexp.MustCompile(`Iteration count\s+=\s+(\d+)`)},
	{"FinalEnergy", regexp.MustCompile(`Final Origin Energy\s+=\s+(\d+\S*)`)},
	{"MaxAbsDiff", regexp.MustCompile(`MaxAbsDiff\s+=\s+(\d+\S*)`)},
	{"TotalAbsDiff", regexp.MustCompile(`TotalAbsDiff\s+=\s+(\d+\S*)`)},
	{"MaxRelDiff", regexp.MustCompile(`MaxRelDiff\s+=\s+(\d+\S*)`)},
	{"Elements", regexp.MustCompile(`Total number of elements:\s+(\d+)`)},
	{"Threads", regexp.MustCompile(`Num threads:\s+(\d+)`)},
	{"Elapsed", regexp.MustCompile(`Elapsed time\s+=\s+(\d+\S*)`)},
	{"Grind", regexp.MustCompile(`Grind time \(us/z/c\)\s+=\s+(\d+\S*)`)},
	{"FOM", regexp.MustCompile(`FOM\s+=\s+(\d+\S*)`)},
}

func (Lulesh) Parse(raw []byte) []record.Metric {
	var ms []record.Metric
	for _, f := range luleshFields {
		if m := f.re.FindSubmatch(raw); m != nil {
			ms = append(ms, record.Metric{Key: f.key, Value: string(m[1])})
		}
	}
	return ms
}
