// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Linaro/hpc-benchmark-analysis/analysis"
	"github.com/Linaro/hpc-benchmark-analysis/category"
	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// cycles per run, compiler and thread count.
var cycles = map[string]map[string][]int{
	"m1": {"gcc": {100, 200, 400}, "llvm": {100, 150, 175}},
	"m2": {"gcc": {101, 199, 401}, "llvm": {99, 151, 176}},
}

func newTree(t *testing.T, desc string) *category.Tree {
	t.Helper()
	tr := category.New("bench")
	require.NoError(t, tr.Configure(desc))
	for _, run := range []string{"m1", "m2"} {
		for _, cc := range []string{"gcc", "llvm"} {
			// Add out of order; dispatch sorts numerically.
			for _, i := range []int{2, 0, 1} {
				threads := 1 << i
				r := record.New("",
					record.Metric{Key: "cycles", Value: fmt.Sprint(cycles[run][cc][i])},
					record.Metric{Key: "compiler", Value: cc})
				id := fmt.Sprintf("%s-%d.log", cc, threads)
				require.NoError(t, tr.Add(run, id, r))
			}
		}
	}
	return tr
}

func run(t *testing.T, d *Dispatcher) []*Finding {
	t.Helper()
	if d.Log == nil {
		log, _ := test.NewNullLogger()
		d.Log = log
	}
	fs, err := d.Run(context.Background())
	require.NoError(t, err)
	return fs
}

func groupsOf(fs []*Finding) []string {
	var gs []string
	for _, f := range fs {
		gs = append(gs, f.Group())
	}
	return gs
}

func TestAlongFit(t *testing.T) {
	tr := newTree(t, "sep=-,none,fit=1/along")
	fs := run(t, &Dispatcher{Tree: tr})

	assert.Equal(t, []string{"m1/gcc/*", "m1/llvm/*", "m2/gcc/*", "m2/llvm/*"}, groupsOf(fs))
	for _, f := range fs {
		require.NoError(t, f.Err)
		assert.Equal(t, 1, f.Dim)
		assert.Equal(t, analysis.KindFit, f.Kind)
		assert.Equal(t, "cycles", f.Metric, "non-numeric metrics are skipped")
		assert.Equal(t, []string{"1", "2", "4"}, f.Labels)
	}

	// gcc on m1 scales perfectly.
	q, ok := fs[0].Pass.Get("quality")
	require.True(t, ok)
	assert.InDelta(t, 0, q, 1e-9)
	assert.False(t, fs[0].Interesting(DefaultQualityThreshold))
	assert.Equal(t, []float64{100, 200, 400}, fs[0].Values)

	q, ok = fs[1].Pass.Get("quality")
	require.True(t, ok)
	assert.InDelta(t, 372.1638655462185, q, 1e-6)
	assert.True(t, fs[1].Interesting(DefaultQualityThreshold))

	fit := fs[1].Pass.(*analysis.CurveFit)
	assert.InDelta(t, 23.214285714285715, fit.Poly()[0], 1e-9)
	assert.InDelta(t, 87.5, fit.Poly()[1], 1e-9)
}

func TestAcrossRuns(t *testing.T) {
	tr := newTree(t, "sep=-,outlier=3.5,none")
	fs := run(t, &Dispatcher{Tree: tr})

	assert.Equal(t, []string{
		"*/gcc/4", "*/gcc/1", "*/gcc/2",
		"*/llvm/4", "*/llvm/1", "*/llvm/2",
	}, groupsOf(fs))
	for _, f := range fs {
		require.NoError(t, f.Err)
		assert.Equal(t, []string{"m1", "m2"}, f.Labels)
		assert.False(t, f.Interesting(DefaultQualityThreshold))
	}
	// Two values are compared by their ratio.
	scale, ok := fs[1].Pass.Get("scale")
	require.True(t, ok)
	assert.InDelta(t, 1.01, scale, 1e-12)
}

func TestAcrossEqualsAlongAbove(t *testing.T) {
	// Across on dimension 1 and along on dimension 0 both compare
	// compilers at a fixed thread count.
	across := run(t, &Dispatcher{Tree: newTree(t, "sep=-,none,cluster=1")})
	along := run(t, &Dispatcher{Tree: newTree(t, "sep=-,cluster=1/al,none")})

	want := []string{"m1/*/4", "m1/*/1", "m1/*/2", "m2/*/4", "m2/*/1", "m2/*/2"}
	assert.Equal(t, want, groupsOf(across))
	assert.Equal(t, want, groupsOf(along))
	for i := range across {
		assert.Equal(t, []string{"gcc", "llvm"}, across[i].Labels)
		assert.Equal(t, across[i].Values, along[i].Values)
		assert.Equal(t, 1, across[i].Dim)
		assert.Equal(t, 0, along[i].Dim)
	}
}

func TestParallel(t *testing.T) {
	desc := "sep=-,outlier=1/along,fit=1/along"
	seq := run(t, &Dispatcher{Tree: newTree(t, desc)})
	par := run(t, &Dispatcher{Tree: newTree(t, desc), Parallel: 8})
	require.Len(t, par, len(seq))
	for i := range seq {
		assert.Equal(t, seq[i].String(), par[i].String())
	}
	// Dimension 0 findings come first.
	assert.Equal(t, 0, seq[0].Dim)
	assert.Equal(t, 1, seq[len(seq)-1].Dim)
}

func TestDimensionMismatch(t *testing.T) {
	tr := newTree(t, "sep=-,none,none")
	spec, err := category.ParseSpec("sep=-,none,none,outlier=2")
	require.NoError(t, err)

	_, err = (&Dispatcher{Tree: tr, Spec: spec}).Run(context.Background())
	var de *DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Dim)
	assert.Equal(t, 3, de.Want)
	assert.Equal(t, 2, de.Have)
	assert.True(t, errors.Is(err, analysis.ErrConfig))
}

func TestPassFailure(t *testing.T) {
	// Degree 3 needs four points; each group has three. Failures are
	// reported per finding without stopping the run.
	log, hook := test.NewNullLogger()
	tr := newTree(t, "sep=-,none,fit=3/along")
	fs := run(t, &Dispatcher{Tree: tr, Log: log})
	require.Len(t, fs, 4)
	for _, f := range fs {
		assert.True(t, errors.Is(f.Err, analysis.ErrData))
		assert.True(t, f.Interesting(DefaultQualityThreshold))
		assert.Contains(t, f.String(), "needs at least 4 values")
	}
	assert.Len(t, hook.Entries, 4)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestOutlierFinding(t *testing.T) {
	tr := category.New("bench")
	require.NoError(t, tr.Configure("sep=-,outlier=3.5/along"))
	for i, v := range []string{"10", "10.1", "9.9", "10.05", "9.95", "50"} {
		require.NoError(t, tr.Add("m1", fmt.Sprintf("%d.log", i), record.New("", record.Metric{Key: "t", Value: v})))
	}
	fs := run(t, &Dispatcher{Tree: tr})
	require.Len(t, fs, 1)
	assert.Equal(t, "m1/*", fs[0].Group())
	assert.True(t, fs[0].Interesting(DefaultQualityThreshold))
	out, _ := fs[0].Pass.Get("outliers")
	assert.Equal(t, []float64{50}, out)
}

func TestEmpty(t *testing.T) {
	tr := category.New("bench")
	require.NoError(t, tr.Configure("sep=-,outlier=2"))
	fs, err := (&Dispatcher{Tree: tr}).Run(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, fs)
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Dispatcher{Tree: newTree(t, "sep=-,none,fit=1/al")}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
