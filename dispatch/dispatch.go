// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dispatch runs the analyses configured for each dimension of
// a category tree over the matching groups of records.
//
// Every leaf of a tree has a path run, l0, l1, ..., l(D-1). An analysis
// on dimension d groups together leaves whose paths differ in exactly
// one position:
//
//   - across varies the position just above dimension d: the label at
//     d-1, or the run for d = 0. It compares the same category value
//     between sibling branches, such as gcc-O2 with llvm-O2.
//   - along varies the label at d itself. It compares the siblings
//     under one parent, such as gcc-O2 with gcc-O3.
//
// Each group is analyzed once per metric that every member reports
// as a number.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Linaro/hpc-benchmark-analysis/analysis"
	"github.com/Linaro/hpc-benchmark-analysis/category"
	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// DefaultQualityThreshold is the fit quality above which a fit is
// considered to diverge from its reference.
const DefaultQualityThreshold = 1.0

// A DimensionError reports a descriptor whose number of dimensions
// does not match the depth of the tree.
type DimensionError struct {
	// Dim is the first dimension that exists in one but not the
	// other.
	Dim int

	// Want is the number of dimensions in the descriptor; Have is
	// the depth of the tree.
	Want, Have int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: dimension %d: descriptor has %d dimensions but tree has %d", analysis.ErrConfig, e.Dim, e.Want, e.Have)
}

func (e *DimensionError) Unwrap() error {
	return analysis.ErrConfig
}

// A Finding is the result of one analysis over one group of values.
type Finding struct {
	// Dim is the dimension whose analysis produced this finding.
	Dim  int
	Kind analysis.Kind
	Mode category.Mode

	// Metric is the metric key analyzed.
	Metric string

	// Path is the path shared by the group, starting with the run,
	// with "*" in the varying position.
	Path []string

	// Labels are the varying labels, one per value, in sorted
	// order. Values holds the metric of each member.
	Labels []string
	Values []float64

	// Pass is the executed pass. Its results are available through
	// Get, or through the concrete analysis types.
	Pass analysis.Pass

	// Err is set if the pass could not be configured or run. The
	// remaining findings are unaffected.
	Err error
}

// Group returns the group path as a string, such as "m1/gcc/*".
func (f *Finding) Group() string {
	return strings.Join(f.Path, "/")
}

// Interesting reports whether the finding is worth reporting: the
// pass failed, found outliers, or fitted a curve whose quality is
// above qualityThreshold.
func (f *Finding) Interesting(qualityThreshold float64) bool {
	if f.Err != nil {
		return true
	}
	if f.Pass == nil || !f.Pass.Done() {
		return false
	}
	switch f.Kind {
	case analysis.KindOutlier, analysis.KindCluster:
		n, _ := f.Pass.Get("num_outliers")
		return n.(int) > 0
	case analysis.KindFit:
		q, ok := f.Pass.Get("quality")
		return ok && q.(float64) > qualityThreshold
	}
	return false
}

func (f *Finding) String() string {
	s := fmt.Sprintf("dim %d %v %s %s", f.Dim, f.Mode, f.Group(), f.Metric)
	if f.Err != nil {
		return s + ": " + f.Err.Error()
	}
	return s + ": " + f.Pass.String()
}

// A Dispatcher evaluates the analyses of a tree's descriptor.
type Dispatcher struct {
	Tree *category.Tree

	// Spec, if not nil, replaces the tree's own descriptor. This
	// allows analyzing a stored tree in a new way.
	Spec *category.Spec

	// Parallel bounds the number of passes run concurrently.
	// Values below 1 mean 1.
	Parallel int

	// Log receives a debug entry per pass and a warning per failed
	// pass. If nil, the standard logger is used.
	Log logrus.FieldLogger
}

// A member is one leaf of a group.
type member struct {
	label string
	rec   *record.Record
}

type group struct {
	dim     int
	path    []string
	members []member
}

type job struct {
	dim category.Dimension
	f   *Finding
}

// Run evaluates every configured analysis and returns the findings
// ordered by dimension, then by group in tree order, then by metric.
//
// Run fails with a *DimensionError if the descriptor and the tree
// disagree on the number of dimensions. Failures of individual passes
// are recorded in the findings instead.
func (d *Dispatcher) Run(ctx context.Context) ([]*Finding, error) {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	spec := d.Spec
	if spec == nil {
		spec = d.Tree.Spec()
	}
	want, have := spec.NumDims(), d.Tree.Dims()
	if want == 0 || have == 0 {
		return nil, nil
	}
	if want != have {
		return nil, &DimensionError{Dim: min(want, have), Want: want, Have: have}
	}

	var jobs []job
	for i, dim := range spec.Dims {
		if dim.Kind == analysis.KindNone {
			continue
		}
		vary := i + 1
		if dim.Mode == category.Across {
			vary = i
		}
		for _, g := range groups(d.Tree, i, vary) {
			for _, key := range metrics(g.members) {
				jobs = append(jobs, job{dim, newFinding(dim, g, key)})
			}
		}
	}

	// Records are only read before this point, so the passes share
	// nothing.
	findings := make([]*Finding, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(d.Parallel, 1))
	for i, j := range jobs {
		j := j
		findings[i] = j.f
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := j.f
			evaluate(f, j.dim)
			l := log.WithFields(logrus.Fields{"dim": f.Dim, "group": f.Group(), "metric": f.Metric})
			if f.Err != nil {
				l.WithError(f.Err).Warn("analysis failed")
			} else {
				l.Debug(f.Pass.String())
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return findings, nil
}

// groups returns the groups of leaves whose paths differ only at
// position vary, where position 0 is the run. Groups with fewer than
// two members are dropped.
func groups(t *category.Tree, dim, vary int) []*group {
	var out []*group
	byKey := make(map[string]*group)
	t.Walk(func(run string, labels []string, r *record.Record) error {
		path := append([]string{run}, labels...)
		label := path[vary]
		path[vary] = "*"
		key := strings.Join(path, "\x00")
		g := byKey[key]
		if g == nil {
			g = &group{dim: dim, path: path}
			byKey[key] = g
			out = append(out, g)
		}
		g.members = append(g.members, member{label, r})
		return nil
	})

	kept := out[:0]
	for _, g := range out {
		if len(g.members) < 2 {
			continue
		}
		sortMembers(g.members)
		kept = append(kept, g)
	}
	return kept
}

func sortMembers(ms []member) {
	labels := make([]string, len(ms))
	byLabel := make(map[string]member, len(ms))
	for i, m := range ms {
		labels[i] = m.label
		byLabel[m.label] = m
	}
	for i, l := range category.SortLabels(labels) {
		ms[i] = byLabel[l]
	}
}

// metrics returns the keys that every member reports as a number, in
// order of first appearance.
func metrics(ms []member) []string {
	lists := make([]slice.T, len(ms))
	for i, m := range ms {
		lists[i] = m.rec.Keys()
	}
	all, _ := slice.NubAppend(lists...).([]string)
	var keys []string
	for _, key := range all {
		numeric := true
		for _, m := range ms {
			if _, ok := m.rec.Float(key); !ok {
				numeric = false
				break
			}
		}
		if numeric {
			keys = append(keys, key)
		}
	}
	return keys
}

func newFinding(dim category.Dimension, g *group, metric string) *Finding {
	f := &Finding{
		Dim:    g.dim,
		Kind:   dim.Kind,
		Mode:   dim.Mode,
		Metric: metric,
		Path:   g.path,
	}
	for _, m := range g.members {
		v, _ := m.rec.Float(metric)
		f.Labels = append(f.Labels, m.label)
		f.Values = append(f.Values, v)
	}
	return f
}

// evaluate configures and runs the pass for f.
func evaluate(f *Finding, dim category.Dimension) {
	p, err := analysis.New(dim.Kind)
	if err != nil {
		f.Err = err
		return
	}
	f.Pass = p
	opts := analysis.Options{}
	for k, v := range dim.Options {
		opts[k] = v
	}
	if dim.Kind == analysis.KindFit {
		x, ref := fitAxes(f.Labels, f.Values)
		opts["xaxis"] = x
		if ref != nil {
			opts["optimal"] = ref
		}
	}
	if err := p.Configure(opts); err != nil {
		f.Err = err
		return
	}
	if err := p.SetData(f.Values); err != nil {
		f.Err = err
		return
	}
	if err := p.Execute(); err != nil {
		f.Err = err
	}
}

// fitAxes returns the x coordinates for fitting ys against labels and
// the reference curve of perfect scaling, ys[0]*x/x[0]. The labels'
// numeric values are used when they all have one, otherwise 0..n-1.
// There is no reference if x[0] is zero.
func fitAxes(labels []string, ys []float64) (x, ref []float64) {
	x, ok := category.Numeric(labels)
	if !ok {
		x = make([]float64, len(labels))
		for i := range x {
			x[i] = float64(i)
		}
	}
	if x[0] == 0 || math.IsNaN(x[0]) {
		return x, nil
	}
	ref = make([]float64, len(x))
	for i, xi := range x {
		ref[i] = ys[0] * xi / x[0]
	}
	return x, ref
}
