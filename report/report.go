// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report formats dispatch findings as text.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aclements/go-gg/table"

	"github.com/Linaro/hpc-benchmark-analysis/dispatch"
	"github.com/Linaro/hpc-benchmark-analysis/internal/texttab"
)

// WriteFindings writes a table of findings to w, one row per finding.
// Unless all is set, only the findings that are interesting at
// qualityThreshold are listed.
func WriteFindings(w io.Writer, findings []*dispatch.Finding, all bool, qualityThreshold float64) error {
	var tab texttab.Table
	tab.Row().Cell("dim").Cell("mode").Cell("kind").Cell("group").Cell("metric").Cell("result")
	n := 0
	for _, f := range findings {
		interesting := f.Interesting(qualityThreshold)
		if !all && !interesting {
			continue
		}
		n++
		result := "error: "
		if f.Err != nil {
			result += f.Err.Error()
		} else {
			result = f.Pass.String()
		}
		mark := ""
		if all && interesting {
			mark = "*"
		}
		tab.Row().Cell(strconv.Itoa(f.Dim), texttab.Right).
			Cell(f.Mode.String()).
			Cell(f.Kind.String()).
			Cell(f.Group()).
			Cell(f.Metric).
			Cell(mark+result, texttab.LeftMargin("  "))
	}
	if n == 0 {
		if len(findings) == 0 {
			_, err := fmt.Fprintln(w, "no findings")
			return err
		}
		_, err := fmt.Fprintf(w, "no interesting findings in %d\n", len(findings))
		return err
	}
	return tab.Format(w)
}

// WriteVectors writes the values each finding analyzed, one block per
// finding with the varying labels above their values.
func WriteVectors(w io.Writer, findings []*dispatch.Finding) error {
	var keys, labels []string
	var values []float64
	for _, f := range findings {
		key := fmt.Sprintf("dim %d %v %s %s", f.Dim, f.Mode, f.Group(), f.Metric)
		for i, l := range f.Labels {
			keys = append(keys, key)
			labels = append(labels, l)
			values = append(values, f.Values[i])
		}
	}
	if len(keys) == 0 {
		return nil
	}
	tab := new(table.Builder).Add("finding", keys).Add("label", labels).Add("value", values).Done()

	g := table.GroupBy(tab, "finding")
	for i, gid := range g.Tables() {
		t := g.Table(gid)
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%v:\n", gid.Label()); err != nil {
			return err
		}
		var vt texttab.Table
		vt.Row()
		for _, l := range t.MustColumn("label").([]string) {
			vt.Cell(l, texttab.Right)
		}
		vt.Row()
		for _, v := range t.MustColumn("value").([]float64) {
			vt.Cell(strconv.FormatFloat(v, 'g', -1, 64), texttab.Right)
		}
		if err := vt.Format(w); err != nil {
			return err
		}
	}
	return nil
}
