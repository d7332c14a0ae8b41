// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws the curve fits found by a dispatch run.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/Linaro/hpc-benchmark-analysis/analysis"
	"github.com/Linaro/hpc-benchmark-analysis/dispatch"
)

// Formats lists the supported output formats.
var Formats = []string{"png", "svg", "pdf"}

const (
	width  = 16 * vg.Centimeter
	height = 10 * vg.Centimeter
	dpi    = 150
)

var (
	observedColor  = color.NRGBA{0, 0, 0xFF, 0xFF}
	fittedColor    = color.NRGBA{0xFF, 0, 0, 0xFF}
	referenceColor = color.NRGBA{0x99, 0x99, 0x99, 0xFF}
)

// Fits writes one chart into dir for each successful curve fit in
// findings and returns the names of the files written. Each chart
// shows the observed values, the fitted polynomial and, if the fit has
// one, the reference curve. format is one of Formats.
func Fits(dir, format string, findings []*dispatch.Finding) ([]string, error) {
	if !validFormat(format) {
		return nil, fmt.Errorf("unknown chart format %q, want one of %s", format, strings.Join(Formats, ", "))
	}
	var files []string
	for _, f := range findings {
		if f.Kind != analysis.KindFit || f.Err != nil {
			continue
		}
		fit, ok := f.Pass.(*analysis.CurveFit)
		if !ok || !fit.Done() {
			continue
		}
		pl, err := fitPlot(f, fit)
		if err != nil {
			return files, fmt.Errorf("%s: %w", f.Group(), err)
		}
		file := filepath.Join(dir, FileName(f)+"."+format)
		if err := save(pl, file, format); err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// FileName returns the base name, without extension, of the chart of
// f. Names are unique within one dispatch run.
func FileName(f *dispatch.Finding) string {
	group := strings.NewReplacer("/", "_", "*", "all").Replace(f.Group())
	return fmt.Sprintf("d%d-%s-%s", f.Dim, group, strings.ReplaceAll(f.Metric, "/", "-per-"))
}

func fitPlot(f *dispatch.Finding, fit *analysis.CurveFit) (*plot.Plot, error) {
	xs := make([]float64, len(f.Values))
	if v, ok := fit.Get("xaxis"); ok {
		copy(xs, v.([]float64))
	} else {
		for i := range xs {
			xs[i] = float64(i)
		}
	}

	pl := plot.New()
	pl.Title.Text = f.Group() + " " + f.Metric
	pl.Y.Label.Text = f.Metric
	pl.Legend.Top = true
	pl.Legend.Left = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid)

	observed, err := plotter.NewScatter(points(xs, f.Values))
	if err != nil {
		return nil, err
	}
	observed.GlyphStyle.Color = observedColor
	observed.GlyphStyle.Radius = vg.Points(3)
	observed.GlyphStyle.Shape = draw.CircleGlyph{}
	pl.Add(observed)
	pl.Legend.Add("observed", observed)

	fitted, err := plotter.NewLine(points(xs, fit.Fitted()))
	if err != nil {
		return nil, err
	}
	fitted.LineStyle.Color = fittedColor
	fitted.LineStyle.Width = vg.Points(1.5)
	pl.Add(fitted)
	pl.Legend.Add(fmt.Sprintf("fit (degree %d)", len(fit.Poly())-1), fitted)

	if v, ok := fit.Get("optimal"); ok {
		ref, err := plotter.NewLine(points(xs, v.([]float64)))
		if err != nil {
			return nil, err
		}
		ref.LineStyle.Color = referenceColor
		ref.LineStyle.Width = vg.Points(1)
		ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		pl.Add(ref)
		pl.Legend.Add("reference", ref)
	}

	ticks := make(plot.ConstantTicks, len(xs))
	for i, x := range xs {
		ticks[i] = plot.Tick{Value: x, Label: f.Labels[i]}
	}
	pl.X.Tick.Marker = ticks
	return pl, nil
}

func points(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return pts
}

func save(pl *plot.Plot, file, format string) error {
	var can vg.CanvasWriterTo
	switch format {
	case "png":
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
			vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	case "svg":
		can = vgsvg.New(width, height)
	case "pdf":
		can = vgpdf.New(width, height)
	}
	pl.Draw(draw.New(can))

	out, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := can.WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
