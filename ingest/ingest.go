// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ingest reads benchmark logs from their sources, parses them
// and adds them to a category tree.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/Linaro/hpc-benchmark-analysis/category"
	"github.com/Linaro/hpc-benchmark-analysis/parse"
	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// A Run is a named source of logs, typically all the logs of one
// machine.
type Run struct {
	Label  string
	Source Source
}

// Runs resolves command-line arguments into runs.
//
// Each path names a source as accepted by Open. By default a run is
// labelled with its path, except that a path given more than once is
// disambiguated by appending "#N". If AllowLabels is true, a path may
// be given as label=path to choose the label; such labels are used as
// is.
type Runs struct {
	Paths       []string
	AllowLabels bool

	// ClientOptions are passed to Open for Cloud Storage paths.
	ClientOptions []option.ClientOption
}

type input struct {
	path, label string
	isLabeled   bool
}

func (rs *Runs) inputs() []input {
	var inputs []input
	pathCount := make(map[string]int)
	for _, path := range rs.Paths {
		label := path
		isLabeled := false
		// gs:// paths have no '=' before the scheme separator.
		if i := strings.Index(path, "="); rs.AllowLabels && i >= 0 {
			label, path = path[:i], path[i+1:]
			isLabeled = true
		} else {
			pathCount[path]++
		}
		inputs = append(inputs, input{path, label, isLabeled})
	}

	pathI := make(map[string]int)
	for i := range inputs {
		inp := &inputs[i]
		if inp.isLabeled || pathCount[inp.path] == 1 {
			continue
		}
		inp.label = fmt.Sprintf("%s#%d", inp.path, pathI[inp.path])
		pathI[inp.path]++
	}
	return inputs
}

// Resolve opens the source of every path. It fails on the first path
// that cannot be opened.
func (rs *Runs) Resolve(ctx context.Context) ([]Run, error) {
	var runs []Run
	for _, inp := range rs.inputs() {
		src, err := Open(ctx, inp.path, rs.ClientOptions...)
		if err != nil {
			return nil, err
		}
		runs = append(runs, Run{Label: inp.label, Source: src})
	}
	return runs, nil
}

// Stats counts what an ingestion did.
type Stats struct {
	Runs int

	// Logs is the number of logs added to the tree. Empty counts
	// the added logs that yielded no metrics.
	Logs  int
	Empty int

	// Skipped is the number of logs that could not be read or
	// added.
	Skipped int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d runs, %d logs (%d empty, %d skipped)", s.Runs, s.Logs, s.Empty, s.Skipped)
}

// A LogError is a problem with a single log. It does not stop
// ingestion of the others.
type LogError struct {
	Run, Log string
	Err      error
}

func (e *LogError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Run, e.Log, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// An Ingester feeds logs into a tree.
type Ingester struct {
	Parser parse.Parser

	// Log receives a warning for each problem log. If nil, the
	// standard logger is used.
	Log logrus.FieldLogger
}

// Ingest reads every log of every run, parses it and adds it to tree
// under the run's label.
//
// A log that cannot be read, or that the tree rejects, is skipped.
// Such problems, and parser warnings, are returned as warnings of
// type *LogError. A log that parses to no metrics is still added,
// with an empty record. Ingest only fails if a run's logs cannot be
// listed or ctx is done.
func (in *Ingester) Ingest(ctx context.Context, tree *category.Tree, runs []Run) (Stats, []error, error) {
	log := in.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	var stats Stats
	var warnings []error
	warn := func(run, name string, err error) {
		warnings = append(warnings, &LogError{run, name, err})
		log.WithFields(logrus.Fields{"run": run, "log": name}).WithError(err).Warn("problem with log")
	}

	for _, run := range runs {
		names, err := run.Source.List(ctx)
		if err != nil {
			return stats, warnings, fmt.Errorf("listing run %s: %w", run.Label, err)
		}
		stats.Runs++
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return stats, warnings, err
			}
			raw, err := run.Source.Read(ctx, name)
			if err != nil {
				warn(run.Label, name, err)
				stats.Skipped++
				continue
			}

			var ms []record.Metric
			if wp, ok := in.Parser.(parse.WarningParser); ok {
				var ws []error
				ms, ws = wp.ParseWarn(raw)
				for _, w := range ws {
					if se, ok := w.(*parse.SyntaxError); ok {
						se.File = name
					}
					warn(run.Label, name, w)
				}
			} else {
				ms = in.Parser.Parse(raw)
			}

			if err := tree.Add(run.Label, name, record.New(name, ms...)); err != nil {
				warn(run.Label, name, err)
				stats.Skipped++
				continue
			}
			stats.Logs++
			if len(ms) == 0 {
				stats.Empty++
				log.WithFields(logrus.Fields{"run": run.Label, "log": name}).Warn("no metrics found")
			}
		}
	}
	return stats, warnings, nil
}
