// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse extracts metrics from raw benchmark logs.
//
// A Parser turns the text of one log into an ordered list of
// metrics. Parsers never fail: input they cannot make sense of simply
// yields no metrics. The set of parsers is closed and selected by
// name with Lookup.
package parse

import (
	"fmt"
	"sort"

	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// A Parser extracts metrics from the raw text of a benchmark log.
type Parser interface {
	// Name returns the name the parser is registered under.
	Name() string

	// Parse returns the metrics found in raw, in the order they
	// appear. It returns an empty result on unparseable input.
	Parse(raw []byte) []record.Metric
}

// A WarningParser is a Parser that can also report problems with
// its input that did not prevent parsing.
type WarningParser interface {
	Parser
	ParseWarn(raw []byte) ([]record.Metric, []error)
}

// A SyntaxError represents a line of a log that looked like a
// metric but could not be parsed.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	file := e.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d: %s", file, e.Line, e.Msg)
}

var registry = map[string]func() Parser{
	"perf":   func() Parser { return PerfStat{} },
	"lulesh": func() Parser { return Lulesh{} },
}

// Names returns the names of all known parsers, sorted.
func Names() []string {
	var names []string
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the parser registered as name.
func Lookup(name string) (Parser, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown parser %q (known: %v)", name, Names())
	}
	return mk(), nil
}

// ForPlugin returns the parser used to ingest logs produced under
// perf stat with the benchmark-specific plugin. The perf counters are
// always parsed; plugin, if not empty, adds the benchmark's own
// output fields.
func ForPlugin(plugin string) (Parser, error) {
	if plugin == "" || plugin == "perf" {
		return PerfStat{}, nil
	}
	p, err := Lookup(plugin)
	if err != nil {
		return nil, err
	}
	return Chain{PerfStat{}, p}, nil
}

// A Chain runs several parsers over the same input and merges their
// metrics. When two parsers produce the same key, the later parser
// wins, but the key keeps its first position.
type Chain []Parser

func (c Chain) Name() string {
	name := ""
	for i, p := range c {
		if i > 0 {
			name += "+"
		}
		name += p.Name()
	}
	return name
}

func (c Chain) Parse(raw []byte) []record.Metric {
	ms, _ := c.ParseWarn(raw)
	return ms
}

func (c Chain) ParseWarn(raw []byte) ([]record.Metric, []error) {
	var merged record.Record
	var warnings []error
	for _, p := range c {
		var ms []record.Metric
		if wp, ok := p.(WarningParser); ok {
			var ws []error
			ms, ws = wp.ParseWarn(raw)
			warnings = append(warnings, ws...)
		} else {
			ms = p.Parse(raw)
		}
		for _, m := range ms {
			merged.Set(m.Key, m.Value)
		}
	}
	return merged.Metrics, warnings
}
