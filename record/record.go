// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package record holds the leaf data of an aggregation: one parsed
// benchmark log and the metrics extracted from it.
//
// A Record is produced by a parser, named by the aggregator after the
// log it came from, and then owned by whichever category tree node it
// was added to. Callers should treat it as immutable once added.
package record

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// A Record is a single benchmark log and all of its metrics.
type Record struct {
	// Name is the log identifier this record was parsed from,
	// typically the log file name.
	Name string

	// Metrics is the ordered set of name/value pairs extracted
	// from the log.
	//
	// Record internally maintains an index of the keys of this
	// slice, so callers must use Set to add keys, but may modify
	// values in place. For convenience, new Records can be
	// initialized directly, e.g., using a struct literal.
	Metrics []Metric

	// pos maps from Metric.Key to index in Metrics. This may be
	// nil, which indicates the index needs to be constructed.
	pos map[string]int
}

// A Metric is a single name/value pair. Values are kept as the text
// the parser extracted; use Float to interpret them.
type Metric struct {
	Key   string
	Value string
}

// New returns a Record named name holding metrics, in order. Later
// duplicate keys override earlier ones.
func New(name string, metrics ...Metric) *Record {
	r := &Record{Name: name}
	for _, m := range metrics {
		r.Set(m.Key, m.Value)
	}
	return r
}

// Len returns the number of metrics in r.
func (r *Record) Len() int {
	return len(r.Metrics)
}

// Keys returns the metric names of r in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.Metrics))
	for i, m := range r.Metrics {
		keys[i] = m.Key
	}
	return keys
}

// Set sets metric key to value, overriding an existing value in
// place or appending a new metric.
func (r *Record) Set(key, value string) {
	if i, ok := r.index(key); ok {
		r.Metrics[i].Value = value
		return
	}
	r.Metrics = append(r.Metrics, Metric{key, value})
	r.pos[key] = len(r.Metrics) - 1
}

// Get returns the value of metric key, or "" if there is no such key.
func (r *Record) Get(key string) string {
	if i, ok := r.index(key); ok {
		return r.Metrics[i].Value
	}
	return ""
}

// Float returns the numeric value of metric key. It reports false if
// there is no such key or if its value is not a number.
func (r *Record) Float(key string) (float64, bool) {
	if i, ok := r.index(key); ok {
		v, err := ParseValue(r.Metrics[i].Value)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

// Clone makes a copy of r that shares no state with r.
func (r *Record) Clone() *Record {
	return &Record{
		Name:    r.Name,
		Metrics: append([]Metric(nil), r.Metrics...),
	}
}

func (r *Record) index(key string) (int, bool) {
	if r.pos == nil || len(r.pos) != len(r.Metrics) {
		r.pos = make(map[string]int, len(r.Metrics))
		for i, m := range r.Metrics {
			r.pos[m.Key] = i
		}
	}
	i, ok := r.pos[key]
	return i, ok
}

const siPrefixes = `KMGTPEZY`

var suffixRe = regexp.MustCompile(`^([-+]?[0-9.]+(?:[eE][-+]?[0-9]+)?)([k` + siPrefixes + `]i?)?$`)

// ParseValue is a fuzzy number parser for metric values. Besides
// plain floats it accepts thousands separators ("383,614"), trailing
// percent signs and SI or IEC prefixes ("1.5k", "2Gi").
func ParseValue(x string) (float64, error) {
	x = strings.TrimSpace(x)
	x = strings.TrimSuffix(x, "%")
	x = strings.ReplaceAll(x, ",", "")
	v, err := strconv.ParseFloat(x, 64)
	if err == nil {
		return v, nil
	}

	subs := suffixRe.FindStringSubmatch(x)
	if subs == nil {
		return 0, strconv.ErrSyntax
	}
	v, err = strconv.ParseFloat(subs[1], 64)
	if err != nil {
		return 0, err
	}
	exp := 0
	if len(subs[2]) > 0 {
		pre := subs[2][0]
		if pre == 'k' {
			pre = 'K'
		}
		exp = 1 + strings.IndexByte(siPrefixes, pre)
	}
	if strings.HasSuffix(subs[2], "i") {
		return v * math.Pow(1024, float64(exp)), nil
	}
	return v * math.Pow(1000, float64(exp)), nil
}
