// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"bufio"
	"bytes"
	"strings"
	"unicode"

	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// PerfStat parses the counter summary printed by "perf stat".
//
// Each counter line has the form
//
//	<value> [unit] <event>[:modifiers] [# comment] [( +- N% )]
//
// The event modifiers are dropped, so "instructions:u" is reported
// as "instructions". The trailing "seconds time elapsed", "seconds
// user" and "seconds sys" lines become "elapsed", "user" and "sys".
// When perf ran with -r, the relative standard deviation is reported
// as "<event>.stddev".
type PerfStat struct{}

func (PerfStat) Name() string { return "perf" }

func (p PerfStat) Parse(raw []byte) []record.Metric {
	ms, _ := p.ParseWarn(raw)
	return ms
}

// units that perf may print between a counter value and its event.
var perfUnits = map[string]bool{
	"msec":   true,
	"Bytes":  true,
	"Joules": true,
	"ns":     true,
	"us":     true,
	"ms":     true,
}

var timeLines = map[string]string{
	"time elapsed": "elapsed",
	"user":         "user",
	"sys":          "sys",
}

func (PerfStat) ParseWarn(raw []byte) ([]record.Metric, []error) {
	var r record.Record
	var warnings []error
	s := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}

		// Split off the relative deviation before the comment,
		// since it follows it on the line.
		var stddev string
		if i := strings.Index(text, "( +-"); i >= 0 {
			rest := strings.TrimSpace(text[i+len("( +-"):])
			rest = strings.TrimSuffix(rest, ")")
			stddev = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "%"))
			text = strings.TrimSpace(text[:i])
		}
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}

		f := strings.Fields(text)
		if len(f) < 2 {
			continue
		}
		if strings.HasPrefix(f[0], "<not") {
			// <not counted> or <not supported>.
			continue
		}
		if !startsNumeric(f[0]) {
			continue
		}
		if _, err := record.ParseValue(f[0]); err != nil {
			warnings = append(warnings, &SyntaxError{Line: line, Msg: "bad counter value " + f[0]})
			continue
		}
		value := strings.ReplaceAll(f[0], ",", "")
		if f[1] == "+-" && len(f) > 3 {
			// Absolute deviation printed by newer perf versions.
			f = append(f[:1], f[3:]...)
		}

		var key string
		if f[1] == "seconds" {
			key = timeLines[strings.Join(f[2:], " ")]
		} else {
			ev := 1
			if perfUnits[f[1]] && len(f) > 2 {
				ev = 2
			}
			key = eventName(f[ev])
		}
		if key == "" {
			continue
		}
		r.Set(key, value)
		if stddev != "" {
			r.Set(key+".stddev", stddev)
		}
	}
	return r.Metrics, warnings
}

// startsNumeric reports whether s looks like it was meant to be a
// counter value.
func startsNumeric(s string) bool {
	if len(s) > 1 && (s[0] == '-' || s[0] == '.') {
		s = s[1:]
	}
	return s[0] >= '0' && s[0] <= '9'
}

// eventName strips modifiers from a perf event and reports "" if ev
// does not look like an event name.
func eventName(ev string) string {
	if i := strings.IndexByte(ev, ':'); i > 0 {
		ev = ev[:i]
	}
	if ev == "" || !unicode.IsLetter(rune(ev[0])) {
		return ""
	}
	return ev
}
