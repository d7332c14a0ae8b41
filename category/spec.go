// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package category

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Linaro/hpc-benchmark-analysis/analysis"
)

// DefaultSep is the label separator used when no descriptor is given.
const DefaultSep = '-'

// A Mode selects which groups of values a dimension's analysis
// compares.
type Mode int

const (
	// Across compares the same label at this dimension between
	// the sibling branches one level up. For example, with
	// categories compiler-flags, an across analysis on flags
	// compares gcc-O2 with llvm-O2.
	Across Mode = iota

	// Along compares all sibling labels at this dimension under a
	// single parent, such as gcc-O2 with gcc-O3.
	Along
)

func (m Mode) String() string {
	switch m {
	case Across:
		return "across"
	case Along:
		return "along"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func parseMode(s string) (Mode, bool) {
	switch s {
	case "ac", "across":
		return Across, true
	case "al", "along":
		return Along, true
	}
	return 0, false
}

// A Dimension is the analysis configured for one level of the
// category hierarchy.
type Dimension struct {
	Kind analysis.Kind

	// Param is the parameter as written in the descriptor.
	Param string

	// Options are the pass options derived from Param.
	Options analysis.Options

	Mode Mode
}

// String returns the descriptor directive for d.
func (d Dimension) String() string {
	if d.Kind == analysis.KindNone {
		return "none"
	}
	s := d.Kind.String() + "=" + d.Param
	if d.Mode != Across {
		s += "/" + d.Mode.String()
	}
	return s
}

// A Spec describes how log names decompose into categories and which
// analysis to run at each level.
//
// It is parsed from a descriptor of comma-separated directives:
//
//	sep=<char>[,<directive>...]
//
// where each directive is "none" or <kind>=<param>[/<mode>], kind is
// one of outlier, cluster or fit, and mode is across (ac, the
// default) or along (al).
type Spec struct {
	Sep  rune
	Dims []Dimension
}

// ParseSpec parses a descriptor string. An empty descriptor yields
// the default separator and no analyses.
func ParseSpec(desc string) (*Spec, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return &Spec{Sep: DefaultSep}, nil
	}
	toks := strings.Split(desc, ",")
	first := strings.TrimSpace(toks[0])
	sep, ok := strings.CutPrefix(first, "sep=")
	if !ok {
		return nil, configErrorf("descriptor must start with sep=<char>, got %q", first)
	}
	if utf8.RuneCountInString(sep) != 1 {
		return nil, configErrorf("separator must be a single character, got %q", sep)
	}
	s := &Spec{Sep: []rune(sep)[0]}
	for i, tok := range toks[1:] {
		d, err := parseDimension(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("dimension %d: %w", i, err)
		}
		s.Dims = append(s.Dims, d)
	}
	return s, nil
}

func parseDimension(tok string) (Dimension, error) {
	if tok == "none" {
		return Dimension{Kind: analysis.KindNone}, nil
	}
	name, arg, ok := strings.Cut(tok, "=")
	if !ok || arg == "" {
		return Dimension{}, configErrorf("malformed directive %q, want <kind>=<param>[/<mode>]", tok)
	}
	kind, err := analysis.ParseKind(name)
	if err != nil {
		return Dimension{}, err
	}
	if kind == analysis.KindNone {
		return Dimension{}, configErrorf("none takes no parameter, got %q", tok)
	}
	d := Dimension{Kind: kind, Mode: Across}
	param, mode, hasMode := strings.Cut(arg, "/")
	if hasMode {
		m, ok := parseMode(mode)
		if !ok {
			return Dimension{}, configErrorf("unknown mode %q in %q, want ac or al", mode, tok)
		}
		d.Mode = m
	}
	d.Options, err = analysis.ParamOptions(kind, param)
	if err != nil {
		return Dimension{}, err
	}
	d.Param = param
	return d, nil
}

// String returns the descriptor for s. Parsing the result yields an
// equivalent Spec.
func (s *Spec) String() string {
	var b strings.Builder
	b.WriteString("sep=")
	b.WriteRune(s.Sep)
	for _, d := range s.Dims {
		b.WriteByte(',')
		b.WriteString(d.String())
	}
	return b.String()
}

// NumDims returns the number of dimensions s configures. Zero means
// s places no constraint on the depth of the category tree.
func (s *Spec) NumDims() int {
	return len(s.Dims)
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", analysis.ErrConfig, fmt.Sprintf(format, args...))
}
