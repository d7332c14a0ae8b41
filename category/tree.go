// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package category organizes benchmark records into a hierarchy of
// categories derived from their log names.
//
// A log named "gcc-O3-a57-8.log" in run "machine1", with separator
// '-', is stored at the path machine1 → gcc → O3 → a57 → 8. Every log
// added to a Tree must decompose into the same number of labels.
package category

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// A Node is one category in a Tree. Interior nodes have Children;
// leaves have a Record.
type Node struct {
	Label    string
	Children []*Node
	Record   *record.Record

	index map[string]int
}

// Leaf reports whether n holds a record.
func (n *Node) Leaf() bool {
	return n.Record != nil
}

// Child returns the child labelled label, or nil.
func (n *Node) Child(label string) *Node {
	if i, ok := n.index[label]; ok {
		return n.Children[i]
	}
	return nil
}

func (n *Node) child(label string) *Node {
	if c := n.Child(label); c != nil {
		return c
	}
	if n.index == nil {
		n.index = make(map[string]int)
	}
	c := &Node{Label: label}
	n.index[label] = len(n.Children)
	n.Children = append(n.Children, c)
	return c
}

// A Tree holds the records of one benchmark, grouped by run and then
// by the categories in each log name.
//
// A Tree is not safe for concurrent modification. All Adds must
// complete before the tree is analyzed.
type Tree struct {
	Name string

	spec  *Spec
	extRe *regexp.Regexp
	dims  int
	logs  int
	root  Node
	log   logrus.FieldLogger
}

// New returns an empty tree using the default separator and no
// analyses.
func New(name string) *Tree {
	t := &Tree{Name: name, log: logrus.StandardLogger()}
	t.setSpec(&Spec{Sep: DefaultSep})
	return t
}

// SetLogger sets the logger used for warnings about the added logs.
func (t *Tree) SetLogger(log logrus.FieldLogger) {
	t.log = log
}

func (t *Tree) setSpec(s *Spec) {
	t.spec = s
	sep := regexp.QuoteMeta(string(s.Sep))
	t.extRe = regexp.MustCompile(`\.[^.` + sep + `]+$`)
}

// Configure parses descriptor and uses it for this tree. It fails
// with a configuration error if the descriptor is malformed or, when
// logs have already been added, if its dimension count differs from
// the tree's.
func (t *Tree) Configure(descriptor string) error {
	s, err := ParseSpec(descriptor)
	if err != nil {
		return err
	}
	return t.SetSpec(s)
}

// SetSpec is like Configure for an already parsed Spec.
func (t *Tree) SetSpec(s *Spec) error {
	if t.logs > 0 && s.Sep != t.spec.Sep {
		return configErrorf("cannot change separator from %q to %q after adding logs", t.spec.Sep, s.Sep)
	}
	if t.dims > 0 && s.NumDims() > 0 && s.NumDims() != t.dims {
		return configErrorf("descriptor has %d dimensions but logs have %d categories", s.NumDims(), t.dims)
	}
	t.setSpec(s)
	return nil
}

// Spec returns the tree's configuration.
func (t *Tree) Spec() *Spec {
	return t.spec
}

// Labels returns the category labels of a log: its name without the
// extension, split on the separator.
func (t *Tree) Labels(logID string) []string {
	return strings.Split(t.extRe.ReplaceAllString(logID, ""), string(t.spec.Sep))
}

// Add stores r under run at the path given by logID's labels. If the
// path already holds a record, it is replaced.
//
// The first log added fixes the number of categories. Add fails with
// a configuration error, leaving the tree unchanged, if a later log
// has a different number of labels or if the labels do not match the
// number of configured dimensions.
func (t *Tree) Add(run, logID string, r *record.Record) error {
	labels := t.Labels(logID)
	if t.dims > 0 && len(labels) != t.dims {
		return configErrorf("log %s has %d categories, want %d", logID, len(labels), t.dims)
	}
	if n := t.spec.NumDims(); n > 0 && len(labels) != n {
		return configErrorf("log %s has %d categories but the descriptor has %d dimensions", logID, len(labels), n)
	}

	if t.dims == 0 && len(labels) == 1 {
		t.log.WithFields(logrus.Fields{"tree": t.Name, "log": logID}).
			Warn("no separators in log names, using one category")
	}
	t.dims = len(labels)
	t.logs++

	switch {
	case r == nil:
		r = record.New(logID)
	case r.Name != logID:
		// The caller's record is left as the parser built it.
		r = r.Clone()
		r.Name = logID
	}
	n := t.root.child(run)
	for _, label := range labels {
		n = n.child(label)
	}
	n.Record = r
	return nil
}

// Dims returns the number of categories in each log name, or 0 if no
// logs have been added.
func (t *Tree) Dims() int {
	return t.dims
}

// Logs returns the number of logs added, including replaced ones.
func (t *Tree) Logs() int {
	return t.logs
}

// Runs returns the top-level nodes of the tree, one per run, in the
// order they were first added.
func (t *Tree) Runs() []*Node {
	return t.root.Children
}

// Run returns the node for run, or nil.
func (t *Tree) Run(run string) *Node {
	return t.root.Child(run)
}

// Level returns all nodes at the given category depth, in tree
// order. Depth 0 is the first label of each log.
func (t *Tree) Level(depth int) []*Node {
	if depth < 0 || depth >= t.dims {
		return nil
	}
	nodes := t.root.Children
	for i := 0; i <= depth; i++ {
		var next []*Node
		for _, n := range nodes {
			next = append(next, n.Children...)
		}
		nodes = next
	}
	return nodes
}

// Walk calls fn for each record in the tree, depth first, with its
// run and category labels. It stops at the first error fn returns.
func (t *Tree) Walk(fn func(run string, labels []string, r *record.Record) error) error {
	for _, run := range t.root.Children {
		if err := walk(run, nil, func(labels []string, r *record.Record) error {
			return fn(run.Label, labels, r)
		}); err != nil {
			return err
		}
	}
	return nil
}

func walk(n *Node, labels []string, fn func([]string, *record.Record) error) error {
	for _, c := range n.Children {
		path := append(labels[:len(labels):len(labels)], c.Label)
		if c.Leaf() {
			if err := fn(path, c.Record); err != nil {
				return err
			}
			continue
		}
		if err := walk(c, path, fn); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the record at run and labels, or nil.
func (t *Tree) Lookup(run string, labels ...string) *record.Record {
	n := t.root.Child(run)
	for _, l := range labels {
		if n == nil {
			return nil
		}
		n = n.Child(l)
	}
	if n == nil {
		return nil
	}
	return n.Record
}

func (t *Tree) String() string {
	return fmt.Sprintf("%s: %d logs, %d categories", t.Name, t.logs, t.dims)
}
