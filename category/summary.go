// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package category

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSummary writes a depth-first dump of the tree to w: the
// configured analyses, then one line per run and category label,
// indented by depth, followed by the metrics of each leaf.
func (t *Tree) WriteSummary(w io.Writer) error {
	b := bufio.NewWriter(w)
	if len(t.spec.Dims) > 0 {
		fmt.Fprintf(b, " + Analyses:\n")
		for _, d := range t.spec.Dims {
			fmt.Fprintf(b, " - %s\n", d)
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, " + Logs:\n")
	for _, run := range t.root.Children {
		summary(b, run, "")
	}
	return b.Flush()
}

func summary(w io.Writer, n *Node, pad string) {
	fmt.Fprintf(w, "%s%s\n", pad, n.Label)
	pad += "  "
	if n.Leaf() {
		fmt.Fprintf(w, "%sLogfile: %s\n", pad, n.Record.Name)
		for _, m := range n.Record.Metrics {
			fmt.Fprintf(w, "%s%s = %s\n", pad, m.Key, m.Value)
		}
		fmt.Fprintf(w, "\n")
		return
	}
	for _, c := range n.Children {
		summary(w, c, pad)
	}
}
