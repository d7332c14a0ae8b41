// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff reports differences between expected and actual text
// output in tests.
package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff from want to got, or "" if they are
// equal.
func Diff(want, got string) string {
	if want == got {
		return ""
	}
	d, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("diff failed: %v\nwant: %q\ngot:  %q", err, want, got)
	}
	if d == "" {
		// Equal modulo line splitting, e.g. a missing final newline.
		return fmt.Sprintf("want: %q\ngot:  %q", want, got)
	}
	return d
}
