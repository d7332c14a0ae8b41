// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out plain-text tables with aligned columns.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so calls can be chained to build up a
// row at once.
type Table struct {
	rows [][]cell
}

type cell struct {
	value      string
	leftMargin string
	alignment  align
}

// A CellOption changes how one cell is laid out.
type CellOption func(c *cell)

// LeftMargin sets the text printed before the cell. The column's
// margin is as wide as the widest margin in it.
func LeftMargin(x string) CellOption {
	return func(c *cell) {
		c.leftMargin = x
	}
}

var (
	Left  CellOption = func(c *cell) { c.alignment = alignLeft }
	Right CellOption = func(c *cell) { c.alignment = alignRight }
)

type align int

const (
	alignLeft align = iota
	alignRight
)

func (a align) pad(s string, w int) string {
	if a == alignRight {
		return fmt.Sprintf("%*s", w, s)
	}
	return s
}

// Row starts a new row in table t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell adds a cell at the end of the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	row := &t.rows[len(t.rows)-1]
	c := cell{value: value}
	if len(*row) > 0 && value != "" {
		// Cells after the first are separated by a space.
		c.leftMargin = " "
	}
	for _, o := range opts {
		o(&c)
	}
	*row = append(*row, c)
	return t
}

// Format lays out table t and writes it to w. Trailing spaces are not
// printed.
func (t *Table) Format(w io.Writer) error {
	var margins, widths []int
	for _, row := range t.rows {
		for col, c := range row {
			if col == len(widths) {
				margins = append(margins, 0)
				widths = append(widths, 0)
			}
			margins[col] = max(margins[col], utf8.RuneCountInString(c.leftMargin))
			widths[col] = max(widths[col], utf8.RuneCountInString(c.value))
		}
	}

	var line strings.Builder
	for _, row := range t.rows {
		line.Reset()
		for col, c := range row {
			if col > 0 || margins[col] > 0 {
				fmt.Fprintf(&line, "%*s", margins[col], c.leftMargin)
			}
			s := c.alignment.pad(c.value, widths[col])
			line.WriteString(s)
			if col < len(row)-1 {
				fmt.Fprintf(&line, "%*s", widths[col]-utf8.RuneCountInString(s), "")
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
