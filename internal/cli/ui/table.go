package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const (
	columnGap    = "  "
	defaultWidth = 80
	ruleRune     = "─"
)

// style returns a color with the given attributes, disabled when noColor is set
func style(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// Table renders rows of model metadata or query spaces in aligned columns
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{writer: w, headers: headers}
	if opts != nil {
		t.noColor = opts.NoColor
	}
	return t
}

// AddRow adds a row to the table. Cells beyond the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// columnWidths is the widest cell per column, headers included
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len(row[i]))
		}
	}
	return widths
}

// Render writes the header, a rule under each column, then every row
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}
	widths := t.columnWidths()

	writeCells(t.writer, t.headers, widths, style(t.noColor, color.Bold, color.FgCyan))

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat(ruleRune, w)
	}
	writeCells(t.writer, rules, widths, style(t.noColor, color.FgHiBlack))

	for _, row := range t.rows {
		if len(row) > len(widths) {
			row = row[:len(widths)]
		}
		writeCells(t.writer, row, widths, nil)
	}
}

func writeCells(w io.Writer, cells []string, widths []int, c *color.Color) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, columnGap)
		}
		padded := padRight(cell, widths[i])
		if c != nil {
			c.Fprint(w, padded)
		} else {
			fmt.Fprint(w, padded)
		}
	}
	fmt.Fprintln(w)
}

// padRight pads s with spaces up to width; longer strings are returned as is
func padRight(s string, width int) string {
	if n := width - len(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// KeyValueTable renders "key: value" lines with the values aligned
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		width = max(width, len(k)+1)
	}
	label := style(t.noColor, color.FgCyan)
	for i, k := range t.keys {
		label.Fprint(t.writer, padRight(k+":", width))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}

// Divider renders a horizontal rule; width 0 means 80 columns
func Divider(w io.Writer, width int, noColor bool) {
	if width == 0 {
		width = defaultWidth
	}
	style(noColor, color.FgHiBlack).Fprintln(w, strings.Repeat(ruleRune, width))
}

// Header renders a section title underlined to its own width
func Header(w io.Writer, title string, noColor bool) {
	style(noColor, color.Bold, color.FgCyan).Fprintln(w, title)
	Divider(w, len(title), noColor)
}
