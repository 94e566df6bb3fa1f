// Package cell parses raw exercise table text into labels and interactive
// tri-split spans, and builds the location grid used to address them.
package cell

import "strings"

// Separator delimits the quizzable middle of a cell: "prefix|answer|suffix".
const Separator = "|"

// Cell is a parsed table cell. It is either a Label or an Interactive.
type Cell interface {
	// Raw reproduces the source text the cell was parsed from.
	Raw() string
	isCell()
}

// Label is non-interactive display text.
type Label struct {
	Text string
}

// TriSplit is a cell's text split around its answer. Start and End are
// always visible context, Middle is the answer.
type TriSplit struct {
	Start  string
	Middle string
	End    string
}

// Interactive is a cell with a quizzable middle.
type Interactive struct {
	TriSplit
}

func (Label) isCell()       {}
func (Interactive) isCell() {}

func (l Label) Raw() string { return l.Text }

func (c Interactive) Raw() string {
	return c.Start + Separator + c.Middle + Separator + c.End
}

// Visible is the full text with the answer shown.
func (s TriSplit) Visible() string {
	return s.Start + s.Middle + s.End
}

// Parse splits raw cell text on its first two separators. Text without two
// separators after the first one is a Label; Parse never fails.
func Parse(raw string) Cell {
	start, rest, ok := strings.Cut(raw, Separator)
	if !ok {
		return Label{Text: raw}
	}
	middle, end, ok := strings.Cut(rest, Separator)
	if !ok {
		return Label{Text: raw}
	}
	return Interactive{TriSplit{Start: start, Middle: middle, End: end}}
}

// IsInteractive reports whether c has a quizzable middle.
func IsInteractive(c Cell) bool {
	_, ok := c.(Interactive)
	return ok
}
