// Package options decides where the candidates of a drop down cell come from:
// the whole table, the cell's column, or nowhere.
package options

import (
	"github.com/samber/lo"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/cell"
)

// Style is one of Disabled, All or ByColumn.
type Style interface {
	// Type reports the kind of style.
	Type() lessonview.OptionsStyleType
	// For returns the candidates offered to a cell in column col.
	For(col int) []string
}

// Disabled offers no drop down.
type Disabled struct{}

// All offers every distinct answer of the table to every cell.
type All struct {
	Options []string
}

// ByColumn offers each cell the distinct answers of its own column.
type ByColumn struct {
	Columns [][]string
}

func (Disabled) Type() lessonview.OptionsStyleType { return lessonview.OptionsDisabled }
func (All) Type() lessonview.OptionsStyleType      { return lessonview.OptionsAll }
func (ByColumn) Type() lessonview.OptionsStyleType { return lessonview.OptionsByCol }

func (Disabled) For(int) []string { return nil }

func (a All) For(int) []string { return a.Options }

func (b ByColumn) For(col int) []string {
	if col < 0 || col >= len(b.Columns) {
		return nil
	}
	return b.Columns[col]
}

// IsDisabled reports whether s offers no drop down.
func IsDisabled(s Style) bool {
	return s == nil || s.Type() == lessonview.OptionsDisabled
}

// Predict picks the options style of a table. An explicit author choice is
// honoured; otherwise the shape of the interactive cells decides. Candidate
// lists are deduplicated and shuffled once here.
func Predict(explicit *lessonview.OptionsStyleType, t cell.Table, locs [][]cell.Location) Style {
	var kind lessonview.OptionsStyleType
	if explicit != nil {
		kind = *explicit
	} else {
		kind = classify(t, locs)
	}

	switch kind {
	case lessonview.OptionsAll:
		opts := candidates(lo.Flatten([][]cell.Cell(t)))
		if len(opts) <= 1 {
			return Disabled{}
		}
		return All{Options: opts}
	case lessonview.OptionsByCol:
		cols := make([][]cell.Cell, t.Width())
		for _, row := range t {
			for c, cl := range row {
				cols[c] = append(cols[c], cl)
			}
		}
		return ByColumn{Columns: lo.Map(cols, func(col []cell.Cell, _ int) []string {
			return candidates(col)
		})}
	default:
		return Disabled{}
	}
}

// classify predicts the style type from the positions of interactive cells.
func classify(t cell.Table, locs [][]cell.Location) lessonview.OptionsStyleType {
	flat := lo.Flatten(locs)
	interactive := func(l cell.Location) bool { return cell.IsInteractive(t.At(l)) }

	topLeft, ok := lo.Find(flat, interactive)
	if !ok {
		return lessonview.OptionsDisabled
	}
	bottomRight, _, _ := lo.FindLastIndexOf(flat, interactive)

	extendsHorizontally := topLeft.Col == 0 && bottomRight.Col == t.RowLen(bottomRight.Row)-1
	if !extendsHorizontally {
		return lessonview.OptionsAll
	}

	// A grid needs every interactive cell inside the rectangle and every
	// label outside it.
	_, broken := lo.Find(flat, func(l cell.Location) bool {
		return interactive(l) != l.Within(topLeft, bottomRight)
	})
	if broken {
		return lessonview.OptionsAll
	}
	return lessonview.OptionsByCol
}

// candidates returns the distinct answers among cells in random order.
func candidates(cells []cell.Cell) []string {
	answers := lo.FilterMap(cells, func(c cell.Cell, _ int) (string, bool) {
		ic, ok := c.(cell.Interactive)
		return ic.Middle, ok
	})
	return lo.Shuffle(lo.Uniq(answers))
}
