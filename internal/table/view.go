package table

import (
	"github.com/mattn/go-runewidth"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/cell"
	"github.com/livetemplate/lessonview/internal/options"
)

// CellKind selects how a cell is drawn.
type CellKind string

const (
	KindLabel   CellKind = "label"   // plain text
	KindShow    CellKind = "show"    // answer visible
	KindHover   CellKind = "hover"   // answer hidden until hovered
	KindSpoiler CellKind = "spoiler" // answer hidden until clicked
	KindText    CellKind = "text"    // free text input
	KindSelect  CellKind = "select"  // drop down
	KindEmpty   CellKind = "empty"   // not drawn at all
)

// View is everything needed to draw a table. It holds no references to the
// table's state.
type View struct {
	ID        string
	Theme     lessonview.Theme
	Mode      ExerciseMode
	Modes     []ModeOption // nil when the table is disabled
	ShowCheck bool
	ShowReset bool
	Checking  bool
	Rows      [][]CellView
}

// ModeOption is an entry of the mode selector.
type ModeOption struct {
	Value    string
	Label    string
	Selected bool
	Disabled bool
}

// CellView is one drawn cell.
type CellView struct {
	Kind     CellKind
	Row      int
	Col      int
	Key      string
	Text     string // label text
	Start    string
	Middle   string
	End      string
	Revealed bool
	Value    string
	Size     int
	Options  []string
	Class    string // checking verdict
}

// View snapshots the table for rendering.
func (t *Table) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view()
}

func (t *Table) view() View {
	v := View{
		ID:    t.id,
		Theme: t.theme,
		Mode:  t.mode,
		Rows:  make([][]CellView, len(t.locations)),
	}

	if t.mode != lessonview.ModeDisabled {
		for _, m := range lessonview.SelectableModes {
			v.Modes = append(v.Modes, ModeOption{
				Value:    m.String(),
				Label:    m.Label(),
				Selected: m == t.mode,
				Disabled: m == lessonview.ModeDropDown && options.IsDisabled(t.style),
			})
		}
		v.ShowCheck = t.mode.HasInput()
		v.ShowReset = t.mode.Resettable()
		v.Checking = t.tracking != nil && t.tracking.Checking
	}

	for r, row := range t.locations {
		v.Rows[r] = make([]CellView, 0, len(row))
		for _, loc := range row {
			cv := t.cellView(loc)
			if cv.Kind == KindEmpty {
				continue
			}
			v.Rows[r] = append(v.Rows[r], cv)
		}
	}
	return v
}

func (t *Table) cellView(loc cell.Location) CellView {
	cv := CellView{Row: loc.Row, Col: loc.Col}

	ic, ok := t.parsed.At(loc).(cell.Interactive)
	if !ok {
		cv.Kind = KindLabel
		cv.Text = t.parsed.At(loc).Raw()
		return cv
	}
	if loc.Col == t.keyCol {
		cv.Kind = KindLabel
		cv.Text = ic.Visible()
		return cv
	}

	cv.Start, cv.Middle, cv.End = ic.Start, ic.Middle, ic.End
	key := t.key(loc)
	cv.Key = key.DOMKey()
	st := t.states[key]

	switch t.mode {
	case lessonview.ModeShow:
		cv.Kind = KindShow
	case lessonview.ModeHoverReveal:
		cv.Kind = KindHover
	case lessonview.ModeClickReveal:
		cv.Kind = KindSpoiler
		cv.Revealed = st != nil && st.revealed
	case lessonview.ModeTypeField:
		cv.Kind = KindText
		cv.Size = t.sizes[loc.Col]
		cv.Class = t.verdict(loc, ic).Class()
		if st != nil {
			cv.Value = st.value
		}
	case lessonview.ModeDropDown:
		cv.Kind = KindSelect
		cv.Options = t.style.For(loc.Col)
		cv.Class = t.verdict(loc, ic).Class()
		if st != nil {
			cv.Value = st.value
		}
	case lessonview.ModeCensorByLetter:
		cv.Kind = KindEmpty
	default:
		// Disabled tables have no interactive cells.
		cv.Kind = KindLabel
		cv.Text = ic.Visible()
	}
	return cv
}

// fieldSizes gives each column's text input size: half the display width of
// the column's widest answer, at least 1.
func fieldSizes(t cell.Table) []int {
	sizes := make([]int, t.Width())
	for c := range sizes {
		widest := 0
		for _, a := range t.Answers(c) {
			widest = max(widest, runewidth.StringWidth(a))
		}
		sizes[c] = max(1, widest/2)
	}
	return sizes
}
