// Package table holds the per-session state of one exercise table: its
// display mode, the learner's per-cell progress and the checking toggle.
package table

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/answer"
	"github.com/livetemplate/lessonview/internal/cell"
	"github.com/livetemplate/lessonview/internal/options"
)

var (
	// ErrInvalidState reports an action the table's controls never offer in
	// its current state.
	ErrInvalidState = errors.New("invalid table state")
	// ErrDropDownDisabled is returned when switching to DropDown on a table
	// without drop down candidates.
	ErrDropDownDisabled = errors.New("drop down mode is disabled for this table")
	// ErrUnknownOption is returned when a selected value is not a candidate
	// of the cell.
	ErrUnknownOption = errors.New("value is not an option of this cell")
)

// Tracking is the checking state. It only exists for tables with at least
// one interactive cell.
type Tracking struct {
	Checking bool
}

// cellState is the learner's progress on one cell in one mode.
type cellState struct {
	revealed bool
	value    string
}

// Table is one exercise table owned by a single browser session.
type Table struct {
	mu sync.Mutex

	id         string
	theme      lessonview.Theme
	keyCol     int // -1 when the table has no key column
	parsed     cell.Table
	locations  [][]cell.Location
	style      options.Style
	tracking   *Tracking
	mode       ExerciseMode
	generation int
	states     map[CellKey]*cellState
	sizes      []int
}

// ExerciseMode is re-exported for callers that only deal with tables.
type ExerciseMode = lessonview.ExerciseMode

// New builds the table of an exercise. categories pick the default mode when
// the layout declares none.
func New(id string, layout lessonview.TableLayout, categories []lessonview.Category, theme lessonview.Theme) *Table {
	rows := layout.Table
	if layout.ShuffleRows != nil && *layout.ShuffleRows {
		rows = shuffleRows(rows)
	}

	parsed := cell.ParseTable(rows)
	locations := cell.LocationGrid(rows)

	t := &Table{
		id:        id,
		theme:     theme,
		keyCol:    -1,
		parsed:    parsed,
		locations: locations,
		style:     options.Predict(layout.OptionsStyleType, parsed, locations),
		states:    make(map[CellKey]*cellState),
		sizes:     fieldSizes(parsed),
	}
	if layout.KeyCol != nil {
		t.keyCol = *layout.KeyCol
	}
	if parsed.HasInteractive() {
		t.tracking = &Tracking{}
	}
	t.mode = initialMode(t, layout.DefaultMode, categories)
	return t
}

func initialMode(t *Table, declared *ExerciseMode, categories []lessonview.Category) ExerciseMode {
	if t.tracking == nil {
		return lessonview.ModeDisabled
	}
	if declared != nil && *declared != lessonview.ModeDisabled {
		if *declared != lessonview.ModeDropDown || !options.IsDisabled(t.style) {
			return *declared
		}
	}
	if lessonview.HasCategory(categories, lessonview.CategoryConjugation) {
		return lessonview.ModeHoverReveal
	}
	return lessonview.ModeClickReveal
}

// shuffleRows shuffles the rows holding interactive cells among themselves.
// Label-only rows such as headers keep their position.
func shuffleRows(rows [][]string) [][]string {
	quizRows := lo.Filter(lo.Range(len(rows)), func(r int, _ int) bool {
		return lo.ContainsBy(rows[r], func(raw string) bool {
			return cell.IsInteractive(cell.Parse(raw))
		})
	})
	order := lo.Shuffle(append([]int(nil), quizRows...))

	out := append([][]string(nil), rows...)
	for i, r := range quizRows {
		out[r] = rows[order[i]]
	}
	return out
}

// ID returns the table identifier used as its websocket block ID.
func (t *Table) ID() string {
	return t.id
}

// Mode returns the current display mode.
func (t *Table) Mode() ExerciseMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Style returns the drop down options style.
func (t *Table) Style() options.Style {
	return t.style
}

// Checking reports whether answers are being checked.
func (t *Table) Checking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking != nil && t.tracking.Checking
}

// Generation returns the reset generation.
func (t *Table) Generation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// SetTheme changes the theme used for CSS classes.
func (t *Table) SetTheme(theme lessonview.Theme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.theme = theme
}

// SwitchMode moves the table to next. It reports false without error when
// next is already the current mode, in which case nothing needs re-rendering.
func (t *Table) SwitchMode(next ExerciseMode) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.switchMode(next)
}

func (t *Table) switchMode(next ExerciseMode) (bool, error) {
	if t.mode == lessonview.ModeDisabled {
		return false, fmt.Errorf("%w: table has no interactive cells", ErrInvalidState)
	}
	if next == t.mode {
		return false, nil
	}
	if !lo.Contains(lessonview.SelectableModes, next) {
		return false, fmt.Errorf("%w: cannot switch to %s", ErrInvalidState, next)
	}
	if next == lessonview.ModeDropDown && options.IsDisabled(t.style) {
		return false, ErrDropDownDisabled
	}

	t.mode = next
	// State of other modes is never shown again.
	for k := range t.states {
		if k.Mode != next {
			delete(t.states, k)
		}
	}
	return true, nil
}

// Reset discards every cell's progress in the current mode and turns
// checking off. Only resettable modes can be reset.
func (t *Table) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reset()
}

func (t *Table) reset() error {
	if !t.mode.Resettable() {
		return fmt.Errorf("%w: %s cannot be reset", ErrInvalidState, t.mode)
	}
	t.generation++
	clear(t.states)
	if t.tracking != nil {
		t.tracking.Checking = false
	}
	return nil
}

// ToggleChecking flips the checking flag.
func (t *Table) ToggleChecking() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.toggleChecking()
}

func (t *Table) toggleChecking() error {
	if t.tracking == nil {
		return fmt.Errorf("%w: nothing to check", ErrInvalidState)
	}
	t.tracking.Checking = !t.tracking.Checking
	return nil
}

// Flip toggles a click-reveal cell between spoiled and revealed.
func (t *Table) Flip(loc cell.Location) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flip(loc)
}

func (t *Table) flip(loc cell.Location) error {
	if t.mode != lessonview.ModeClickReveal {
		return fmt.Errorf("%w: flip in %s mode", ErrInvalidState, t.mode)
	}
	if _, err := t.quizCell(loc); err != nil {
		return err
	}
	st := t.state(loc)
	st.revealed = !st.revealed
	return nil
}

// Input records text typed into a cell.
func (t *Table) Input(loc cell.Location, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input(loc, value)
}

func (t *Table) input(loc cell.Location, value string) error {
	if t.mode != lessonview.ModeTypeField {
		return fmt.Errorf("%w: input in %s mode", ErrInvalidState, t.mode)
	}
	if _, err := t.quizCell(loc); err != nil {
		return err
	}
	t.state(loc).value = value
	return nil
}

// Select records the option chosen in a drop down cell. The empty value
// clears the choice.
func (t *Table) Select(loc cell.Location, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selectOption(loc, value)
}

func (t *Table) selectOption(loc cell.Location, value string) error {
	if t.mode != lessonview.ModeDropDown {
		return fmt.Errorf("%w: select in %s mode", ErrInvalidState, t.mode)
	}
	if _, err := t.quizCell(loc); err != nil {
		return err
	}
	if value != "" && !lo.Contains(t.style.For(loc.Col), value) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, value)
	}
	t.state(loc).value = value
	return nil
}

// Verdict checks the learner's answer for one cell.
func (t *Table) Verdict(loc cell.Location) answer.Verdict {
	t.mu.Lock()
	defer t.mu.Unlock()
	ic, err := t.quizCell(loc)
	if err != nil {
		return answer.Unanswered
	}
	return t.verdict(loc, ic)
}

func (t *Table) verdict(loc cell.Location, ic cell.Interactive) answer.Verdict {
	checking := t.tracking != nil && t.tracking.Checking
	value := ""
	if st, ok := t.states[t.key(loc)]; ok {
		value = st.value
	}
	return answer.Check(checking, value, ic.Middle)
}

// quizCell returns the interactive cell at loc, refusing labels and the key
// column.
func (t *Table) quizCell(loc cell.Location) (cell.Interactive, error) {
	c, ok := t.parsed.Lookup(loc)
	if !ok {
		return cell.Interactive{}, fmt.Errorf("%w: no cell at %d,%d", ErrInvalidState, loc.Row, loc.Col)
	}
	ic, ok := c.(cell.Interactive)
	if !ok || loc.Col == t.keyCol {
		return cell.Interactive{}, fmt.Errorf("%w: cell %d,%d is not quizzable", ErrInvalidState, loc.Row, loc.Col)
	}
	return ic, nil
}

func (t *Table) key(loc cell.Location) CellKey {
	return CellKey{TableID: t.id, Mode: t.mode, Location: loc, Generation: t.generation}
}

func (t *Table) state(loc cell.Location) *cellState {
	k := t.key(loc)
	st, ok := t.states[k]
	if !ok {
		st = &cellState{}
		t.states[k] = st
	}
	return st
}
