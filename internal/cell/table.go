package cell

// Location addresses a cell by row and column.
type Location struct {
	Row int
	Col int
}

// LeftOf reports whether l lies in a column left of other.
func (l Location) LeftOf(other Location) bool { return l.Col < other.Col }

// RightOf reports whether l lies in a column right of other.
func (l Location) RightOf(other Location) bool { return l.Col > other.Col }

// Above reports whether l lies in a row above other.
func (l Location) Above(other Location) bool { return l.Row < other.Row }

// Below reports whether l lies in a row below other.
func (l Location) Below(other Location) bool { return l.Row > other.Row }

// Within reports whether l lies inside the rectangle spanned by topLeft and
// bottomRight, inclusive.
func (l Location) Within(topLeft, bottomRight Location) bool {
	return !l.LeftOf(topLeft) && !l.Above(topLeft) && !l.RightOf(bottomRight) && !l.Below(bottomRight)
}

// Table is a parsed exercise table. Rows may have different lengths.
type Table [][]Cell

// ParseTable parses every cell of rows.
func ParseTable(rows [][]string) Table {
	t := make(Table, len(rows))
	for r, row := range rows {
		t[r] = make([]Cell, len(row))
		for c, raw := range row {
			t[r][c] = Parse(raw)
		}
	}
	return t
}

// LocationGrid builds the grid of locations for rows. It depends only on the
// row lengths, so it always has the same shape as ParseTable(rows).
func LocationGrid(rows [][]string) [][]Location {
	grid := make([][]Location, len(rows))
	for r, row := range rows {
		grid[r] = make([]Location, len(row))
		for c := range row {
			grid[r][c] = Location{Row: r, Col: c}
		}
	}
	return grid
}

// Lookup returns the cell at loc.
func (t Table) Lookup(loc Location) (Cell, bool) {
	if loc.Row < 0 || loc.Row >= len(t) {
		return nil, false
	}
	row := t[loc.Row]
	if loc.Col < 0 || loc.Col >= len(row) {
		return nil, false
	}
	return row[loc.Col], true
}

// At returns the cell at loc. loc must come from the table's location grid.
func (t Table) At(loc Location) Cell {
	return t[loc.Row][loc.Col]
}

// RowLen returns the number of cells in row r.
func (t Table) RowLen(r int) int {
	return len(t[r])
}

// Width returns the length of the longest row.
func (t Table) Width() int {
	w := 0
	for _, row := range t {
		w = max(w, len(row))
	}
	return w
}

// Interactive returns the locations of interactive cells in row-major order.
func (t Table) Interactive() []Location {
	var locs []Location
	for r, row := range t {
		for c, cl := range row {
			if IsInteractive(cl) {
				locs = append(locs, Location{Row: r, Col: c})
			}
		}
	}
	return locs
}

// HasInteractive reports whether any cell is interactive.
func (t Table) HasInteractive() bool {
	for _, row := range t {
		for _, cl := range row {
			if IsInteractive(cl) {
				return true
			}
		}
	}
	return false
}

// Answers returns the middle of every interactive cell in column col, in row
// order. Duplicates are kept.
func (t Table) Answers(col int) []string {
	var answers []string
	for _, row := range t {
		if col >= len(row) {
			continue
		}
		if ic, ok := row[col].(Interactive); ok {
			answers = append(answers, ic.Middle)
		}
	}
	return answers
}
