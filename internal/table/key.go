package table

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/livetemplate/lessonview/internal/cell"
)

// CellKey identifies the state of one cell. A new mode or reset generation
// yields a new key, so stale state is never reused.
type CellKey struct {
	TableID    string
	Mode       ExerciseMode
	Location   cell.Location
	Generation int
}

// DOMKey is the element key sent to the client. The client replaces an
// element whenever its key changes.
func (k CellKey) DOMKey() string {
	h, err := hashstructure.Hash(k, hashstructure.FormatV2, nil)
	if err != nil {
		return fmt.Sprintf("%s-%d-%d-%d-%d", k.TableID, k.Mode, k.Location.Row, k.Location.Col, k.Generation)
	}
	return strconv.FormatUint(h, 36)
}
