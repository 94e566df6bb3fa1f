package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/cell"
)

// Store is implemented by block states driven by websocket actions.
// HandleAction reports whether the block needs to be re-rendered.
type Store interface {
	HandleAction(action string, data map[string]interface{}) (bool, error)
}

var _ Store = (*Table)(nil)

// HandleAction dispatches a client action:
//
//	mode   {mode}
//	check
//	reset
//	flip   {row, col}
//	input  {row, col, value}
//	select {row, col, value}
func (t *Table) HandleAction(action string, data map[string]interface{}) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch strings.ToLower(action) {
	case "mode":
		name, _ := data["mode"].(string)
		next, err := lessonview.ParseExerciseMode(name)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		return t.switchMode(next)
	case "check":
		return rendered(t.toggleChecking())
	case "reset":
		return rendered(t.reset())
	case "flip":
		loc, err := locationArg(data)
		if err != nil {
			return false, err
		}
		return rendered(t.flip(loc))
	case "input":
		loc, err := locationArg(data)
		if err != nil {
			return false, err
		}
		value, _ := data["value"].(string)
		if err := t.input(loc, value); err != nil {
			return false, err
		}
		// The browser already shows what was typed; only a verdict can change.
		return t.tracking.Checking, nil
	case "select":
		loc, err := locationArg(data)
		if err != nil {
			return false, err
		}
		value, _ := data["value"].(string)
		if err := t.selectOption(loc, value); err != nil {
			return false, err
		}
		return t.tracking.Checking, nil
	default:
		return false, fmt.Errorf("unknown action: %s", action)
	}
}

func rendered(err error) (bool, error) {
	return err == nil, err
}

func locationArg(data map[string]interface{}) (cell.Location, error) {
	row, err := intArg(data, "row")
	if err != nil {
		return cell.Location{}, err
	}
	col, err := intArg(data, "col")
	if err != nil {
		return cell.Location{}, err
	}
	return cell.Location{Row: row, Col: col}, nil
}

// intArg reads an integer argument. JSON numbers arrive as float64 and data
// attributes as strings.
func intArg(data map[string]interface{}, name string) (int, error) {
	switch v := data[name].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer, got %v", name, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer: %w", name, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("missing %s", name)
	default:
		return 0, fmt.Errorf("%s has unsupported type %T", name, v)
	}
}
