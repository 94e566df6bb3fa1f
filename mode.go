package lessonview

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExerciseMode controls how interactive cells are displayed and answered.
type ExerciseMode int

const (
	ModeDisabled ExerciseMode = iota
	ModeShow
	ModeHoverReveal
	ModeClickReveal
	ModeCensorByLetter
	ModeTypeField
	ModeDropDown
)

// SelectableModes lists the modes offered in a table's mode selector, in
// display order.
var SelectableModes = []ExerciseMode{
	ModeShow,
	ModeHoverReveal,
	ModeClickReveal,
	ModeCensorByLetter,
	ModeTypeField,
	ModeDropDown,
}

var modeNames = map[ExerciseMode]string{
	ModeDisabled:       "Disabled",
	ModeShow:           "Show",
	ModeHoverReveal:    "HoverReveal",
	ModeClickReveal:    "ClickReveal",
	ModeCensorByLetter: "CensorByLetter",
	ModeTypeField:      "TypeField",
	ModeDropDown:       "DropDown",
}

var modeLabels = map[ExerciseMode]string{
	ModeShow:           "Reveal all",
	ModeHoverReveal:    "Hover reveal",
	ModeClickReveal:    "Click reveal",
	ModeCensorByLetter: "Reveal by letter",
	ModeTypeField:      "Enter text",
	ModeDropDown:       "Drop down",
}

// ParseExerciseMode parses a mode name. "Censor" is accepted as the old name
// of HoverReveal.
func ParseExerciseMode(s string) (ExerciseMode, error) {
	if s == "Censor" {
		return ModeHoverReveal, nil
	}
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeDisabled, fmt.Errorf("unknown exercise mode %q", s)
}

func (m ExerciseMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ExerciseMode(%d)", int(m))
}

// Label is the human readable name shown in the mode selector.
func (m ExerciseMode) Label() string {
	return modeLabels[m]
}

// HasInput reports whether the mode asks the learner for answers.
func (m ExerciseMode) HasInput() bool {
	return m == ModeTypeField || m == ModeDropDown
}

// Resettable reports whether the mode keeps per-cell state that a reset
// discards.
func (m ExerciseMode) Resettable() bool {
	return m == ModeClickReveal || m == ModeTypeField || m == ModeDropDown
}

func (m ExerciseMode) MarshalText() ([]byte, error) {
	name, ok := modeNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown exercise mode %d", int(m))
	}
	return []byte(name), nil
}

func (m *ExerciseMode) UnmarshalText(text []byte) error {
	parsed, err := ParseExerciseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// OptionsStyleType is an author override for where drop down candidates come
// from.
type OptionsStyleType int

const (
	OptionsDisabled OptionsStyleType = iota
	OptionsAll
	OptionsByCol
)

var optionsNames = map[OptionsStyleType]string{
	OptionsDisabled: "Disabled",
	OptionsAll:      "All",
	OptionsByCol:    "ByCol",
}

// ParseOptionsStyleType parses "Disabled", "All" or "ByCol".
func ParseOptionsStyleType(s string) (OptionsStyleType, error) {
	for t, name := range optionsNames {
		if name == s {
			return t, nil
		}
	}
	return OptionsDisabled, fmt.Errorf("unknown options style %q", s)
}

func (t OptionsStyleType) String() string {
	if name, ok := optionsNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OptionsStyleType(%d)", int(t))
}

func (t OptionsStyleType) MarshalText() ([]byte, error) {
	name, ok := optionsNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown options style %d", int(t))
	}
	return []byte(name), nil
}

func (t *OptionsStyleType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionsStyleType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// taggedOptionsStyle is the object form {"type": "ByCol"} used by older
// lesson files.
type taggedOptionsStyle struct {
	Type string `json:"type" yaml:"type"`
}

// UnmarshalJSON accepts both "ByCol" and {"type": "ByCol"}.
func (t *OptionsStyleType) UnmarshalJSON(data []byte) error {
	var name string
	if len(data) > 0 && data[0] == '{' {
		var tagged taggedOptionsStyle
		if err := json.Unmarshal(data, &tagged); err != nil {
			return err
		}
		name = tagged.Type
	} else if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(name))
}

// UnmarshalYAML accepts both a scalar and a mapping with a type key.
func (t *OptionsStyleType) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if node.Kind == yaml.MappingNode {
		var tagged taggedOptionsStyle
		if err := node.Decode(&tagged); err != nil {
			return err
		}
		name = tagged.Type
	} else if err := node.Decode(&name); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(name))
}
