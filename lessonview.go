// Package lessonview provides the document model of an interactive language
// course: lessons made of exercises, each optionally carrying a quiz table.
package lessonview

import (
	"fmt"
	"strings"
)

// Document is a loaded lesson file.
type Document struct {
	Lessons []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson is an ordered group of exercises.
type Lesson struct {
	Name      string     `json:"name" yaml:"name"`
	Path      string     `json:"path" yaml:"path"`
	Exercises []Exercise `json:"exercises" yaml:"exercises"`
}

// Exercise is one block of a lesson. Every field is optional.
type Exercise struct {
	Title         *string      `json:"title,omitempty" yaml:"title,omitempty"`
	Info          *string      `json:"info,omitempty" yaml:"info,omitempty"`
	Path          *string      `json:"path,omitempty" yaml:"path,omitempty"`
	TableLayout   *TableLayout `json:"table_layout,omitempty" yaml:"table_layout,omitempty"`
	Explanation   *string      `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Page          *int         `json:"page,omitempty" yaml:"page,omitempty"`
	Categories    []Category   `json:"categories,omitempty" yaml:"categories,omitempty"`
	ExerciseLevel *string      `json:"exercise_level,omitempty" yaml:"exercise_level,omitempty"`
}

// TableLayout is the quiz table of an exercise. Cells use the
// "prefix|answer|suffix" convention.
type TableLayout struct {
	Table            [][]string        `json:"table" yaml:"table"`
	KeyCol           *int              `json:"key_col,omitempty" yaml:"key_col,omitempty"`
	ShuffleRows      *bool             `json:"shuffle_rows,omitempty" yaml:"shuffle_rows,omitempty"`
	DefaultMode      *ExerciseMode     `json:"default_mode,omitempty" yaml:"default_mode,omitempty"`
	OptionsStyleType *OptionsStyleType `json:"options_style_type,omitempty" yaml:"options_style_type,omitempty"`
}

// NotFoundPath is the path of an exercise with neither path nor title.
const NotFoundPath = "404"

// ImportantLevel marks exercises highlighted with a star.
const ImportantLevel = "Important"

// referencePageOffset is the number of preface pages before page 1 of the
// reference book scan.
const referencePageOffset = 13

const referenceURLFormat = "https://archive.org/details/A.K.WarderPali/A.%%20K.%%20Warder%%20Pali/page/n%d/mode/1up"

// EffectivePath is how the exercise is addressed in URLs: its path, else its
// title, else "404".
func (e *Exercise) EffectivePath() string {
	if e.Path != nil {
		return *e.Path
	}
	if e.Title != nil {
		return *e.Title
	}
	return NotFoundPath
}

// IsImportant reports whether the exercise level is "Important".
func (e *Exercise) IsImportant() bool {
	return e.ExerciseLevel != nil && *e.ExerciseLevel == ImportantLevel
}

// ReferenceURL links the exercise's book page. It is empty when the exercise
// has no page.
func (e *Exercise) ReferenceURL() string {
	if e.Page == nil {
		return ""
	}
	return fmt.Sprintf(referenceURLFormat, *e.Page+referencePageOffset)
}

// ReferenceTitle is the hover text of the reference link.
func (e *Exercise) ReferenceTitle() string {
	if e.Page == nil {
		return ""
	}
	return fmt.Sprintf("Warder p. %d", *e.Page)
}

// InCategory reports whether the exercise is tagged with c.
func (e *Exercise) InCategory(c Category) bool {
	return HasCategory(e.Categories, c)
}

// TableID returns a stable identifier for the table of the exercise at index
// i of the lesson at lessonPath, safe to use as a DOM id. Distinct lesson
// paths give distinct ids: '_' is doubled and any other character outside
// [A-Za-z0-9-] becomes '_' + hex code point + '_'.
func TableID(lessonPath string, i int) string {
	var b strings.Builder
	for _, r := range lessonPath {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '_':
			b.WriteString("__")
		default:
			fmt.Fprintf(&b, "_%x_", r)
		}
	}
	fmt.Fprintf(&b, "-%d", i)
	return b.String()
}
