package lessonview

import (
	"fmt"
	"strings"
)

// Validate checks a document for problems that would make lessons unreachable
// or tables unusable. file is only used to label the errors.
func Validate(doc *Document, file string) []*DocumentError {
	var errs []*DocumentError

	lessonSeen := make(map[string]int)
	for li, lesson := range doc.Lessons {
		if lesson.Path == "" {
			errs = append(errs, NewDocumentError(file, lesson.Name, "lesson has no path").
				WithHint("Every lesson needs a unique \"path\" used in its URL"))
		} else if first, dup := lessonSeen[lesson.Path]; dup {
			errs = append(errs, NewDocumentError(file, lesson.Path, "duplicate lesson path").
				WithRelated(fmt.Sprintf("First used by lesson %d (%q)", first+1, doc.Lessons[first].Name)))
		} else {
			lessonSeen[lesson.Path] = li
		}

		exerciseSeen := make(map[string]int)
		for ei := range lesson.Exercises {
			ex := &lesson.Exercises[ei]
			path := ex.EffectivePath()

			// Exercises without path or title are only shown inline.
			if path != NotFoundPath {
				if first, dup := exerciseSeen[path]; dup {
					errs = append(errs, NewDocumentError(file, lesson.Path, "duplicate exercise path").
						WithExercise(path).
						WithRelated(fmt.Sprintf("First used by exercise %d", first+1)).
						WithHint("Set an explicit \"path\" on one of the exercises"))
				} else {
					exerciseSeen[path] = ei
				}
			}

			errs = append(errs, validateExercise(file, lesson.Path, ex)...)
		}
	}

	return errs
}

func validateExercise(file, lessonPath string, ex *Exercise) []*DocumentError {
	var errs []*DocumentError
	path := ex.EffectivePath()

	for _, c := range ex.Categories {
		if !c.Known() {
			errs = append(errs, NewDocumentError(file, lessonPath, fmt.Sprintf("unknown category %q", c)).
				WithExercise(path).
				WithHint("Known categories: "+knownCategories()))
		}
	}

	layout := ex.TableLayout
	if layout == nil {
		return errs
	}

	width := 0
	for _, row := range layout.Table {
		width = max(width, len(row))
	}
	if width == 0 {
		errs = append(errs, NewDocumentError(file, lessonPath, "table is empty").
			WithExercise(path).
			WithHint("Remove \"table_layout\" or add at least one cell"))
	}

	if layout.KeyCol != nil && (*layout.KeyCol < 0 || *layout.KeyCol >= width) {
		errs = append(errs, NewDocumentError(file, lessonPath, fmt.Sprintf("key_col %d is out of range", *layout.KeyCol)).
			WithExercise(path).
			WithHint(fmt.Sprintf("The widest row has %d cells", width)))
	}

	if layout.DefaultMode != nil && *layout.DefaultMode == ModeDisabled {
		errs = append(errs, NewDocumentError(file, lessonPath, "default_mode cannot be Disabled").
			WithExercise(path).
			WithHint("Tables without interactive cells are disabled automatically"))
	}

	return errs
}

func knownCategories() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
