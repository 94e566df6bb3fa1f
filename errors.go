package lessonview

import (
	"fmt"
	"strings"
)

// DocumentError describes a problem in a lesson document with enough context
// to find it.
type DocumentError struct {
	File     string // Source file path
	Lesson   string // Lesson path, empty for document-level problems
	Exercise string // Effective path of the exercise, optional
	Message  string // Error message
	Hint     string // Helpful suggestion
	Related  string // Related information (e.g., "First defined as exercise 2")
	Err      error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	return e.Format()
}

// Unwrap returns the underlying cause.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Location describes where in the document the problem is.
func (e *DocumentError) Location() string {
	switch {
	case e.Lesson != "" && e.Exercise != "":
		return fmt.Sprintf("lesson %q, exercise %q", e.Lesson, e.Exercise)
	case e.Lesson != "":
		return fmt.Sprintf("lesson %q", e.Lesson)
	default:
		return "document"
	}
}

// Format returns a nicely formatted error message with context.
func (e *DocumentError) Format() string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "lesson document"
	}
	b.WriteString(fmt.Sprintf("❌ Error in %s\n\n", file))
	b.WriteString(fmt.Sprintf("%s: %s\n", e.Location(), e.Message))

	if e.Err != nil {
		b.WriteString(fmt.Sprintf("  %v\n", e.Err))
	}

	if e.Hint != "" {
		b.WriteString(fmt.Sprintf("\n💡 Tip: %s\n", e.Hint))
	}

	if e.Related != "" {
		b.WriteString(fmt.Sprintf("\n🔗 %s\n", e.Related))
	}

	return b.String()
}

// NewDocumentError creates a new DocumentError.
func NewDocumentError(file, lesson, message string) *DocumentError {
	return &DocumentError{
		File:    file,
		Lesson:  lesson,
		Message: message,
	}
}

// WithExercise adds the exercise path to the error.
func (e *DocumentError) WithExercise(exercise string) *DocumentError {
	e.Exercise = exercise
	return e
}

// WithHint adds a helpful hint to the error.
func (e *DocumentError) WithHint(hint string) *DocumentError {
	e.Hint = hint
	return e
}

// WithRelated adds related information to the error.
func (e *DocumentError) WithRelated(related string) *DocumentError {
	e.Related = related
	return e
}

// WithCause records the underlying error.
func (e *DocumentError) WithCause(err error) *DocumentError {
	e.Err = err
	return e
}
