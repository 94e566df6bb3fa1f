package lessonview

import (
	"errors"
	"net/url"
)

var (
	// ErrLessonNotFound is returned for an unknown lesson or category path.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrExerciseNotFound is returned for an unknown exercise path.
	ErrExerciseNotFound = errors.New("exercise not found")
)

// Route addresses a single exercise page. LessonPath is either a lesson path
// or a category name.
type Route struct {
	LessonPath   string
	ExercisePath string
}

// URL is the page URL of the route.
func (r Route) URL() string {
	return ExerciseURL(r.LessonPath, r.ExercisePath)
}

// LessonURL is the page URL of a lesson.
func LessonURL(path string) string {
	return "/pali/lesson/" + url.PathEscape(path)
}

// ExerciseURL is the page URL of a single exercise.
func ExerciseURL(lessonPath, exercisePath string) string {
	return LessonURL(lessonPath) + "/exercise/" + url.PathEscape(exercisePath)
}

// CategoryURL is the page URL listing a category.
func CategoryURL(c Category) string {
	return "/pali/category/" + url.PathEscape(string(c))
}

// Entry is an exercise together with where it lives in the document.
type Entry struct {
	LessonPath string
	Position   int
	Exercise   *Exercise
}

// TableID is the stable identifier of the entry's table.
func (e Entry) TableID() string {
	return TableID(e.LessonPath, e.Position)
}

// ExercisePage is a resolved single-exercise page.
type ExercisePage struct {
	Title  string // lesson name or category title
	Return string // URL of the enclosing lesson or category
	Entry  Entry
	Prev   *Route
	Next   *Route
}

// Index answers lookups over a loaded document. It is immutable.
type Index struct {
	doc       *Document
	lessonPos map[string]int
}

// NewIndex indexes doc. The first lesson wins when paths repeat.
func NewIndex(doc *Document) *Index {
	ix := &Index{doc: doc, lessonPos: make(map[string]int, len(doc.Lessons))}
	for i, l := range doc.Lessons {
		if _, ok := ix.lessonPos[l.Path]; !ok {
			ix.lessonPos[l.Path] = i
		}
	}
	return ix
}

// Document returns the indexed document.
func (ix *Index) Document() *Document {
	return ix.doc
}

// Lessons returns every lesson in order.
func (ix *Index) Lessons() []Lesson {
	return ix.doc.Lessons
}

// Lesson looks up a lesson by path.
func (ix *Index) Lesson(path string) (*Lesson, bool) {
	i, ok := ix.lessonPos[path]
	if !ok {
		return nil, false
	}
	return &ix.doc.Lessons[i], true
}

// Entries returns the exercises of a lesson with their positions.
func (ix *Index) Entries(path string) ([]Entry, bool) {
	lesson, ok := ix.Lesson(path)
	if !ok {
		return nil, false
	}
	entries := make([]Entry, len(lesson.Exercises))
	for i := range lesson.Exercises {
		entries[i] = Entry{LessonPath: lesson.Path, Position: i, Exercise: &lesson.Exercises[i]}
	}
	return entries, true
}

// LessonNeighbours returns the lessons before and after path.
func (ix *Index) LessonNeighbours(path string) (prev, next *Lesson) {
	i, ok := ix.lessonPos[path]
	if !ok {
		return nil, nil
	}
	if i > 0 {
		prev = &ix.doc.Lessons[i-1]
	}
	if i+1 < len(ix.doc.Lessons) {
		next = &ix.doc.Lessons[i+1]
	}
	return prev, next
}

// Category returns every exercise tagged with c, in document order.
func (ix *Index) Category(c Category) []Entry {
	var entries []Entry
	for li := range ix.doc.Lessons {
		lesson := &ix.doc.Lessons[li]
		for ei := range lesson.Exercises {
			if lesson.Exercises[ei].InCategory(c) {
				entries = append(entries, Entry{LessonPath: lesson.Path, Position: ei, Exercise: &lesson.Exercises[ei]})
			}
		}
	}
	return entries
}

// Exercise resolves a single exercise page. lessonPath may name a lesson or,
// failing that, a category; exercisePath is percent-decoded before matching
// effective paths.
func (ix *Index) Exercise(lessonPath, exercisePath string) (*ExercisePage, error) {
	if decoded, err := url.PathUnescape(exercisePath); err == nil {
		exercisePath = decoded
	}

	if _, ok := ix.lessonPos[lessonPath]; ok {
		return ix.lessonExercise(lessonPath, exercisePath)
	}

	cat := Category(lessonPath)
	if !cat.Known() {
		return nil, ErrLessonNotFound
	}
	return ix.categoryExercise(cat, exercisePath)
}

func (ix *Index) lessonExercise(lessonPath, exercisePath string) (*ExercisePage, error) {
	li := ix.lessonPos[lessonPath]
	lesson := &ix.doc.Lessons[li]

	pos := findExercise(lesson.Exercises, exercisePath)
	if pos < 0 {
		return nil, ErrExerciseNotFound
	}

	page := &ExercisePage{
		Title:  lesson.Name,
		Return: LessonURL(lesson.Path),
		Entry:  Entry{LessonPath: lesson.Path, Position: pos, Exercise: &lesson.Exercises[pos]},
	}

	// Neighbours cross lesson boundaries.
	if pos > 0 {
		page.Prev = &Route{lesson.Path, lesson.Exercises[pos-1].EffectivePath()}
	} else if li > 0 {
		if prev := &ix.doc.Lessons[li-1]; len(prev.Exercises) > 0 {
			page.Prev = &Route{prev.Path, prev.Exercises[len(prev.Exercises)-1].EffectivePath()}
		}
	}
	if pos+1 < len(lesson.Exercises) {
		page.Next = &Route{lesson.Path, lesson.Exercises[pos+1].EffectivePath()}
	} else if li+1 < len(ix.doc.Lessons) {
		if next := &ix.doc.Lessons[li+1]; len(next.Exercises) > 0 {
			page.Next = &Route{next.Path, next.Exercises[0].EffectivePath()}
		}
	}

	return page, nil
}

func (ix *Index) categoryExercise(cat Category, exercisePath string) (*ExercisePage, error) {
	entries := ix.Category(cat)

	pos := -1
	for i, e := range entries {
		if e.Exercise.EffectivePath() == exercisePath {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, ErrExerciseNotFound
	}

	page := &ExercisePage{
		Title:  cat.Title(),
		Return: CategoryURL(cat),
		Entry:  entries[pos],
	}
	if pos > 0 {
		page.Prev = &Route{string(cat), entries[pos-1].Exercise.EffectivePath()}
	}
	if pos+1 < len(entries) {
		page.Next = &Route{string(cat), entries[pos+1].Exercise.EffectivePath()}
	}
	return page, nil
}

func findExercise(exercises []Exercise, path string) int {
	for i := range exercises {
		if exercises[i].EffectivePath() == path {
			return i
		}
	}
	return -1
}

// Neighbours returns the previous and next exercise routes around an exercise
// page.
func (ix *Index) Neighbours(lessonPath, exercisePath string) (prev, next *Route, err error) {
	page, err := ix.Exercise(lessonPath, exercisePath)
	if err != nil {
		return nil, nil, err
	}
	return page.Prev, page.Next, nil
}
