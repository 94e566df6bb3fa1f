package lessonview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseIndex() *Index {
	return NewIndex(&Document{Lessons: []Lesson{
		{Name: "Lesson 1", Path: "1", Exercises: []Exercise{
			{Title: ptr("Present tense"), Categories: []Category{CategoryConjugation}},
			{Title: ptr("Vocab 1"), Categories: []Category{CategoryVocab}},
		}},
		{Name: "Empty", Path: "empty"},
		{Name: "Lesson 2", Path: "2", Exercises: []Exercise{
			{Title: ptr("Optative"), Path: ptr("opt"), Categories: []Category{CategoryConjugation, CategoryTAM}},
			{Title: ptr("Nouns in -a")},
		}},
		{Name: "Lesson 3", Path: "3", Exercises: []Exercise{
			{Title: ptr("Aorist"), Categories: []Category{CategoryAorist, CategoryConjugation}},
		}},
	}})
}

func TestIndexLessons(t *testing.T) {
	ix := courseIndex()

	lesson, ok := ix.Lesson("2")
	require.True(t, ok)
	assert.Equal(t, "Lesson 2", lesson.Name)

	_, ok = ix.Lesson("99")
	assert.False(t, ok)

	entries, ok := ix.Entries("2")
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[1].Position)
	assert.Equal(t, "2-1", entries[1].TableID())

	prev, next := ix.LessonNeighbours("1")
	assert.Nil(t, prev)
	assert.Equal(t, "empty", next.Path)

	prev, next = ix.LessonNeighbours("3")
	assert.Equal(t, "2", prev.Path)
	assert.Nil(t, next)
}

func TestIndexExerciseNeighboursCrossLessons(t *testing.T) {
	ix := courseIndex()

	tests := []struct {
		lesson, exercise string
		prev, next       *Route
	}{
		{"1", "Present tense", nil, &Route{"1", "Vocab 1"}},
		// An empty neighbouring lesson ends the chain.
		{"1", "Vocab 1", &Route{"1", "Present tense"}, nil},
		{"2", "opt", nil, &Route{"2", "Nouns in -a"}},
		{"2", "Nouns in -a", &Route{"2", "opt"}, &Route{"3", "Aorist"}},
		{"3", "Aorist", &Route{"2", "Nouns in -a"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.lesson+"/"+tt.exercise, func(t *testing.T) {
			page, err := ix.Exercise(tt.lesson, tt.exercise)
			require.NoError(t, err)
			assert.Equal(t, tt.prev, page.Prev)
			assert.Equal(t, tt.next, page.Next)
			assert.Equal(t, LessonURL(tt.lesson), page.Return)
		})
	}
}

func TestIndexExerciseDecodesPath(t *testing.T) {
	ix := courseIndex()

	page, err := ix.Exercise("2", "Nouns%20in%20-a")
	require.NoError(t, err)
	assert.Equal(t, "Lesson 2", page.Title)
	assert.Equal(t, 1, page.Entry.Position)

	// Titles are not matched once an explicit path is set.
	_, err = ix.Exercise("2", "Optative")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestIndexCategory(t *testing.T) {
	ix := courseIndex()

	entries := ix.Category(CategoryConjugation)
	require.Len(t, entries, 3)
	assert.Equal(t, "1", entries[0].LessonPath)
	assert.Equal(t, "2", entries[1].LessonPath)
	assert.Equal(t, "3", entries[2].LessonPath)

	assert.Empty(t, ix.Category(CategoryDeclension))

	page, err := ix.Exercise("conjugation", "opt")
	require.NoError(t, err)
	assert.Equal(t, "Conjugations", page.Title)
	assert.Equal(t, CategoryURL(CategoryConjugation), page.Return)
	assert.Equal(t, &Route{"conjugation", "Present tense"}, page.Prev)
	assert.Equal(t, &Route{"conjugation", "Aorist"}, page.Next)
	assert.Equal(t, "2-0", page.Entry.TableID())
}

func TestIndexNotFound(t *testing.T) {
	ix := courseIndex()

	_, err := ix.Exercise("99", "Present tense")
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = ix.Exercise("1", "Future tense")
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	_, err = ix.Exercise("aorist", "Present tense")
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	_, _, err = ix.Neighbours("1", "Future tense")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "/pali/lesson/1", LessonURL("1"))
	assert.Equal(t, "/pali/lesson/1/exercise/Nouns%20in%20-a", ExerciseURL("1", "Nouns in -a"))
	assert.Equal(t, "/pali/category/tam", CategoryURL(CategoryTAM))
	assert.Equal(t, "/pali/lesson/2/exercise/opt", Route{"2", "opt"}.URL())
}
