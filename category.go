package lessonview

import "fmt"

// Category tags an exercise so it can be browsed across lessons.
type Category string

const (
	CategoryConjugation Category = "conjugation"
	CategoryTAM         Category = "tam"
	CategoryVerbs       Category = "verbs"
	CategoryVocab       Category = "vocab"
	CategoryAorist      Category = "aorist"
	CategoryDeclension  Category = "declension"
)

// Categories lists every known category in browsing order.
var Categories = []Category{
	CategoryConjugation,
	CategoryTAM,
	CategoryVerbs,
	CategoryVocab,
	CategoryAorist,
	CategoryDeclension,
}

var categoryTitles = map[Category]string{
	CategoryConjugation: "Conjugations",
	CategoryTAM:         "Tense-Aspect-Mood",
	CategoryVerbs:       "Verbs",
	CategoryVocab:       "Vocab",
	CategoryAorist:      "Aorist",
	CategoryDeclension:  "Declension",
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Known() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Known reports whether c is one of Categories.
func (c Category) Known() bool {
	_, ok := categoryTitles[c]
	return ok
}

// Title is the display name of the category, e.g. "Tense-Aspect-Mood".
func (c Category) Title() string {
	if title, ok := categoryTitles[c]; ok {
		return title
	}
	return string(c)
}

// HasCategory reports whether cats contains c.
func HasCategory(cats []Category, c Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}
