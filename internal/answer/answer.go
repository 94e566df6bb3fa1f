// Package answer compares learner input with expected cell answers.
package answer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Verdict is the outcome of checking one cell.
type Verdict int

const (
	Unanswered Verdict = iota
	Correct
	Incorrect
)

// Class is the CSS class that colours a checked cell.
func (v Verdict) Class() string {
	switch v {
	case Correct:
		return "correct_cell"
	case Incorrect:
		return "incorrect_cell"
	default:
		return ""
	}
}

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "unanswered"
	}
}

// Shorthands maps ASCII input sequences to the diacritics they stand for.
// The client help text lists the same table.
var Shorthands = [][2]string{
	{"aa", "ā"},
	{"ii", "ī"},
	{"uu", "ū"},
	{".t", "ṭ"},
	{".d", "ḍ"},
	{"`n", "ṅ"},
	{"~n", "ñ"},
	{".n", "ṇ"},
	{".m", "ṃ"},
	{".l", "ḷ"},
}

// No pattern is a prefix of another, so a single pass gives the same result
// as applying the pairs one after another.
var shorthand = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(Shorthands))
	for _, p := range Shorthands {
		pairs = append(pairs, p[0], p[1])
	}
	return strings.NewReplacer(pairs...)
}()

// Expand replaces ASCII shorthand with diacritics.
func Expand(s string) string {
	return shorthand.Replace(s)
}

// Check compares input with expected. Nothing is judged unless checking is
// on. Both sides are expanded and NFC normalised so that an answer stored
// with shorthand letters still matches itself. Input is also stripped of
// surrounding ASCII spaces. The comparison is case-sensitive.
func Check(checking bool, input, expected string) Verdict {
	if !checking {
		return Unanswered
	}

	got := strings.Trim(Expand(input), " ")
	if got == "" {
		return Unanswered
	}

	if norm.NFC.String(got) == norm.NFC.String(Expand(expected)) {
		return Correct
	}
	return Incorrect
}
