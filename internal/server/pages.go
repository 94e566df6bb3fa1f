package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/livetemplate/lessonview"
)

// page is a resolved lesson, exercise or category page.
type page struct {
	Path    string // canonical URL path, also the session key of its tables
	Title   string
	Return  string
	Prev    string
	Next    string
	Entries []lessonview.Entry
	// LinkBase is the first URL segment of exercise links; empty on single
	// exercise pages, which do not link to themselves.
	LinkBase string
}

// notFound carries the heading and return link of a 404 page.
type notFound struct {
	Message string
	Return  string
}

func (n *notFound) Error() string {
	return n.Message
}

var (
	errUnknownPage = &notFound{Message: "Not found", Return: "/pali"}
)

func lessonPage(ix *lessonview.Index, path string) (*page, error) {
	lesson, ok := ix.Lesson(path)
	if !ok {
		return nil, &notFound{Message: "Unknown lesson", Return: "/pali/lessons"}
	}
	entries, _ := ix.Entries(path)

	pg := &page{
		Path:     lessonview.LessonURL(lesson.Path),
		Title:    lesson.Name,
		Return:   "/pali/lessons",
		Entries:  entries,
		LinkBase: lesson.Path,
	}
	prev, next := ix.LessonNeighbours(path)
	if prev != nil {
		pg.Prev = lessonview.LessonURL(prev.Path)
	}
	if next != nil {
		pg.Next = lessonview.LessonURL(next.Path)
	}
	return pg, nil
}

func exercisePage(ix *lessonview.Index, lessonPath, exercisePath string) (*page, error) {
	resolved, err := ix.Exercise(lessonPath, exercisePath)
	switch {
	case errors.Is(err, lessonview.ErrLessonNotFound):
		return nil, &notFound{Message: "Unknown lesson", Return: "/pali/lessons"}
	case errors.Is(err, lessonview.ErrExerciseNotFound):
		ret := lessonview.LessonURL(lessonPath)
		if c := lessonview.Category(lessonPath); c.Known() {
			ret = lessonview.CategoryURL(c)
		}
		return nil, &notFound{Message: "Unknown exercise", Return: ret}
	case err != nil:
		return nil, err
	}

	pg := &page{
		Path:    lessonview.ExerciseURL(lessonPath, resolved.Entry.Exercise.EffectivePath()),
		Title:   resolved.Title,
		Return:  resolved.Return,
		Entries: []lessonview.Entry{resolved.Entry},
	}
	if resolved.Prev != nil {
		pg.Prev = resolved.Prev.URL()
	}
	if resolved.Next != nil {
		pg.Next = resolved.Next.URL()
	}
	return pg, nil
}

func categoryPage(ix *lessonview.Index, name string) (*page, error) {
	c, err := lessonview.ParseCategory(name)
	if err != nil {
		return nil, errUnknownPage
	}
	return &page{
		Path:     lessonview.CategoryURL(c),
		Title:    c.Title(),
		Return:   "/pali/lessons",
		Entries:  ix.Category(c),
		LinkBase: string(c),
	}, nil
}

// resolvePage maps a page URL path, as sent by the client when it opens its
// websocket, back to the page.
func resolvePage(ix *lessonview.Index, path string) (*page, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return nil, errUnknownPage
		}
		segments[i] = decoded
	}

	switch {
	case len(segments) == 3 && segments[0] == "pali" && segments[1] == "lesson":
		return lessonPage(ix, segments[2])
	case len(segments) == 5 && segments[0] == "pali" && segments[1] == "lesson" && segments[3] == "exercise":
		return exercisePage(ix, segments[2], url.PathEscape(segments[4]))
	case len(segments) == 3 && segments[0] == "pali" && segments[1] == "category":
		return categoryPage(ix, segments[2])
	default:
		return nil, errUnknownPage
	}
}

// exerciseView is one exercise as drawn on a page.
type exerciseView struct {
	ID             string
	Title          string
	Link           string
	Important      bool
	Info           template.HTML
	Table          template.HTML
	Reference      string
	ReferenceTitle string
	Explanation    template.HTML
}

func exerciseViews(pg *page, tables *tableSet) ([]exerciseView, error) {
	views := make([]exerciseView, 0, len(pg.Entries))
	for _, e := range pg.Entries {
		ex := e.Exercise
		v := exerciseView{
			ID:             e.TableID(),
			Important:      ex.IsImportant(),
			Reference:      ex.ReferenceURL(),
			ReferenceTitle: ex.ReferenceTitle(),
		}
		if ex.Title != nil {
			v.Title = *ex.Title
			if pg.LinkBase != "" {
				v.Link = lessonview.ExerciseURL(pg.LinkBase, ex.EffectivePath())
			}
		}

		var err error
		if ex.Info != nil {
			if v.Info, err = lessonview.RenderMarkdown(*ex.Info); err != nil {
				return nil, err
			}
		}
		if ex.Explanation != nil {
			if v.Explanation, err = lessonview.RenderMarkdown(*ex.Explanation); err != nil {
				return nil, err
			}
		}
		if t, ok := tables.get(v.ID); ok {
			if v.Table, err = t.HTML(); err != nil {
				return nil, fmt.Errorf("exercise %q: %w", ex.EffectivePath(), err)
			}
		}
		views = append(views, v)
	}
	return views, nil
}
