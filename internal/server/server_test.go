package server

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/lessonview/internal/config"
)

const testDocument = `{
  "lessons": [
    {
      "name": "Lesson 1",
      "path": "1",
      "exercises": [
        {
          "title": "Present",
          "info": "Conjugate *bhavati*.",
          "page": 12,
          "categories": ["conjugation"],
          "exercise_level": "Important",
          "explanation": "The stem is **bhav**.",
          "table_layout": {
            "table": [["", "sg"], ["3", "bhav|ati|"]],
            "default_mode": "ClickReveal"
          }
        },
        {
          "title": "Nouns",
          "categories": ["declension"],
          "table_layout": {"table": [["nom", "dev|o|"]]}
        }
      ]
    },
    {
      "name": "Lesson 2",
      "path": "2",
      "exercises": [
        {"title": "Aorist", "categories": ["aorist", "conjugation"], "table_layout": {"table": [["ah|osi|"]]}}
      ]
    }
  ]
}`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lessons.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(writeDocument(t, testDocument), config.DefaultConfig(), nil)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNewMissingDocument(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json"), nil, nil)
	assert.Error(t, err)
}

func TestRedirects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target   string
		status   int
		location string
	}{
		{"/", http.StatusFound, "/pali"},
		{"/pali/lessons/1", http.StatusMovedPermanently, "/pali/lesson/1"},
		{"/pali/lesson/1/exercise/404", http.StatusMovedPermanently, "/pali/lesson/1"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, s, tt.target)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

func TestStaticPages(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/pali", "/pali/resources", "/pali/lessons"} {
		t.Run(target, func(t *testing.T) {
			w := get(t, s, target)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			assert.NotContains(t, w.Body.String(), "data-page=", "pages without tables do not open a websocket")
		})
	}

	body := get(t, s, "/pali/lessons").Body.String()
	assert.Contains(t, body, `href="/pali/lesson/1"`)
	assert.Contains(t, body, "Lesson 2")
	assert.Contains(t, body, `href="/pali/category/aorist"`)
}

func TestLessonPage(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/pali/lesson/1")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `data-page="/pali/lesson/1"`)
	assert.Contains(t, body, `id="1-0"`)
	assert.Contains(t, body, `id="1-1"`)
	assert.Contains(t, body, "<em>bhavati</em>")
	assert.Contains(t, body, `href="/pali/lesson/1/exercise/Present"`, "exercises link to their own page")
	assert.Contains(t, body, `class="important"`)
	assert.Contains(t, body, "Reference")
	assert.Contains(t, body, `class="top-button next" href="/pali/lesson/2"`)
	assert.NotContains(t, body, `class="top-button prev"`)
	assert.Contains(t, body, `class="top-button return" href="/pali/lessons"`)

	cookie := responseCookie(w, sessionCookie)
	require.NotNil(t, cookie, "first visit starts a session")
	assert.True(t, cookie.HttpOnly)
}

func TestExercisePage(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/pali/lesson/1/exercise/Nouns")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `data-page="/pali/lesson/1/exercise/Nouns"`)
	assert.Contains(t, body, `id="1-1"`)
	assert.NotContains(t, body, `id="1-0"`)
	assert.NotContains(t, body, `class="exercise-link"`, "an exercise page does not link to itself")
	assert.Contains(t, body, `class="top-button prev" href="/pali/lesson/1/exercise/Present"`)
	assert.Contains(t, body, `class="top-button next" href="/pali/lesson/2/exercise/Aorist"`)
	assert.Contains(t, body, `class="top-button return" href="/pali/lesson/1"`)
}

func TestCategoryPages(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/pali/category/conjugation")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="1-0"`)
	assert.Contains(t, body, `id="2-0"`)
	assert.NotContains(t, body, `id="1-1"`)
	assert.Contains(t, body, `href="/pali/lesson/conjugation/exercise/Aorist"`)

	w = get(t, s, "/pali/lesson/conjugation/exercise/Aorist")
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, `class="top-button prev" href="/pali/lesson/conjugation/exercise/Present"`)
	assert.NotContains(t, body, `class="top-button next"`)
	assert.Contains(t, body, `class="top-button return" href="/pali/category/conjugation"`)
}

func TestNotFoundPages(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target  string
		message string
		ret     string
	}{
		{"/pali/lesson/9", "Unknown lesson", "/pali/lessons"},
		{"/pali/lesson/9/exercise/Present", "Unknown lesson", "/pali/lessons"},
		{"/pali/lesson/1/exercise/Missing", "Unknown exercise", "/pali/lesson/1"},
		{"/pali/lesson/vocab/exercise/Missing", "Unknown exercise", "/pali/category/vocab"},
		{"/pali/category/grammar", "Not found", "/pali"},
		{"/nowhere", "Not found", "/pali"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, s, tt.target)
			assert.Equal(t, http.StatusNotFound, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, tt.message)
			assert.Contains(t, body, `href="`+tt.ret+`"`)
		})
	}
}

func TestThemeSwitch(t *testing.T) {
	s := newTestServer(t)

	post := func(back string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		form := url.Values{"back": {back}}
		r := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			r.AddCookie(c)
		}
		w := httptest.NewRecorder()
		s.ServeHTTP(w, r)
		return w
	}

	w := post("/pali/lesson/1")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/pali/lesson/1", w.Header().Get("Location"))
	light := responseCookie(w, themeCookie)
	require.NotNil(t, light)
	assert.Equal(t, "light", light.Value)

	page := get(t, s, "/pali/lesson/1", light).Body.String()
	assert.Contains(t, page, `class="page-light"`)
	assert.Contains(t, page, "/assets/moon_icon.svg")

	w = post("/pali", light)
	assert.Equal(t, "dark", responseCookie(w, themeCookie).Value)

	for _, back := range []string{"", "https://example.com", "//example.com", `/\example.com`} {
		assert.Equal(t, "/pali", post(back).Header().Get("Location"), "back=%q", back)
	}
}

func TestSessionKeepsTables(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/pali/lesson/1")
	session := responseCookie(w, sessionCookie)
	require.NotNil(t, session)
	assert.Equal(t, 1, s.sessions.count())

	tables := s.sessions.tables(session.Value, "/pali/lesson/1", func() *tableSet {
		t.Fatal("tables should already exist for the session")
		return nil
	})
	tbl, ok := tables.get("1-0")
	require.True(t, ok)
	changed, err := tbl.HandleAction("flip", map[string]interface{}{"row": 1, "col": 1})
	require.NoError(t, err)
	require.True(t, changed)

	w = get(t, s, "/pali/lesson/1", session)
	assert.Nil(t, responseCookie(w, sessionCookie), "a valid session is not replaced")
	assert.Contains(t, w.Body.String(), `spoiler_button visible">ati<`)

	fresh := get(t, s, "/pali/lesson/1").Body.String()
	assert.Contains(t, fresh, `spoiler_button invisible">ati<`, "other learners start fresh")
}

func TestMalformedSessionCookieIsReplaced(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/pali/lesson/1", &http.Cookie{Name: sessionCookie, Value: "not-a-uuid"})
	cookie := responseCookie(w, sessionCookie)
	require.NotNil(t, cookie)
	assert.NotEqual(t, "not-a-uuid", cookie.Value)
}

func TestReload(t *testing.T) {
	path := writeDocument(t, testDocument)
	s, err := New(path, nil, nil)
	require.NoError(t, err)

	get(t, s, "/pali/lesson/1")
	require.Equal(t, 1, s.sessions.count())

	updated := strings.Replace(testDocument, `"name": "Lesson 2"`, `"name": "Second lesson"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))
	require.NoError(t, s.Reload())

	assert.Equal(t, 0, s.sessions.count(), "progress is dropped when the document changes")
	assert.Equal(t, "Second lesson", s.Index().Lessons()[1].Name)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	assert.Error(t, s.Reload())
	assert.Equal(t, "Second lesson", s.Index().Lessons()[1].Name, "a broken document keeps the previous one in service")
}

func TestServeAsset(t *testing.T) {
	s := newTestServer(t)

	w := get(t, s, "/assets/lessonview.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = get(t, s, "/assets/star.svg")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, get(t, s, "/assets/missing.js").Code)
}

func TestHandlerMiddleware(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	h, done := s.Handler(ctx)
	defer func() {
		cancel()
		<-done
	}()

	r := httptest.NewRequest(http.MethodGet, "/pali/lesson/1", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(body), `data-page="/pali/lesson/1"`)
}
