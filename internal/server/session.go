package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/table"
)

const (
	sessionCookie = "lessonview_session"
	themeCookie   = "lessonview_theme"
)

// tableSet holds the tables of one page for one learner. The map is never
// modified after construction; each table serialises its own actions.
type tableSet struct {
	tables map[string]*table.Table
	order  []string
}

func newTableSet(entries []lessonview.Entry, theme lessonview.Theme) *tableSet {
	set := &tableSet{tables: make(map[string]*table.Table)}
	for _, e := range entries {
		layout := e.Exercise.TableLayout
		if layout == nil {
			continue
		}
		id := e.TableID()
		set.tables[id] = table.New(id, *layout, e.Exercise.Categories, theme)
		set.order = append(set.order, id)
	}
	return set
}

func (s *tableSet) get(id string) (*table.Table, bool) {
	t, ok := s.tables[id]
	return t, ok
}

func (s *tableSet) setTheme(theme lessonview.Theme) {
	for _, t := range s.tables {
		t.SetTheme(theme)
	}
}

func (s *tableSet) len() int {
	return len(s.order)
}

// sessionStore keeps table sets in memory, keyed by session and page, so
// progress survives reloads and websocket reconnects until the TTL runs out.
type sessionStore struct {
	cache *cache.Cache
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{cache: cache.New(ttl, ttl/2)}
}

func sessionKey(session, page string) string {
	return session + "|" + page
}

// tables returns the table set of a page, building it on first use. Every
// use extends the set's lifetime.
func (s *sessionStore) tables(session, page string, build func() *tableSet) *tableSet {
	key := sessionKey(session, page)
	if v, ok := s.cache.Get(key); ok {
		s.cache.SetDefault(key, v)
		return v.(*tableSet)
	}

	set := build()
	if err := s.cache.Add(key, set, cache.DefaultExpiration); err != nil {
		// Another request built the same page first.
		if v, ok := s.cache.Get(key); ok {
			return v.(*tableSet)
		}
	}
	return set
}

// flush drops every table set. Used when the lesson document changes.
func (s *sessionStore) flush() {
	s.cache.Flush()
}

func (s *sessionStore) count() int {
	return s.cache.ItemCount()
}

// sessionID returns the learner's session from the request cookie. A new ID
// is minted when the cookie is missing or malformed; the cookie to set is
// returned alongside it.
func sessionID(r *http.Request) (string, *http.Cookie) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, nil
		}
	}
	id := uuid.NewString()
	return id, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// themeFor reads the theme cookie, falling back to the configured default.
func themeFor(r *http.Request, fallback lessonview.Theme) lessonview.Theme {
	if c, err := r.Cookie(themeCookie); err == nil {
		if theme, err := lessonview.ParseTheme(c.Value); err == nil {
			return theme
		}
	}
	return fallback
}
