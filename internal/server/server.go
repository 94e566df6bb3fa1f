package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/assets"
	"github.com/livetemplate/lessonview/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"overview", "resources", "lessons", "exercises", "notfound"}

var pageFuncs = template.FuncMap{
	"lessonURL":   lessonview.LessonURL,
	"categoryURL": lessonview.CategoryURL,
}

func parsePages() map[string]*template.Template {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.New(name).Funcs(pageFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html"))
	}
	return pages
}

var pageTemplates = parsePages()

// pageData is what every page template receives.
type pageData struct {
	SiteTitle  string
	Title      string
	Theme      lessonview.Theme
	Path       string // set on pages with live tables
	Back       string // where the theme switch returns to
	Return     string
	Prev       string
	Next       string
	Exercises  []exerciseView
	Lessons    []lessonview.Lesson
	Categories []lessonview.Category
	Message    string
}

// Server is the lessonview web server.
type Server struct {
	docPath     string
	config      *config.Config
	log         *zap.Logger
	mu          sync.RWMutex
	index       *lessonview.Index
	sessions    *sessionStore
	limits      limitPolicy // per-address requests and per-connection actions
	mux         *http.ServeMux
	connections map[*wsClient]bool // Track connected WebSocket clients
	connMu      sync.RWMutex       // Separate mutex for connections
	watcher     *Watcher           // Document watcher for live reload
}

// New creates a server for the lesson document at docPath and loads it.
func New(docPath string, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		docPath:     docPath,
		config:      cfg,
		log:         logger.Named("server"),
		sessions:    newSessionStore(cfg.Session.GetTTL()),
		limits:      newLimitPolicy(cfg.RateLimit),
		connections: make(map[*wsClient]bool),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /pali", s.handleOverview)
	mux.HandleFunc("GET /pali/resources", s.handleResources)
	mux.HandleFunc("GET /pali/lessons", s.handleLessons)
	mux.HandleFunc("GET /pali/lessons/{path}", s.handleLessonRedirect)
	mux.HandleFunc("GET /pali/lesson/{path}", s.handleLesson)
	mux.HandleFunc("GET /pali/lesson/{lesson}/exercise/{exercise}", s.handleExercise)
	mux.HandleFunc("GET /pali/category/{category}", s.handleCategory)
	mux.HandleFunc("POST /theme", s.handleTheme)
	mux.HandleFunc("GET /assets/{file...}", s.serveAsset)
	mux.HandleFunc("GET /ws", s.serveWebSocket)
	mux.HandleFunc("/", s.handleNotFound)
	s.mux = mux
}

// Reload reads the lesson document again. On failure the previous document
// stays in service. Learner progress is dropped because table layouts may
// have changed.
func (s *Server) Reload() error {
	doc, err := lessonview.Load(s.docPath)
	if err != nil {
		return err
	}
	for _, problem := range lessonview.Validate(doc, s.docPath) {
		s.log.Warn("lesson document problem",
			zap.String("location", problem.Location()),
			zap.String("problem", problem.Message))
	}

	s.mu.Lock()
	s.index = lessonview.NewIndex(doc)
	s.mu.Unlock()
	s.sessions.flush()

	s.log.Info("lesson document loaded",
		zap.String("path", s.docPath),
		zap.Int("lessons", len(doc.Lessons)))
	return nil
}

// Index returns the current lesson index.
func (s *Server) Index() *lessonview.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler wraps the server in its middleware: security headers, per-address
// rate limiting and compression. Idle addresses are swept until ctx is
// cancelled; the returned channel closes once sweeping has stopped.
func (s *Server) Handler(ctx context.Context) (http.Handler, <-chan struct{}) {
	limiters := newAddressLimiters(s.limits, s.config.RateLimit.GetMaxTrackedIPs(), s.log.Named("ratelimit"))
	done := limiters.sweepEvery(ctx, sweepInterval)
	return SecurityHeadersMiddleware()(limiters.middleware(WithCompression(s))), done
}

func (s *Server) theme(r *http.Request) lessonview.Theme {
	return themeFor(r, s.config.Styling.GetTheme())
}

func (s *Server) newPageData(r *http.Request, title string) pageData {
	return pageData{
		SiteTitle: s.config.Title,
		Title:     title,
		Theme:     s.theme(r),
		Back:      r.URL.RequestURI(),
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	tmpl, ok := pageTemplates[name]
	if !ok {
		s.serverError(w, fmt.Errorf("unknown page template %q", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error("failed to render page", zap.String("page", name), zap.Error(err))
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/pali", http.StatusFound)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "overview", s.newPageData(r, "Overview"))
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(r, "Resources")
	data.Return = "/pali"
	s.render(w, http.StatusOK, "resources", data)
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(r, "Lessons")
	data.Return = "/pali"
	data.Lessons = s.Index().Lessons()
	data.Categories = lessonview.Categories
	s.render(w, http.StatusOK, "lessons", data)
}

func (s *Server) handleLessonRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, lessonview.LessonURL(r.PathValue("path")), http.StatusMovedPermanently)
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	pg, err := lessonPage(s.Index(), r.PathValue("path"))
	s.servePage(w, r, pg, err)
}

func (s *Server) handleExercise(w http.ResponseWriter, r *http.Request) {
	lessonPath, exercisePath := r.PathValue("lesson"), r.PathValue("exercise")
	// Exercises without path or title used to link here.
	if exercisePath == lessonview.NotFoundPath {
		http.Redirect(w, r, lessonview.LessonURL(lessonPath), http.StatusMovedPermanently)
		return
	}
	pg, err := exercisePage(s.Index(), lessonPath, url.PathEscape(exercisePath))
	s.servePage(w, r, pg, err)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	pg, err := categoryPage(s.Index(), r.PathValue("category"))
	s.servePage(w, r, pg, err)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderNotFound(w, r, errUnknownPage)
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request, nf *notFound) {
	data := s.newPageData(r, "404")
	data.Message = nf.Message
	data.Return = nf.Return
	s.render(w, http.StatusNotFound, "notfound", data)
}

// servePage renders a page with exercises, building the learner's tables on
// first visit.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, pg *page, err error) {
	var nf *notFound
	if errors.As(err, &nf) {
		s.renderNotFound(w, r, nf)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	theme := s.theme(r)
	session, cookie := sessionID(r)
	if cookie != nil {
		http.SetCookie(w, cookie)
	}
	tables := s.sessions.tables(session, pg.Path, func() *tableSet {
		return newTableSet(pg.Entries, theme)
	})
	tables.setTheme(theme)

	views, err := exerciseViews(pg, tables)
	if err != nil {
		s.serverError(w, err)
		return
	}

	data := s.newPageData(r, pg.Title)
	data.Return = pg.Return
	data.Prev = pg.Prev
	data.Next = pg.Next
	data.Exercises = views
	if tables.len() > 0 {
		data.Path = pg.Path
	}
	s.render(w, http.StatusOK, "exercises", data)
}

// handleTheme cycles the theme cookie and returns to the page it came from.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	next := s.theme(r).Next()
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    string(next),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, safeBack(r.FormValue("back")), http.StatusSeeOther)
}

// safeBack only allows returning to a local path.
func safeBack(back string) string {
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") || strings.HasPrefix(back, "/\\") {
		return "/pali"
	}
	return back
}

// serveAsset serves embedded client assets.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	data, err := assets.Get(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", assets.ContentType(filepath.Ext(name)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// EnableWatch reloads the lesson document whenever it changes on disk and
// tells connected browsers to reload.
func (s *Server) EnableWatch() error {
	watcher, err := NewWatcher(s.docPath, func(filePath string) error {
		if err := s.Reload(); err != nil {
			return fmt.Errorf("failed to reload lesson document: %w", err)
		}
		s.BroadcastReload(filePath)
		return nil
	}, s.log.Named("watch"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	s.watcher = watcher
	s.watcher.Start()

	s.log.Info("watching lesson document", zap.String("path", s.docPath))
	return nil
}

// StopWatch stops the document watcher if it's running.
func (s *Server) StopWatch() error {
	if s.watcher != nil {
		return s.watcher.Stop()
	}
	return nil
}
