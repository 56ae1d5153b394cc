// Package web serves the four-group listing and the batch removal form.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/output"
	"github.com/blackwell-systems/addonsweep/internal/removal"
)

//go:embed templates/*.html
var templateFS embed.FS

// InvalidTokenNotice is flashed when a removal is refused by the
// authenticity check.
const InvalidTokenNotice = "The security token was missing or invalid. Nothing was removed; reload the page and try again."

// Lister produces a fresh classification listing.
type Lister interface {
	Run(ctx context.Context) (*classifier.Listing, error)
}

// Remover executes a removal batch.
type Remover interface {
	RemoveBatch(ctx context.Context, ids []int64) removal.Batch
}

// Server is the HTTP presentation surface.
type Server struct {
	lister   Lister
	remover  Remover
	sessions *sessionStore
	logger   *slog.Logger
	tmpl     *template.Template

	// removeMu serialises batches so two operators cannot interleave
	// removals against the same registry.
	removeMu sync.Mutex
}

// New creates a Server. A nil logger discards log output.
func New(lister Lister, remover Remover, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"title":      output.StatusTitle,
		"issueCount": func(issues []extension.Issue) int { return len(issues) },
	}).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		lister:   lister,
		remover:  remover,
		sessions: newSessionStore(),
		logger:   logger,
		tmpl:     tmpl,
	}
}

// Routes returns the router for the listing and removal endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleListing)
	r.Post("/remove", s.handleRemove)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

type listingPage struct {
	Sections []classifier.Section
	Token    string
	Notices  []removal.Notice
	Error    string
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.load(w, r)
	page := listingPage{
		Token:   sess.token,
		Notices: s.sessions.popFlashes(sess),
	}

	listing, err := s.lister.Run(r.Context())
	status := http.StatusOK
	if err != nil {
		s.logger.Error("classification run failed", "error", err)
		page.Error = "The extension inventory could not be loaded: " + err.Error()
		status = http.StatusInternalServerError
	} else {
		page.Sections = listing.Sections
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "listing.html", page); err != nil {
		s.logger.Error("failed to render listing", "error", err)
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.load(w, r)

	if err := r.ParseForm(); err != nil {
		s.sessions.flash(sess, removal.Notice{Level: removal.LevelError, Text: "The removal request could not be read."})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if !s.sessions.validToken(sess, r.PostForm.Get("token")) {
		s.logger.Warn("removal refused: invalid token", "remote", r.RemoteAddr)
		s.sessions.flash(sess, removal.Notice{Level: removal.LevelWarning, Text: InvalidTokenNotice})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ids := removal.ParseIDs(r.PostForm["cid"])

	s.removeMu.Lock()
	batch := s.remover.RemoveBatch(r.Context(), ids)
	s.removeMu.Unlock()

	t := batch.Tally()
	s.logger.Info("removal batch finished",
		"selected", len(ids), "success", t.Success, "partial", t.Partial, "error", t.Error)

	s.sessions.flash(sess, batch.Notices()...)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
