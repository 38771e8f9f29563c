package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/prism/internal/config"
	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/search"
	"github.com/dgallion1/prism/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for prism.
type Server struct {
	router   chi.Router
	doc      *report.Document
	sessions *session.Store
	latency  *search.Latency
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. latency may be nil, in
// which case search stats report as unavailable.
func NewServer(doc *report.Document, sessions *session.Store, latency *search.Latency, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		doc:      doc,
		sessions: sessions,
		latency:  latency,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Get("/api/report", s.handleReport)
	r.Get("/api/chapters/{chapterID}", s.handleChapter)
	r.Get("/api/glossary", s.handleGlossary)
	r.Get("/api/glossary/{term}", s.handleGlossaryTerm)
	r.Get("/api/classify", s.handleClassify)

	r.Get("/api/search", s.handleSearch)
	r.Get("/api/stats/search", s.handleSearchStats)

	r.Post("/api/sessions", s.handleCreateSession)
	r.Get("/api/sessions/{sessionID}", s.handleGetSession)
	r.Put("/api/sessions/{sessionID}/query", s.handleSessionQuery)
	r.Put("/api/sessions/{sessionID}/filter", s.handleSessionFilter)
	r.Post("/api/sessions/{sessionID}/clear", s.handleSessionClear)
	r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)

	r.Post("/api/import", s.handleImport)
	r.Post("/api/import/batch", s.handleBatchImport)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
