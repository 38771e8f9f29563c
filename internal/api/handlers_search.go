package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/prism/internal/search"
	"github.com/dgallion1/prism/internal/session"
	"github.com/go-chi/chi/v5"
)

type searchResponse struct {
	Query  string         `json:"query"`
	Filter search.Filter  `json:"filter"`
	Total  int            `json:"total"`
	Groups []search.Group `json:"groups"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	filter, err := search.ParseFilter(q.Get("type"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	preview, err := intParam(q.Get("preview"))
	if err != nil {
		jsonError(w, "preview must be a non-negative integer", http.StatusBadRequest)
		return
	}

	var results []search.Result
	if strings.TrimSpace(query) != "" {
		run := func() []search.Result { return search.Search(s.doc, query, filter) }
		if s.latency != nil {
			results = s.latency.Observe(run)
		} else {
			results = run()
		}
	}
	writeJSON(w, http.StatusOK, groupedResponse(query, filter, search.GroupByChapter(results), preview))
}

func groupedResponse(query string, filter search.Filter, groups []search.Group, preview int) searchResponse {
	resp := searchResponse{Query: query, Filter: filter, Total: search.Count(groups), Groups: groups}
	if preview > 0 {
		cut := make([]search.Group, len(groups))
		for i, g := range groups {
			cut[i] = g.Preview(preview)
		}
		resp.Groups = cut
	}
	if resp.Groups == nil {
		resp.Groups = []search.Group{}
	}
	return resp
}

func (s *Server) handleSearchStats(w http.ResponseWriter, r *http.Request) {
	if s.latency == nil {
		jsonError(w, "search stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": s.cfg.StatsWindow.String(),
		"stats":  s.latency.Snapshot(),
	})
}

type sessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
	searchResponse
}

func (s *Server) sessionResponse(id string, sess *session.Session) sessionResponse {
	st, groups := sess.Snapshot()
	return sessionResponse{
		ID:             id,
		State:          st,
		searchResponse: groupedResponse(st.Committed, st.Filter, groups, s.cfg.GroupPreview),
	}
}

// lookupSession resolves the session named in the URL or writes a 404.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		jsonError(w, "session not found", http.StatusNotFound)
		return "", nil, false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return "", nil, false
	}
	return id, sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, sess := s.sessions.Create()
	s.log.Debug("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, s.sessionResponse(id, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(id, sess))
}

// handleSessionQuery records a keystroke-level query update. The commit is
// debounced unless flush=true is given.
func (s *Server) handleSessionQuery(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess.SetQuery(body.Query)
	if r.URL.Query().Get("flush") == "true" {
		sess.Flush()
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(id, sess))
}

func (s *Server) handleSessionFilter(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var body struct {
		Filter string `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	f, err := search.ParseFilter(body.Filter)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess.SetFilter(f)
	writeJSON(w, http.StatusOK, s.sessionResponse(id, sess))
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, s.sessionResponse(id, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
