package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/prism/internal/layout"
	"github.com/dgallion1/prism/internal/render"
	"github.com/dgallion1/prism/internal/report"
	"github.com/go-chi/chi/v5"
)

type chapterSummary struct {
	ID    string                `json:"id"`
	Title string                `json:"title"`
	Stats report.ChapterSummary `json:"stats"`
}

// handleReport returns the report outline. The fingerprint doubles as an
// ETag so clients can poll cheaply.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.doc.Fingerprint != "" {
		etag := `"` + s.doc.Fingerprint + `"`
		w.Header().Set("ETag", etag)
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	chapters := make([]chapterSummary, 0, len(s.doc.Chapters))
	for i := range s.doc.Chapters {
		ch := &s.doc.Chapters[i]
		chapters = append(chapters, chapterSummary{ID: ch.ID, Title: ch.Title, Stats: report.ChapterStats(ch)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":       s.doc.Title,
		"fingerprint": s.doc.Fingerprint,
		"totals":      report.ReportTotals(s.doc),
		"chapters":    chapters,
	})
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

type blockJSON struct {
	Block report.Block `json:"block"`
	View  *layout.View `json:"view,omitempty"`
}

type sectionJSON struct {
	Title  string      `json:"title"`
	Blocks []blockJSON `json:"blocks"`
}

func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chapterID")
	index := -1
	for i := range s.doc.Chapters {
		if s.doc.Chapters[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}
	ch := &s.doc.Chapters[index]

	q := r.URL.Query()
	detail := layout.ViewLevel(q.Get("detail"))
	preview, err := intParam(q.Get("preview"))
	if err != nil {
		jsonError(w, "preview must be a non-negative integer", http.StatusBadRequest)
		return
	}

	if q.Get("format") == "html" {
		out, err := render.Chapter(ch, index, s.doc.Glossary, render.Options{
			Query:    q.Get("highlight"),
			Preview:  preview,
			Detail:   detail,
			Collapse: true,
		})
		if err != nil {
			s.log.Error("render chapter", "chapter", id, "error", err)
			jsonError(w, "failed to render chapter", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out))
		return
	}

	sections := make([]sectionJSON, 0, len(ch.Sections))
	for _, sec := range ch.Sections {
		out := sectionJSON{Title: sec.Title, Blocks: make([]blockJSON, 0, len(sec.Content))}
		for _, b := range sec.Content {
			bj := blockJSON{Block: b}
			if t, ok := b.(*report.Table); ok {
				view := layout.Project(t).FilterDetail(detail)
				if preview > 0 {
					view = view.Preview(preview)
				}
				bj.View = &view
			}
			out.Blocks = append(out.Blocks, bj)
		}
		sections = append(sections, out)
	}

	prev, next := s.doc.Neighbors(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       ch.ID,
		"number":   index + 1,
		"title":    ch.Title,
		"stats":    report.ChapterStats(ch),
		"sections": sections,
		"prev":     prev,
		"next":     next,
	})
}

type glossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request) {
	terms := make([]string, 0, len(s.doc.Glossary))
	for t := range s.doc.Glossary {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	entries := make([]glossaryEntry, 0, len(terms))
	for _, t := range terms {
		entries = append(entries, glossaryEntry{Term: t, Definition: s.doc.Glossary[t]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": entries})
}

func (s *Server) handleGlossaryTerm(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	def, ok := s.doc.Glossary.Lookup(term)
	if !ok {
		jsonError(w, "term not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, glossaryEntry{Term: term, Definition: def})
}

// handleClassify reports the layout mode for a header list given as
// repeated h parameters or one comma-separated value.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	headers := r.URL.Query()["h"]
	if len(headers) == 1 && strings.Contains(headers[0], ",") {
		headers = strings.Split(headers[0], ",")
	}
	if len(headers) == 0 {
		jsonError(w, "at least one h parameter is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"headers": headers,
		"mode":    layout.Classify(headers),
	})
}

// intParam parses an optional non-negative integer; empty means zero.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
