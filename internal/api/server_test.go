package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/prism/internal/config"
	"github.com/dgallion1/prism/internal/report/reporttest"
	"github.com/dgallion1/prism/internal/search"
	"github.com/dgallion1/prism/internal/session"
)

type testEnv struct {
	srv      *Server
	sessions *session.Store
	latency  *search.Latency
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	doc := reporttest.Sample()
	doc.Fingerprint = "abc123"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	latency := search.NewLatency(time.Hour)
	store := session.NewStore(time.Minute, func() *session.Session {
		return session.New(doc, session.Options{Latency: latency})
	}, log)
	t.Cleanup(store.CloseAll)

	cfg := config.Defaults()
	cfg.GroupPreview = 1
	return &testEnv{
		srv:      NewServer(doc, store, latency, log, cfg),
		sessions: store,
		latency:  latency,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

// Result blocks are an interface, so responses that carry them decode into
// these mirrors instead of the server's own types.
type groupBody struct {
	ChapterID string `json:"chapter_id"`
	Items     []struct {
		ChapterID string         `json:"chapter_id"`
		Block     map[string]any `json:"block"`
	} `json:"items"`
	More int `json:"more"`
}

type searchBody struct {
	Query  string        `json:"query"`
	Filter search.Filter `json:"filter"`
	Total  int           `json:"total"`
	Groups []groupBody   `json:"groups"`
}

type sessionBody struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
	searchBody
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReport_ETag(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"abc123"`, rec.Header().Get("ETag"))

	body := decode[struct {
		Title    string `json:"title"`
		Totals   struct {
			TableRows int `json:"table_rows"`
			StatItems int `json:"stat_items"`
			Trends    int `json:"trends"`
		} `json:"totals"`
		Chapters []struct {
			ID    string `json:"id"`
			Stats struct {
				Sections int `json:"sections"`
				DataRows int `json:"data_rows"`
			} `json:"stats"`
		} `json:"chapters"`
	}](t, rec)
	assert.Equal(t, "AI 行业全景", body.Title)
	assert.Equal(t, 5, body.Totals.TableRows)
	assert.Equal(t, 3, body.Totals.StatItems)
	assert.Equal(t, 1, body.Totals.Trends)
	require.Len(t, body.Chapters, 3)
	assert.Equal(t, "ch2", body.Chapters[1].ID)
	assert.Equal(t, 2, body.Chapters[0].Stats.Sections)

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("If-None-Match", `W/"other", "abc123"`)
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

type chapterBody struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Prev     string `json:"prev"`
	Next     string `json:"next"`
	Sections []struct {
		Title  string `json:"title"`
		Blocks []struct {
			Block map[string]any `json:"block"`
			View  *struct {
				Mode   string `json:"mode"`
				Rows   []any  `json:"rows"`
				Hidden int    `json:"hidden"`
			} `json:"view"`
		} `json:"blocks"`
	} `json:"sections"`
}

func TestChapter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/chapters/ch3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[chapterBody](t, rec)
	assert.Equal(t, 3, body.Number)
	assert.Equal(t, "ch2", body.Prev)
	assert.Empty(t, body.Next)

	blocks := body.Sections[0].Blocks
	require.Len(t, blocks, 3)
	assert.Equal(t, "note", blocks[0].Block["type"])
	assert.Nil(t, blocks[0].View)
	require.NotNil(t, blocks[2].View)
	assert.Equal(t, "card", blocks[2].View.Mode)
	assert.Len(t, blocks[2].View.Rows, 2)

	rec = env.do(t, http.MethodGet, "/api/chapters/ch3?detail=core", nil)
	body = decode[chapterBody](t, rec)
	assert.Len(t, body.Sections[0].Blocks[2].View.Rows, 1)

	rec = env.do(t, http.MethodGet, "/api/chapters/ch1?preview=1", nil)
	body = decode[chapterBody](t, rec)
	view := body.Sections[0].Blocks[0].View
	assert.Equal(t, "timeline", view.Mode)
	assert.Len(t, view.Rows, 1)
	assert.Equal(t, 1, view.Hidden)
}

func TestChapter_HTML(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/chapters/ch1?format=html&highlight=deepseek", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	out := rec.Body.String()
	assert.True(t, strings.HasPrefix(out, `<div class="chapter" id="ch1">`), out)
	assert.Contains(t, out, `<mark>DeepSeek</mark>`)
	assert.Contains(t, out, `<abbr class="glossary-term" title="混合专家模型，稀疏激活参数提升效率">MoE</abbr>`)
}

func TestChapter_Errors(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/chapters/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"chapter not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/chapters/ch1?preview=-2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGlossary(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/glossary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Terms []glossaryEntry `json:"terms"`
	}](t, rec)
	require.Len(t, body.Terms, 2)
	assert.Equal(t, "GRPO", body.Terms[0].Term)
	assert.Equal(t, "MoE", body.Terms[1].Term)

	rec = env.do(t, http.MethodGet, "/api/glossary/MoE", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "混合专家模型，稀疏激活参数提升效率", decode[glossaryEntry](t, rec).Definition)

	rec = env.do(t, http.MethodGet, "/api/glossary/RLHF", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassify(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		query url.Values
		want  string
	}{
		{url.Values{"h": {"时间", "模型", "信息"}}, "timeline"},
		{url.Values{"h": {"时间,A,B,C"}}, "wide_timeline"},
		{url.Values{"h": {"公司", "模型"}}, "card"},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/api/classify?"+tt.query.Encode(), nil)
		require.Equal(t, http.StatusOK, rec.Code, tt.query)
		body := decode[struct {
			Mode string `json:"mode"`
		}](t, rec)
		assert.Equal(t, tt.want, body.Mode, tt.query)
	}

	rec := env.do(t, http.MethodGet, "/api/classify", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/search?q=deepseek", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[searchBody](t, rec)
	assert.Equal(t, search.FilterAll, body.Filter)
	var chapters []string
	for _, g := range body.Groups {
		chapters = append(chapters, g.ChapterID)
	}
	assert.Equal(t, []string{"ch1", "ch2", "ch3"}, chapters)
	assert.Equal(t, 3, body.Total)

	rec = env.do(t, http.MethodGet, "/api/search?q=deepseek&type=table", nil)
	body = decode[searchBody](t, rec)
	assert.Equal(t, 2, body.Total)

	rec = env.do(t, http.MethodGet, "/api/search?q=%20%20", nil)
	body = decode[searchBody](t, rec)
	assert.Zero(t, body.Total)
	assert.NotNil(t, body.Groups)

	assert.Equal(t, 2, env.latency.Snapshot().Count, "blank queries are not timed")
}

func TestSearch_Preview(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/search?q=mcp&preview=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[searchBody](t, rec)
	seen := 0
	for _, g := range body.Groups {
		assert.LessOrEqual(t, len(g.Items), 1)
		seen += len(g.Items) + g.More
	}
	assert.Equal(t, 4, body.Total)
	assert.Equal(t, body.Total, seen)
}

func TestSearch_BadParams(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/search?q=x&type=chart", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown type filter")

	rec = env.do(t, http.MethodGet, "/api/search?q=x&preview=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchStats(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/search?q=mcp", nil)

	rec := env.do(t, http.MethodGet, "/api/stats/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Window string                 `json:"window"`
		Stats  search.LatencySnapshot `json:"stats"`
	}](t, rec)
	assert.Equal(t, "1h0m0s", body.Window)
	assert.Equal(t, 1, body.Stats.Count)
}

func TestSessions_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[sessionBody](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, session.Idle, created.State.Phase)
	base := "/api/sessions/" + created.ID

	rec = env.do(t, http.MethodPut, base+"/query", strings.NewReader(`{"query":"deep"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	typing := decode[sessionBody](t, rec)
	assert.Equal(t, session.Typing, typing.State.Phase)
	assert.Equal(t, "deep", typing.State.Raw)
	assert.Empty(t, typing.State.Committed)

	rec = env.do(t, http.MethodPut, base+"/query?flush=true", strings.NewReader(`{"query":"deepseek"}`))
	committed := decode[sessionBody](t, rec)
	assert.Equal(t, session.Committed, committed.State.Phase)
	assert.Equal(t, "deepseek", committed.Query)
	assert.Equal(t, 3, committed.Total)
	for _, g := range committed.Groups {
		assert.LessOrEqual(t, len(g.Items), 1)
	}

	rec = env.do(t, http.MethodPut, base+"/filter", strings.NewReader(`{"filter":"note"}`))
	filtered := decode[sessionBody](t, rec)
	assert.Equal(t, search.FilterNote, filtered.State.Filter)
	assert.Equal(t, 0, filtered.Total)

	rec = env.do(t, http.MethodPut, base+"/filter", strings.NewReader(`{"filter":"chart"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/clear", nil)
	cleared := decode[sessionBody](t, rec)
	assert.Equal(t, session.Idle, cleared.State.Phase)
	assert.Equal(t, search.FilterAll, cleared.State.Filter)

	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.sessions.Len())

	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions_BadBody(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.sessions.Create()
	rec := env.do(t, http.MethodPut, "/api/sessions/"+id+"/query", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImport(t *testing.T) {
	env := newTestEnv(t)
	csv := "时间,模型\n2025,⟦RLHF⟧,extra\n"
	body, ctype := multipartBody(t, "file", map[string]string{"../../report.csv": csv})

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[struct {
		Filename string `json:"filename"`
		Title    string `json:"title"`
		Chapters int    `json:"chapters"`
		Warnings []struct {
			Code string `json:"code"`
		} `json:"warnings"`
		Document map[string]any `json:"document"`
	}](t, rec)
	assert.Equal(t, "report.csv", res.Filename)
	assert.Equal(t, "report", res.Title)
	assert.Equal(t, 1, res.Chapters)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "row_header_mismatch", res.Warnings[0].Code)
	assert.Equal(t, "undefined_glossary_term", res.Warnings[1].Code)
	assert.NotNil(t, res.Document["chapters"])
}

func TestImport_Unsupported(t *testing.T) {
	env := newTestEnv(t)
	body, ctype := multipartBody(t, "file", map[string]string{"sheet.xlsx": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchImport(t *testing.T) {
	env := newTestEnv(t)
	body, ctype := multipartBody(t, "files", map[string]string{
		"a.csv":  "时间,模型\n2025,V3\n",
		"b.xlsx": "x",
		"c.json": "{",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/import/batch", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[struct {
		Imports []importResult `json:"imports"`
	}](t, rec)
	require.Len(t, res.Imports, 3)
	byName := map[string]importResult{}
	for _, r := range res.Imports {
		byName[r.Filename] = r
	}
	assert.Empty(t, byName["a.csv"].Error)
	assert.Equal(t, 1, byName["a.csv"].Totals.TableRows)
	assert.Nil(t, byName["a.csv"].Document)
	assert.Contains(t, byName["b.xlsx"].Error, "unsupported file type")
	assert.NotEmpty(t, byName["c.json"].Error)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.md", "report.md"},
		{"../../etc/passwd", "passwd"},
		{"a..b.json", "a_b.json"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
