package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/prism/internal/ingest"
	"github.com/dgallion1/prism/internal/report/reporttest"
)

var envKeys = []string{
	"PORT", "PRISM_DATA", "PRISM_DEBOUNCE", "PRISM_SESSION_TTL", "PRISM_PREVIEW_ROWS",
	"PRISM_GROUP_PREVIEW", "PRISM_STATS_WINDOW", "LOG_LEVEL", "LOG_FORMAT",
	"MAX_UPLOAD_BYTES", "PDF_FALLBACK_PDFTOTEXT",
}

// execute runs the root command with fresh flag values and returns what it
// wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	configPath, dataPath, logLevel, logFormat = "", "", "", ""
	searchType, searchPreview, jsonOutput, strict = "all", 0, false, false
	exportOut, exportFormat, exportDetail = "", "html", "deep"

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeSample(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(reporttest.Sample())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassify(t *testing.T) {
	out, err := execute(t, "classify", "时间", "模型", "关键信息")
	require.NoError(t, err)
	assert.Equal(t, "timeline\n", out)

	out, err = execute(t, "classify", "Time", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, "wide_timeline\n", out)

	out, err = execute(t, "classify", "公司", "模型")
	require.NoError(t, err)
	assert.Equal(t, "card\n", out)
}

func TestSearch(t *testing.T) {
	path := writeSample(t)

	out, err := execute(t, "search", "--data", path, "deepseek")
	require.NoError(t, err)
	assert.Contains(t, out, `3 results for "deepseek"`)
	assert.Contains(t, out, "模型竞赛 (ch1)")
	assert.Contains(t, out, "协议标准 (ch3)")

	out, err = execute(t, "search", "--data", path, "--type", "table", "deepseek")
	require.NoError(t, err)
	assert.Contains(t, out, `2 results for "deepseek"`)

	out, err = execute(t, "search", "--data", path, "nothing-here")
	require.NoError(t, err)
	assert.Equal(t, "no results for \"nothing-here\"\n", out)
}

func TestSearch_JSON(t *testing.T) {
	path := writeSample(t)

	out, err := execute(t, "search", "--data", path, "--json", "--preview", "1", "mcp")
	require.NoError(t, err)

	var body struct {
		Query  string `json:"query"`
		Filter string `json:"filter"`
		Total  int    `json:"total"`
		Groups []struct {
			ChapterID string            `json:"chapter_id"`
			Items     []json.RawMessage `json:"items"`
			More      int               `json:"more"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "mcp", body.Query)
	assert.Equal(t, "all", body.Filter)
	assert.Equal(t, 4, body.Total)
	for _, g := range body.Groups {
		assert.LessOrEqual(t, len(g.Items), 1, g.ChapterID)
	}
}

func TestSearch_Errors(t *testing.T) {
	_, err := execute(t, "search", "deepseek")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no report given")

	_, err = execute(t, "search", "--data", writeSample(t), "--type", "bogus", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type filter")

	_, err = execute(t, "search")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("时间,模型\n2025,⟦RLHF⟧\n"), 0o644))

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "undefined_glossary_term")
	assert.Contains(t, out, "1 warnings")

	_, err = execute(t, "validate", "--strict", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 warnings")
}

func TestStats(t *testing.T) {
	path := writeSample(t)

	out, err := execute(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 chapters, 5 table rows, 3 stat items, 1 trends")
	assert.Contains(t, out, " 1. 模型竞赛 [ch1]: 2 sections")

	out, err = execute(t, "stats", "--json", path)
	require.NoError(t, err)
	var body struct {
		Title  string `json:"title"`
		Totals struct {
			TableRows int `json:"table_rows"`
		} `json:"totals"`
		Chapters []struct {
			ID string `json:"id"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "AI 行业全景", body.Title)
	assert.Equal(t, 5, body.Totals.TableRows)
	assert.Len(t, body.Chapters, 3)
}

func TestExport_RoundTrip(t *testing.T) {
	src := writeSample(t)
	dir := t.TempDir()

	for _, format := range []string{"html", "json"} {
		t.Run(format, func(t *testing.T) {
			dst := filepath.Join(dir, "out."+format)
			_, err := execute(t, "export", src, "--format", format, "-o", dst)
			require.NoError(t, err)

			doc, _, err := ingest.Load(dst, ingest.Options{}, quietLogger())
			require.NoError(t, err)
			want := reporttest.Sample()
			assert.Equal(t, want.Title, doc.Title)
			require.Len(t, doc.Chapters, len(want.Chapters))
			for i := range want.Chapters {
				assert.Equal(t, want.Chapters[i].Title, doc.Chapters[i].Title)
			}
			assert.Equal(t, want.Glossary, doc.Glossary)
		})
	}
}

func TestExport_Stdout(t *testing.T) {
	out, err := execute(t, "export", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "AI 行业全景")

	_, err = execute(t, "export", writeSample(t), "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}
