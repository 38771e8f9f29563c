package layout

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/report/reporttest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Mode
	}{
		{"three column timeline", []string{"时间", "模型", "关键信息"}, Timeline},
		{"wide timeline", []string{"时间", "A", "B", "C", "D"}, WideTimeline},
		{"company first is card", []string{"公司", "时间", "模型", "关键信息", "detail"}, Card},
		{"version timeline", []string{"版本", "说明"}, Timeline},
		{"english time uppercase", []string{"Time", "Event"}, Timeline},
		{"padded header", []string{"  时间 ", "a", "b", "c"}, Card},
		{"leading space timeline marker", []string{" time", "a"}, Card},
		{"trailing space wide marker", []string{"时间 ", "a", "b", "c"}, Card},
		{"single column timeline", []string{"time"}, Timeline},
		{"version never wide", []string{"版本", "a", "b", "c"}, Card},
		{"empty headers", nil, Card},
		{"empty first header", []string{"", "a"}, Card},
		{"unrelated", []string{"公司", "模型"}, Card},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.headers); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.headers, got, tt.want)
			}
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	headers := []string{"时间", "A", "B", "C"}
	first := Classify(headers)
	for i := 0; i < 10; i++ {
		if got := Classify(headers); got != first {
			t.Fatalf("Classify changed result on call %d: %v vs %v", i, got, first)
		}
	}
	if headers[0] != "时间" {
		t.Errorf("Classify mutated its input: %q", headers)
	}
}

func TestMode_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Mode{"m": WideTimeline})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"m":"wide_timeline"}` {
		t.Errorf("got %s", b)
	}
}

func TestProject_Timeline(t *testing.T) {
	v := Project(&report.Table{
		Headers: []string{"时间", "模型", "关键信息"},
		Rows:    [][]string{{"2025-01", "DeepSeek-V3", "开源"}},
	})
	if v.Mode != Timeline {
		t.Fatalf("expected timeline, got %v", v.Mode)
	}
	want := []Row{{
		Index:  0,
		Lead:   "2025-01",
		Detail: Core,
		Cells: []Cell{
			{Header: "模型", Value: "DeepSeek-V3", Track: 0},
			{Header: "关键信息", Value: "开源", Track: 1},
		},
	}}
	if diff := cmp.Diff(want, v.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if v.Legend != nil {
		t.Errorf("timeline should have no legend, got %q", v.Legend)
	}
}

func TestProject_WideTimelinePlaceholders(t *testing.T) {
	doc := reporttest.Sample()
	table := doc.Chapters[1].Sections[0].Content[0].(*report.Table)

	v := Project(table)
	if v.Mode != WideTimeline {
		t.Fatalf("expected wide timeline, got %v", v.Mode)
	}
	if diff := cmp.Diff([]string{"OpenAI", "Anthropic", "xAI", "Mistral"}, v.Legend); diff != "" {
		t.Errorf("legend mismatch (-want +got):\n%s", diff)
	}
	row := v.Rows[0]
	if row.Lead != "2025-Q1" {
		t.Errorf("lead = %q", row.Lead)
	}
	var empty []int
	for _, c := range row.Cells {
		if c.Empty {
			empty = append(empty, c.Track)
		}
	}
	if diff := cmp.Diff([]int{2, 3}, empty); diff != "" {
		t.Errorf("empty tracks mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_CardWithDetailColumn(t *testing.T) {
	v := Project(&report.Table{
		Headers: []string{"公司", "时间", "模型", "关键信息", "detail"},
		Rows: [][]string{
			{"Anthropic", "2024-11", "MCP", "发布", "core"},
			{"OpenAI", "2025-03", "Agents SDK", "支持 MCP", "DEEP"},
			{"Google", "2025-04", "A2A", "互通", "unknown"},
		},
	})
	if v.Mode != Card {
		t.Fatalf("expected card, got %v", v.Mode)
	}
	if !v.HasDetail {
		t.Fatal("expected detail column to be detected")
	}
	if diff := cmp.Diff([]string{"公司", "时间", "模型", "关键信息"}, v.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	levels := []Level{v.Rows[0].Detail, v.Rows[1].Detail, v.Rows[2].Detail}
	if diff := cmp.Diff([]Level{Core, Deep, Core}, levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
	if v.Rows[0].Lead != "Anthropic" || len(v.Rows[0].Cells) != 3 {
		t.Errorf("unexpected first card: %+v", v.Rows[0])
	}
	if v.Mismatched != 0 {
		t.Errorf("mismatched = %d, want 0", v.Mismatched)
	}
}

func TestProject_TrailingLevelCellOnNarrowTable(t *testing.T) {
	v := Project(&report.Table{
		Headers: []string{"时间", "模型", "关键信息"},
		Rows:    [][]string{{"2025", "A", "b", "deep"}, {"2026", "C", "d"}},
	})
	if !v.HasDetail {
		t.Fatal("expected trailing level cell to be read as detail")
	}
	if v.Rows[0].Detail != Deep || v.Rows[0].Mismatched {
		t.Errorf("row 0: %+v", v.Rows[0])
	}
	if v.Rows[1].Detail != Core {
		t.Errorf("row 1 detail = %q", v.Rows[1].Detail)
	}
}

func TestProject_MismatchedRowsZipToShorter(t *testing.T) {
	v := Project(&report.Table{
		Headers: []string{"公司", "模型"},
		Rows: [][]string{
			{"A"},
			{"B", "b", "extra", "more"},
			{},
		},
	})
	if v.Mismatched != 3 {
		t.Errorf("mismatched = %d, want 3", v.Mismatched)
	}
	if len(v.Rows[0].Cells) != 0 || v.Rows[0].Lead != "A" {
		t.Errorf("short row: %+v", v.Rows[0])
	}
	if len(v.Rows[1].Cells) != 1 || v.Rows[1].Cells[0].Value != "b" {
		t.Errorf("long row: %+v", v.Rows[1])
	}
	if v.Rows[2].Lead != "" || len(v.Rows[2].Cells) != 0 {
		t.Errorf("empty row: %+v", v.Rows[2])
	}
}

func TestView_Preview(t *testing.T) {
	table := &report.Table{Headers: []string{"版本"}}
	for i := 0; i < 5; i++ {
		table.Rows = append(table.Rows, []string{"v"})
	}
	v := Project(table)

	p := v.Preview(PreviewRows)
	if len(p.Rows) != 3 || p.Hidden != 2 {
		t.Errorf("preview: %d rows, %d hidden", len(p.Rows), p.Hidden)
	}
	if len(v.Rows) != 5 {
		t.Errorf("preview modified the original view")
	}
	if full := v.Preview(10); full.Hidden != 0 || len(full.Rows) != 5 {
		t.Errorf("preview larger than table should be a no-op")
	}
}

func TestView_FilterDetail(t *testing.T) {
	doc := reporttest.Sample()
	table := doc.Chapters[2].Sections[0].Content[2].(*report.Table)
	v := Project(table)

	core := v.FilterDetail(Core)
	for _, r := range core.Rows {
		if r.Detail == Deep {
			t.Errorf("core view kept deep row %d", r.Index)
		}
	}
	if len(core.Rows) >= len(v.Rows) {
		t.Errorf("expected deep rows to be dropped: %d of %d", len(core.Rows), len(v.Rows))
	}
	if deep := v.FilterDetail(Deep); len(deep.Rows) != len(v.Rows) {
		t.Errorf("deep view should keep every row")
	}
}

func TestViewLevel(t *testing.T) {
	if ViewLevel("core") != Core || ViewLevel(" CORE ") != Core {
		t.Error("expected core")
	}
	if ViewLevel("") != Deep || ViewLevel("deep") != Deep || ViewLevel("x") != Deep {
		t.Error("expected deep default")
	}
}

func TestCollapsible(t *testing.T) {
	table := &report.Table{Headers: []string{"a"}}
	for i := 0; i < CollapseRows; i++ {
		table.Rows = append(table.Rows, []string{"x"})
	}
	if Collapsible(table) {
		t.Errorf("%d rows should not collapse", CollapseRows)
	}
	table.Rows = append(table.Rows, []string{"x"})
	if !Collapsible(table) {
		t.Errorf("%d rows should collapse", CollapseRows+1)
	}
}
