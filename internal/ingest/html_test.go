package ingest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/prism/internal/report"
)

func TestHTMLParser_PlainDocument(t *testing.T) {
	input := `<html><head><title>AI 全景</title><style>p{}</style></head><body>
<nav>menu</nav>
<h1>Models</h1>
<p>Intro <strong>text</strong>.</p>
<h3>Releases</h3>
<h4>2025 主要发布</h4>
<table>
  <thead><tr><th>时间</th><th>模型</th></tr></thead>
  <tbody>
    <tr><td>2025-01</td><td>DeepSeek-V3</td></tr>
    <tr><td>2025-02</td><td>R1</td></tr>
  </tbody>
</table>
<pre>A -> B
  C</pre>
<ul><li>Stargate: 基建</li><li>MCP</li></ul>
<ol><li>推理: 普及</li></ol>
<blockquote>引用</blockquote>
<script>ignored()</script>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "AI 全景" {
		t.Errorf("expected <title> to win, got %q", doc.Title)
	}
	if len(doc.Chapters) != 1 || doc.Chapters[0].ID != "models" {
		t.Fatalf("unexpected chapters: %+v", doc.Chapters)
	}
	secs := doc.Chapters[0].Sections
	if len(secs) != 2 || secs[1].Title != "Releases" {
		t.Fatalf("unexpected sections: %+v", secs)
	}
	if diff := cmp.Diff([]report.Block{&report.Note{Text: "Intro text."}}, secs[0].Content); diff != "" {
		t.Errorf("intro mismatch (-want +got):\n%s", diff)
	}

	want := []report.Block{
		&report.Table{
			Subtitle: "2025 主要发布",
			Headers:  []string{"时间", "模型"},
			Rows:     [][]string{{"2025-01", "DeepSeek-V3"}, {"2025-02", "R1"}},
		},
		&report.Diagram{Text: "A -> B\n  C"},
		&report.Cards{Items: []report.CardItem{{Title: "Stargate", Text: "基建"}, {Title: "MCP"}}},
		&report.Trends{Items: []report.TrendItem{{Num: "01", Title: "推理", Description: "普及"}}},
		&report.Note{Text: "引用"},
	}
	if diff := cmp.Diff(want, secs[1].Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLParser_ReportMarkup(t *testing.T) {
	input := `<main>
<div class="chapter" id="ch1">
  <h2><span class="chapter-num">1</span> 模型竞赛</h2>
  <div class="section">
    <h3>核心数据</h3>
    <div class="stats-grid">
      <div class="stat green"><div class="value">8 亿</div><div class="label">周活</div></div>
      <div class="stat"><div class="value">10k</div><div class="label">servers</div></div>
    </div>
    <div class="note">采用 <abbr title="混合专家模型" class="glossary-term">MoE</abbr> 架构</div>
    <div class="card-grid"><div class="card"><h4>Stargate</h4><p>基建</p></div></div>
    <div class="trend-item"><div class="trend-num">01</div><div class="trend-content"><h4>推理</h4><p>普及</p></div></div>
    <div class="trend-item"><div class="trend-num">02</div><div class="trend-content"><h4>多模态</h4><p>融合</p></div></div>
    <div class="diagram"><pre>X -&gt; Y</pre></div>
  </div>
</div>
</main>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "export.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(doc.Chapters))
	}
	ch := doc.Chapters[0]
	if ch.ID != "ch1" || ch.Title != "模型竞赛" {
		t.Errorf("chapter: id=%q title=%q", ch.ID, ch.Title)
	}
	if len(ch.Sections) != 1 || ch.Sections[0].Title != "核心数据" {
		t.Fatalf("unexpected sections: %+v", ch.Sections)
	}

	want := []report.Block{
		&report.Stats{Items: []report.StatItem{
			{Value: "8 亿", Label: "周活", Color: "green"},
			{Value: "10k", Label: "servers"},
		}},
		&report.Note{Text: "采用 ⟦MoE⟧ 架构"},
		&report.Cards{Items: []report.CardItem{{Title: "Stargate", Text: "基建"}}},
		&report.Trends{Items: []report.TrendItem{
			{Num: "01", Title: "推理", Description: "普及"},
			{Num: "02", Title: "多模态", Description: "融合"},
		}},
		&report.Diagram{Text: "X -> Y"},
	}
	if diff := cmp.Diff(want, ch.Sections[0].Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if def, ok := doc.Glossary.Lookup("MoE"); !ok || def != "混合专家模型" {
		t.Errorf("glossary not collected: %v", doc.Glossary)
	}
}

func TestHTMLParser_TableWithoutHeaderCells(t *testing.T) {
	input := `<table><tr><td>版本</td><td>说明</td></tr><tr><td>v1</td><td>first</td></tr></table>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "t.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := doc.Chapters[0].Sections[0].Content[0].(*report.Table)
	if diff := cmp.Diff([]string{"版本", "说明"}, tbl.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if len(tbl.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(tbl.Rows))
	}
}

func TestHTMLParser_UnusedSubtitleBecomesNote(t *testing.T) {
	input := `<h2>Ch</h2><h4>Lonely</h4><p>after</p>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "s.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []report.Block{&report.Note{Text: "Lonely"}, &report.Note{Text: "after"}}
	if diff := cmp.Diff(want, doc.Chapters[0].Sections[0].Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}
