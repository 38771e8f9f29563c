package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/prism/internal/extract"
	"github.com/dgallion1/prism/internal/glossary"
	"github.com/dgallion1/prism/internal/layout"
	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/search"
)

// painter renders report content as styled terminal text.
type painter struct {
	styles   Styles
	glossary report.Glossary
	query    string
	level    layout.Level
	// preview limits table rows; zero shows every row.
	preview int
	// terms collects glossary terms seen while painting, for footnotes.
	terms map[string]bool
}

func (p *painter) inline(s string) string {
	var b strings.Builder
	for _, tok := range glossary.Tokenize(s) {
		if tok.Kind == glossary.Literal {
			b.WriteString(p.highlight(tok.Text, lipgloss.NewStyle()))
			continue
		}
		if p.terms != nil {
			p.terms[tok.Text] = true
		}
		b.WriteString(p.highlight(tok.Text, p.styles.Term))
	}
	return b.String()
}

func (p *painter) highlight(s string, base lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range search.Highlight(s, p.query) {
		if seg.Match {
			b.WriteString(p.styles.Mark.Inherit(base).Render(seg.Text))
		} else {
			b.WriteString(base.Render(seg.Text))
		}
	}
	return b.String()
}

func (p *painter) dashboard(doc *report.Document) string {
	var b strings.Builder
	b.WriteString(p.styles.Title.Render(doc.Title))
	b.WriteString("\n")
	t := report.ReportTotals(doc)
	b.WriteString(p.styles.Muted.Render(fmt.Sprintf("%d 章 · %d 行数据 · %d 项指标 · %d 条趋势",
		len(doc.Chapters), t.TableRows, t.StatItems, t.Trends)))
	b.WriteString("\n\n")
	for i := range doc.Chapters {
		ch := &doc.Chapters[i]
		st := report.ChapterStats(ch)
		fmt.Fprintf(&b, "%s %s  %s\n",
			p.styles.Lead.Render(fmt.Sprintf("%2d", i+1)),
			p.styles.Chapter.Render(ch.Title),
			p.styles.Muted.Render(fmt.Sprintf("%d 节 · %d 行 · %d 项", st.Sections, st.DataRows, st.StatItems)),
		)
	}
	return b.String()
}

func (p *painter) chapter(ch *report.Chapter, index int) string {
	p.terms = make(map[string]bool)
	var b strings.Builder
	b.WriteString(p.styles.Chapter.Render(fmt.Sprintf("%d  %s", index+1, p.inline(ch.Title))))
	b.WriteString("\n")
	for _, sec := range ch.Sections {
		b.WriteString("\n")
		b.WriteString(p.styles.Section.Render(sec.Title))
		b.WriteString("\n")
		for _, blk := range sec.Content {
			b.WriteString(p.block(blk))
			b.WriteString("\n")
		}
	}
	b.WriteString(p.footnotes())
	return b.String()
}

func (p *painter) footnotes() string {
	if len(p.terms) == 0 {
		return ""
	}
	terms := make([]string, 0, len(p.terms))
	for t := range p.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(p.styles.Muted.Render("术语"))
	b.WriteString("\n")
	for _, t := range terms {
		def, ok := p.glossary.Lookup(t)
		if !ok {
			def = "(未定义)"
		}
		fmt.Fprintf(&b, "  %s  %s\n", p.styles.Term.Render(t), p.styles.Muted.Render(def))
	}
	return b.String()
}

func (p *painter) block(blk report.Block) string {
	switch blk := blk.(type) {
	case *report.Table:
		return p.table(blk)
	case *report.Stats:
		var parts []string
		for _, it := range blk.Items {
			style := p.styles.Stat
			if c, ok := statColors[it.Color]; ok {
				style = style.Foreground(c)
			}
			parts = append(parts, style.Render(p.inline(it.Value))+" "+p.styles.Label.Render(p.inline(it.Label)))
		}
		return strings.Join(parts, "   ")
	case *report.Trends:
		var lines []string
		for _, it := range blk.Items {
			line := p.styles.Lead.Render(it.Num) + " " + p.inline(it.Title)
			if it.Description != "" {
				line += p.styles.Label.Render(" · ") + p.inline(it.Description)
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	case *report.Cards:
		var lines []string
		for _, it := range blk.Items {
			lines = append(lines, "■ "+p.styles.Lead.Render(p.inline(it.Title))+"  "+p.inline(it.Text))
		}
		return strings.Join(lines, "\n")
	case *report.Note:
		return p.styles.Note.Render(p.inline(blk.Text))
	case *report.Diagram:
		return p.styles.Diagram.Render(blk.Text)
	case *report.Unknown:
		return p.styles.Muted.Render(fmt.Sprintf("[unknown block type %s]", blk.Type))
	}
	return ""
}

func (p *painter) table(t *report.Table) string {
	view := layout.Project(t).FilterDetail(p.level)
	if p.preview > 0 {
		view = view.Preview(p.preview)
	}

	var lines []string
	if view.Subtitle != "" {
		lines = append(lines, p.styles.Subtitle.Render(p.inline(view.Subtitle)))
	}
	switch view.Mode {
	case layout.Timeline:
		for _, row := range view.Rows {
			var fields []string
			for _, c := range row.Cells {
				fields = append(fields, p.styles.Label.Render(c.Header+":")+" "+p.inline(c.Value))
			}
			lines = append(lines, p.styles.Lead.Render(p.inline(row.Lead))+" │ "+strings.Join(fields, "  "))
		}
	case layout.WideTimeline:
		lines = append(lines, p.styles.Muted.Render(strings.Join(view.Legend, " · ")))
		for _, row := range view.Rows {
			lines = append(lines, p.styles.Lead.Render(p.inline(row.Lead)))
			for _, c := range row.Cells {
				if c.Empty {
					continue
				}
				lines = append(lines, "  "+p.styles.Label.Render(c.Header+":")+" "+p.inline(c.Value))
			}
		}
	default:
		for _, row := range view.Rows {
			head := "▸ " + p.styles.Lead.Render(p.inline(row.Lead))
			if row.Detail == layout.Deep {
				head += p.styles.Muted.Render(" (deep)")
			}
			lines = append(lines, head)
			for _, c := range row.Cells {
				lines = append(lines, "  "+p.styles.Label.Render(c.Header+":")+" "+p.inline(c.Value))
			}
		}
	}
	if view.Hidden > 0 {
		lines = append(lines, p.styles.Muted.Render(fmt.Sprintf("…还有 %d 行", view.Hidden)))
	}
	return strings.Join(lines, "\n")
}

// results paints grouped search hits. Each group shows at most preview
// items, followed by a count of the rest.
func (p *painter) results(groups []search.Group, preview int) string {
	var b strings.Builder
	for _, g := range groups {
		if preview > 0 {
			g = g.Preview(preview)
		}
		b.WriteString(p.styles.Chapter.Render(g.ChapterTitle))
		b.WriteString("\n")
		for _, r := range g.Items {
			fmt.Fprintf(&b, "  %s %s  %s\n",
				p.styles.Label.Render(r.SectionTitle+" ›"),
				p.styles.Muted.Render(string(r.Block.Kind())),
				p.highlight(extract.Text(r.Block), lipgloss.NewStyle()),
			)
		}
		if g.More > 0 {
			b.WriteString(p.styles.Muted.Render(fmt.Sprintf("  …还有 %d 项", g.More)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
