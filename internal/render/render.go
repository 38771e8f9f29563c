// Package render turns report blocks into HTML fragments.
//
// Glossary markers become <abbr class="glossary-term"> elements carrying
// the definition as a tooltip, query matches are wrapped in <mark>, and
// tables are laid out according to layout.Classify. The markup uses the
// same class names the HTML importer recognises, so a page written by
// Document with PlainTables loads back into an equivalent report.
package render

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/prism/internal/glossary"
	"github.com/dgallion1/prism/internal/layout"
	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/search"
)

// Options controls how blocks are rendered.
type Options struct {
	// Query is highlighted wherever it occurs.
	Query string
	// Preview, when positive, shows only the first Preview table rows.
	Preview int
	// Detail hides deep rows when set to layout.Core.
	Detail layout.Level
	// PlainTables writes tables as <table> regardless of layout.
	PlainTables bool
	// Collapse wraps long tables in <details>.
	Collapse bool
}

// Block renders one block.
func Block(b report.Block, g report.Glossary, opts Options) (string, error) {
	r := renderer{g: g, opts: opts}
	return r.render(r.block(b)...)
}

// Chapter renders a chapter with its sections. index is the chapter's
// zero-based position, shown as its number.
func Chapter(ch *report.Chapter, index int, g report.Glossary, opts Options) (string, error) {
	r := renderer{g: g, opts: opts}
	return r.render(r.chapter(ch, index))
}

// Document renders a standalone HTML page for the whole report.
func Document(doc *report.Document, opts Options) (string, error) {
	r := renderer{g: doc.Glossary, opts: opts}

	head := el("head")
	head.AppendChild(el("meta", "charset", "utf-8"))
	title := el("title")
	title.AppendChild(text(doc.Title))
	head.AppendChild(title)

	content := el("main")
	for i := range doc.Chapters {
		content.AppendChild(r.chapter(&doc.Chapters[i], i))
	}
	body := el("body")
	body.AppendChild(content)

	page := el("html")
	page.AppendChild(head)
	page.AppendChild(body)

	out, err := r.render(page)
	if err != nil {
		return "", err
	}
	return "<!DOCTYPE html>\n" + out, nil
}

type renderer struct {
	g    report.Glossary
	opts Options
}

func (r renderer) render(nodes ...*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

func (r renderer) chapter(ch *report.Chapter, index int) *html.Node {
	div := el("div", "class", "chapter", "id", ch.ID)
	h := el("h2")
	num := el("span", "class", "chapter-num")
	num.AppendChild(text(strconv.Itoa(index + 1)))
	h.AppendChild(num)
	h.AppendChild(text(" "))
	r.inline(h, ch.Title)
	div.AppendChild(h)

	for _, sec := range ch.Sections {
		s := el("div", "class", "section")
		h3 := el("h3")
		r.inline(h3, sec.Title)
		s.AppendChild(h3)
		for _, b := range sec.Content {
			for _, n := range r.block(b) {
				s.AppendChild(n)
			}
		}
		div.AppendChild(s)
	}
	return div
}

// block returns the nodes for b; a table with a subtitle yields a heading
// followed by the table.
func (r renderer) block(b report.Block) []*html.Node {
	switch b := b.(type) {
	case *report.Table:
		return r.table(b)
	case *report.Stats:
		grid := el("div", "class", "stats-grid")
		for _, it := range b.Items {
			class := "stat"
			if it.Color != "" {
				class += " " + it.Color
			}
			stat := el("div", "class", class)
			stat.AppendChild(r.textDiv("value", it.Value))
			stat.AppendChild(r.textDiv("label", it.Label))
			grid.AppendChild(stat)
		}
		return []*html.Node{grid}
	case *report.Trends:
		wrap := el("div", "class", "trends")
		for _, it := range b.Items {
			item := el("div", "class", "trend-item")
			num := el("div", "class", "trend-num")
			num.AppendChild(text(it.Num))
			item.AppendChild(num)
			content := el("div", "class", "trend-content")
			content.AppendChild(r.textEl("h4", it.Title))
			content.AppendChild(r.textEl("p", it.Description))
			item.AppendChild(content)
			wrap.AppendChild(item)
		}
		return []*html.Node{wrap}
	case *report.Cards:
		grid := el("div", "class", "card-grid")
		for _, it := range b.Items {
			card := el("div", "class", "card")
			card.AppendChild(r.textEl("h4", it.Title))
			card.AppendChild(r.textEl("p", it.Text))
			grid.AppendChild(card)
		}
		return []*html.Node{grid}
	case *report.Note:
		return []*html.Node{r.textDiv("note", b.Text)}
	case *report.Diagram:
		div := el("div", "class", "diagram")
		pre := el("pre")
		pre.AppendChild(text(b.Text))
		div.AppendChild(pre)
		return []*html.Node{div}
	case *report.Unknown:
		return []*html.Node{{Type: html.CommentNode, Data: " unknown block type " + b.Type + " "}}
	}
	return nil
}

func (r renderer) table(t *report.Table) []*html.Node {
	var out []*html.Node
	if t.Subtitle != "" {
		out = append(out, r.textEl("h4", t.Subtitle))
	}

	if r.opts.PlainTables {
		return append(out, r.plainTable(t))
	}

	view := layout.Project(t)
	if r.opts.Detail == layout.Core {
		view = view.FilterDetail(layout.Core)
	}
	if r.opts.Preview > 0 {
		view = view.Preview(r.opts.Preview)
	}

	var body *html.Node
	switch view.Mode {
	case layout.Timeline:
		body = r.timeline(view)
	case layout.WideTimeline:
		body = r.wideTimeline(view)
	default:
		body = r.cardTable(view)
	}
	if view.Hidden > 0 {
		more := el("div", "class", "more")
		more.AppendChild(text(fmt.Sprintf("…还有 %d 行", view.Hidden)))
		body.AppendChild(more)
	}

	if r.opts.Collapse && r.opts.Preview <= 0 && layout.Collapsible(t) {
		details := el("details", "open", "")
		summary := el("summary")
		summary.AppendChild(text(fmt.Sprintf("%d 行", len(view.Rows))))
		details.AppendChild(summary)
		details.AppendChild(body)
		body = details
	}
	return append(out, body)
}

func (r renderer) plainTable(t *report.Table) *html.Node {
	wrap := el("div", "class", "table-wrap")
	table := el("table")
	thead := el("thead")
	tr := el("tr")
	for _, h := range t.Headers {
		tr.AppendChild(r.textEl("th", h))
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := el("tbody")
	for _, row := range t.Rows {
		tr := el("tr")
		for _, c := range row {
			tr.AppendChild(r.textEl("td", c))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	wrap.AppendChild(table)
	return wrap
}

func (r renderer) timeline(v layout.View) *html.Node {
	wrap := el("div", "class", "timeline")
	for _, row := range v.Rows {
		entry := el("div", "class", rowClass("timeline-entry", row))
		entry.AppendChild(r.textDiv("timeline-time", row.Lead))
		body := el("div", "class", "timeline-body")
		for _, c := range row.Cells {
			line := el("div", "class", "timeline-line")
			label := el("span", "class", "field-label")
			label.AppendChild(text(c.Header))
			line.AppendChild(label)
			line.AppendChild(text(" "))
			r.inline(line, c.Value)
			body.AppendChild(line)
		}
		entry.AppendChild(body)
		wrap.AppendChild(entry)
	}
	return wrap
}

func (r renderer) wideTimeline(v layout.View) *html.Node {
	wrap := el("div", "class", "wide-timeline")
	legend := el("div", "class", "legend")
	for i, h := range v.Legend {
		item := el("span", "class", "track-"+strconv.Itoa(i))
		item.AppendChild(text(h))
		legend.AppendChild(item)
	}
	wrap.AppendChild(legend)

	for _, row := range v.Rows {
		entry := el("div", "class", rowClass("wt-row", row))
		entry.AppendChild(r.textDiv("wt-time", row.Lead))
		for _, c := range row.Cells {
			class := "wt-track track-" + strconv.Itoa(c.Track)
			if c.Empty {
				class += " empty"
			}
			track := el("div", "class", class, "title", c.Header)
			if !c.Empty {
				r.inline(track, c.Value)
			}
			entry.AppendChild(track)
		}
		wrap.AppendChild(entry)
	}
	return wrap
}

func (r renderer) cardTable(v layout.View) *html.Node {
	wrap := el("div", "class", "card-table")
	for _, row := range v.Rows {
		card := el("div", "class", rowClass("row-card", row))
		card.AppendChild(r.textEl("h5", row.Lead))
		dl := el("dl")
		for _, c := range row.Cells {
			dt := el("dt")
			dt.AppendChild(text(c.Header))
			dl.AppendChild(dt)
			dl.AppendChild(r.textEl("dd", c.Value))
		}
		card.AppendChild(dl)
		wrap.AppendChild(card)
	}
	return wrap
}

func rowClass(base string, row layout.Row) string {
	if row.Detail == layout.Deep {
		base += " deep"
	}
	if row.Mismatched {
		base += " mismatched"
	}
	return base
}

func (r renderer) textDiv(class, s string) *html.Node {
	div := el("div", "class", class)
	r.inline(div, s)
	return div
}

func (r renderer) textEl(tag, s string) *html.Node {
	n := el(tag)
	r.inline(n, s)
	return n
}

// inline appends s to parent, resolving glossary markers and highlighting
// query matches.
func (r renderer) inline(parent *html.Node, s string) {
	for _, tok := range glossary.Tokenize(s) {
		if tok.Kind == glossary.Literal {
			r.highlight(parent, tok.Text)
			continue
		}
		var term *html.Node
		if def, ok := r.g.Lookup(tok.Text); ok {
			term = el("abbr", "class", "glossary-term", "title", def)
		} else {
			term = el("span", "class", "glossary-term")
		}
		r.highlight(term, tok.Text)
		parent.AppendChild(term)
	}
}

func (r renderer) highlight(parent *html.Node, s string) {
	for _, seg := range search.Highlight(s, r.opts.Query) {
		if !seg.Match {
			parent.AppendChild(text(seg.Text))
			continue
		}
		mark := el("mark")
		mark.AppendChild(text(seg.Text))
		parent.AppendChild(mark)
	}
}

// el builds an element from a tag and key, value attribute pairs.
func el(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
