package ingest

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/prism/internal/report"
)

// HTMLParser handles HTML files. It understands both plain documents
// (h1/h2 chapters, h3 sections, tables, paragraphs, lists, pre) and the
// class-annotated markup produced by the render package, so an exported
// report loads back into the same tree.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*report.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := stem(filename)
	if t := findTitle(root); t != "" {
		title = t
	}

	w := &htmlWalker{b: newBuilder(title), glossary: report.Glossary{}}
	if body := findElement(root, "body"); body != nil {
		w.children(body, nil)
	} else {
		w.children(root, nil)
	}
	w.flushSubtitle()

	doc := w.b.finish()
	if len(w.glossary) > 0 {
		doc.Glossary = w.glossary
	}
	return doc, nil
}

type htmlWalker struct {
	b        *builder
	glossary report.Glossary
	// subtitle is an h4-h6 waiting for the table it labels.
	subtitle string
}

func (w *htmlWalker) children(n, skip *html.Node) {
	var trends *report.Trends
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c == skip {
			continue
		}
		if c.Type == html.ElementNode && hasClass(c, "trend-item") {
			if trends == nil {
				trends = &report.Trends{}
			}
			trends.Items = append(trends.Items, w.trendItem(c, len(trends.Items)+1))
			continue
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if trends != nil {
			w.add(trends)
			trends = nil
		}
		w.walk(c)
	}
	if trends != nil {
		w.add(trends)
	}
}

func (w *htmlWalker) walk(n *html.Node) {
	if n.Type == html.TextNode {
		w.note(collapse(n.Data))
		return
	}
	if n.Type != html.ElementNode {
		w.children(n, nil)
		return
	}

	switch {
	case skipElement(n.Data):
		return
	case n.Data == "div" && hasClass(n, "chapter"):
		w.flushSubtitle()
		h := findElement(n, "h2")
		w.b.chapter(w.text(h))
		w.b.doc.Chapters[len(w.b.doc.Chapters)-1].ID = attr(n, "id")
		w.children(n, h)
	case n.Data == "div" && hasClass(n, "section"):
		w.flushSubtitle()
		h := findElement(n, "h3")
		w.b.section(w.text(h))
		w.children(n, h)
	case n.Data == "h1" || n.Data == "h2":
		w.flushSubtitle()
		w.b.chapter(w.text(n))
	case n.Data == "h3":
		w.flushSubtitle()
		w.b.section(w.text(n))
	case n.Data == "h4" || n.Data == "h5" || n.Data == "h6":
		w.flushSubtitle()
		w.subtitle = w.text(n)
	case n.Data == "table":
		w.add(w.table(n))
	case hasClass(n, "stats-grid"):
		w.add(w.stats(n))
	case hasClass(n, "card-grid"):
		w.add(w.cards(n))
	case hasClass(n, "diagram"), n.Data == "pre":
		w.add(&report.Diagram{Text: strings.Trim(rawText(n), "\n")})
	case hasClass(n, "note"), n.Data == "p", n.Data == "blockquote":
		w.note(w.text(n))
	case n.Data == "ul":
		w.add(w.listCards(n))
	case n.Data == "ol":
		w.add(w.listTrends(n))
	default:
		w.children(n, nil)
	}
}

func (w *htmlWalker) add(blk report.Block) {
	if t, ok := blk.(*report.Table); ok && t.Subtitle == "" {
		t.Subtitle = w.subtitle
		w.subtitle = ""
	}
	w.flushSubtitle()
	w.b.add(blk)
}

func (w *htmlWalker) note(text string) {
	if text == "" {
		return
	}
	w.flushSubtitle()
	w.b.note(text)
}

// flushSubtitle keeps an unused minor heading as a note rather than losing it.
func (w *htmlWalker) flushSubtitle() {
	if w.subtitle != "" {
		s := w.subtitle
		w.subtitle = ""
		w.b.note(s)
	}
}

func (w *htmlWalker) table(n *html.Node) *report.Table {
	t := &report.Table{}
	if c := findElement(n, "caption"); c != nil {
		t.Subtitle = w.text(c)
	}
	for _, tr := range findAll(n, "tr") {
		var cells []string
		header := false
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "th":
				header = true
				cells = append(cells, w.text(c))
			case "td":
				cells = append(cells, w.text(c))
			}
		}
		if len(cells) == 0 {
			continue
		}
		inHead := tr.Parent != nil && tr.Parent.Data == "thead"
		if t.Headers == nil && (header || inHead) {
			t.Headers = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	if t.Headers == nil && len(t.Rows) > 0 {
		t.Headers, t.Rows = t.Rows[0], t.Rows[1:]
	}
	return t
}

var statColors = []string{"green", "blue", "orange", "pink"}

func (w *htmlWalker) stats(n *html.Node) *report.Stats {
	s := &report.Stats{}
	for _, el := range findAllClass(n, "stat") {
		item := report.StatItem{
			Value: w.text(findClass(el, "value")),
			Label: w.text(findClass(el, "label")),
		}
		for _, c := range statColors {
			if hasClass(el, c) {
				item.Color = c
				break
			}
		}
		s.Items = append(s.Items, item)
	}
	return s
}

func (w *htmlWalker) cards(n *html.Node) *report.Cards {
	cs := &report.Cards{}
	for _, el := range findAllClass(n, "card") {
		cs.Items = append(cs.Items, report.CardItem{
			Title: w.text(findElement(el, "h4")),
			Text:  w.text(findElement(el, "p")),
		})
	}
	return cs
}

func (w *htmlWalker) trendItem(n *html.Node, pos int) report.TrendItem {
	num := w.text(findClass(n, "trend-num"))
	if num == "" {
		num = fmt.Sprintf("%02d", pos)
	}
	return report.TrendItem{
		Num:         num,
		Title:       w.text(findElement(n, "h4")),
		Description: w.text(findElement(n, "p")),
	}
}

func (w *htmlWalker) listCards(n *html.Node) *report.Cards {
	cs := &report.Cards{}
	for _, li := range directChildren(n, "li") {
		title, text := splitLabel(w.text(li))
		cs.Items = append(cs.Items, report.CardItem{Title: title, Text: text})
	}
	return cs
}

func (w *htmlWalker) listTrends(n *html.Node) *report.Trends {
	ts := &report.Trends{}
	for i, li := range directChildren(n, "li") {
		title, desc := splitLabel(w.text(li))
		ts.Items = append(ts.Items, report.TrendItem{Num: fmt.Sprintf("%02d", i+1), Title: title, Description: desc})
	}
	return ts
}

// text flattens inline content, turning glossary-term elements back into
// ⟦term⟧ markers and recording the definitions carried in their titles.
func (w *htmlWalker) text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			switch {
			case skipElement(n.Data), hasClass(n, "chapter-num"):
				return
			case n.Data == "br":
				buf.WriteByte(' ')
				return
			case n.Data == "sup":
				buf.WriteByte('^')
			case hasClass(n, "glossary-term"):
				term := collapse(rawText(n))
				if term != "" {
					buf.WriteString("⟦" + term + "⟧")
					if def := attr(n, "title"); def != "" {
						w.glossary[term] = def
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return collapse(buf.String())
}

func skipElement(tag string) bool {
	switch tag {
	case "script", "style", "nav", "footer", "header", "head", "template":
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return buf.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return collapse(rawText(t))
	}
	return ""
}

// findElement returns the first descendant with the given tag.
func findElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, class) {
			return c
		}
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
		out = append(out, findAll(c, tag)...)
	}
	return out
}

func findAllClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, class) {
			out = append(out, c)
			continue
		}
		out = append(out, findAllClass(c, class)...)
	}
	return out
}

func directChildren(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

// splitLabel splits "title: text" (ASCII or full-width colon). Without a
// colon the whole string is the title.
func splitLabel(s string) (string, string) {
	i := strings.IndexAny(s, ":：")
	if i < 0 {
		return strings.TrimSpace(s), ""
	}
	sep := 1
	if strings.HasPrefix(s[i:], "：") {
		sep = len("：")
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+sep:])
}
