package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/prism/internal/report"
)

// MarkdownParser handles Markdown files using goldmark with GFM tables.
//
//	# heading      chapter
//	## heading     section (deeper headings too)
//	paragraph      note (blockquotes too)
//	code block     diagram
//	table          table
//	- a: b         cards
//	1. a: b        trends
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*report.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	b := newBuilder(stem(filename))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := inlineText(node, src)
			if node.Level == 1 {
				b.chapter(title)
			} else {
				b.section(title)
			}
		case *ast.Paragraph, *ast.TextBlock:
			b.note(inlineText(node, src))
		case *ast.Blockquote:
			var parts []string
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t := inlineText(c, src); t != "" {
					parts = append(parts, t)
				}
			}
			b.note(strings.Join(parts, "\n"))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.add(&report.Diagram{Text: strings.TrimRight(linesText(node, src), "\n")})
		case *east.Table:
			b.add(markdownTable(node, src))
		case *ast.List:
			if node.IsOrdered() {
				b.add(markdownTrends(node, src))
			} else {
				b.add(markdownCards(node, src))
			}
		}
	}
	return b.finish(), nil
}

func markdownTable(t *east.Table, src []byte) *report.Table {
	out := &report.Table{}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, inlineText(c, src))
		}
		if _, ok := row.(*east.TableHeader); ok {
			out.Headers = cells
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func markdownCards(l *ast.List, src []byte) *report.Cards {
	cs := &report.Cards{}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		title, body := splitLabel(inlineText(item, src))
		cs.Items = append(cs.Items, report.CardItem{Title: title, Text: body})
	}
	return cs
}

func markdownTrends(l *ast.List, src []byte) *report.Trends {
	ts := &report.Trends{}
	num := l.Start
	if num <= 0 {
		num = 1
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		title, desc := splitLabel(inlineText(item, src))
		ts.Items = append(ts.Items, report.TrendItem{
			Num:         fmt.Sprintf("%02d", num),
			Title:       title,
			Description: desc,
		})
		num++
	}
	return ts
}

// inlineText collects the text of every inline descendant of n. Line breaks
// inside a paragraph become single spaces; separate child blocks are joined
// with a space.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		default:
			if c != n && c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}
