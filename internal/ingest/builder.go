package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/prism/internal/report"
)

// builder assembles a report from a flat stream of headings and blocks, the
// way a reader sees them in a linear source file. Blocks that arrive before
// any heading land in a chapter titled after the document.
type builder struct {
	doc *report.Document
}

func newBuilder(title string) *builder {
	return &builder{doc: &report.Document{Title: title}}
}

func (b *builder) chapter(title string) {
	b.doc.Chapters = append(b.doc.Chapters, report.Chapter{Title: strings.TrimSpace(title)})
}

func (b *builder) section(title string) {
	if len(b.doc.Chapters) == 0 {
		b.chapter(b.doc.Title)
	}
	ch := &b.doc.Chapters[len(b.doc.Chapters)-1]
	ch.Sections = append(ch.Sections, report.Section{Title: strings.TrimSpace(title)})
}

func (b *builder) add(blk report.Block) {
	if blk == nil {
		return
	}
	if len(b.doc.Chapters) == 0 {
		b.chapter(b.doc.Title)
	}
	ch := &b.doc.Chapters[len(b.doc.Chapters)-1]
	if len(ch.Sections) == 0 {
		ch.Sections = append(ch.Sections, report.Section{Title: ch.Title})
	}
	sec := &ch.Sections[len(ch.Sections)-1]
	sec.Content = append(sec.Content, blk)
}

// note appends text as a Note unless it is blank.
func (b *builder) note(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.add(&report.Note{Text: text})
	}
}

func (b *builder) finish() *report.Document {
	assignIDs(b.doc)
	return b.doc
}

// assignIDs gives every chapter without an ID a slug of its title, or
// ch<N> when the title has no slug-safe characters. Generated IDs never
// collide with each other or with IDs already present.
func assignIDs(doc *report.Document) {
	taken := make(map[string]bool)
	for _, ch := range doc.Chapters {
		if ch.ID != "" {
			taken[ch.ID] = true
		}
	}
	for i := range doc.Chapters {
		ch := &doc.Chapters[i]
		if ch.ID != "" {
			continue
		}
		base := Slugify(ch.Title)
		if base == "" {
			base = fmt.Sprintf("ch%d", i+1)
		}
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		ch.ID = id
		taken[id] = true
	}
}

var (
	slugUnsafe = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
