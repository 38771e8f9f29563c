// Package search runs free-text queries over a report and groups the hits by
// chapter.
//
// Matching is a linear scan in document order using lower-cased substring
// containment with language-neutral Unicode case mapping; there is no index
// and no scoring. Lower-casing does not expand runes, so "strasse" does not
// match "Straße".
package search

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/prism/internal/extract"
	"github.com/dgallion1/prism/internal/report"
)

// ErrUnknownFilter is returned by ParseFilter for values outside the filter set.
var ErrUnknownFilter = errors.New("unknown type filter")

// Filter restricts results to one block kind.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterTable  Filter = "table"
	FilterStats  Filter = "stats"
	FilterTrends Filter = "trends"
	FilterNote   Filter = "note"
)

// Filters lists every filter in cycling order.
var Filters = []Filter{FilterAll, FilterTable, FilterStats, FilterTrends, FilterNote}

// ParseFilter accepts a filter name; the empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Next returns the filter after f in cycling order.
func (f Filter) Next() Filter {
	for i, x := range Filters {
		if x == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Admits reports whether a block of kind k passes the filter.
func (f Filter) Admits(k report.Kind) bool {
	return f == FilterAll || f == "" || string(f) == string(k)
}

// Result is one matching block with its position in the report.
type Result struct {
	ChapterID    string       `json:"chapter_id"`
	ChapterTitle string       `json:"chapter_title"`
	SectionIndex int          `json:"section_index"`
	SectionTitle string       `json:"section_title"`
	BlockIndex   int          `json:"block_index"`
	Block        report.Block `json:"block"`
}

// Search returns every block whose section title or extracted text contains
// query, case-insensitively, in document order. A query that is blank after
// trimming returns nil. The query itself is matched as typed.
func Search(doc *report.Document, query string, filter Filter) []Result {
	if doc == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	lower := cases.Lower(language.Und)
	needle := lowerRunes(lower, query)

	var results []Result
	for _, ch := range doc.Chapters {
		for si, sec := range ch.Sections {
			titleHit := strings.Contains(lowerRunes(lower, sec.Title), needle)
			for bi, b := range sec.Content {
				if b == nil || !filter.Admits(b.Kind()) {
					continue
				}
				if !titleHit && !strings.Contains(lowerRunes(lower, extract.Text(b)), needle) {
					continue
				}
				results = append(results, Result{
					ChapterID:    ch.ID,
					ChapterTitle: ch.Title,
					SectionIndex: si,
					SectionTitle: sec.Title,
					BlockIndex:   bi,
					Block:        b,
				})
			}
		}
	}
	return results
}

// lowerRunes lower-cases s one rune at a time, so the result never depends on
// neighbouring runes (a word-final Σ maps to σ, not ς) and Highlight can map
// every lowered byte back to its source rune.
func lowerRunes(c cases.Caser, s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(c.String(s[i : i+size]))
		i += size
	}
	return b.String()
}
