package search

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Segment is a run of text that either matched the query or did not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Highlight splits text into alternating unmatched and matched runs using
// the same lower-casing as Search. Matches never split a rune: if lower-casing
// changes a rune's byte length the whole rune is marked.
func Highlight(text, query string) []Segment {
	if text == "" {
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return []Segment{{Text: text}}
	}
	lower := cases.Lower(language.Und)
	needle := lowerRunes(lower, query)

	// lowered[k] came from the rune at text[origin[k].start:origin[k].end].
	type span struct{ start, end int }
	var lowered strings.Builder
	var origin []span
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		f := lower.String(text[i : i+size])
		lowered.WriteString(f)
		for range len(f) {
			origin = append(origin, span{i, i + size})
		}
		i += size
	}
	hay := lowered.String()

	var segs []Segment
	last := 0
	emit := func(end int, match bool) {
		if end <= last {
			return
		}
		segs = append(segs, Segment{Text: text[last:end], Match: match})
		last = end
	}
	for pos := 0; pos < len(hay); {
		k := strings.Index(hay[pos:], needle)
		if k < 0 {
			break
		}
		k += pos
		start := origin[k].start
		end := origin[k+len(needle)-1].end
		if start < last {
			start = last
		}
		emit(start, false)
		if n := len(segs); n > 0 && segs[n-1].Match && start == last && end > last {
			segs[n-1].Text += text[last:end]
			last = end
		} else {
			emit(end, true)
		}
		pos = k + len(needle)
	}
	emit(len(text), false)
	return segs
}
