package ingest

import (
	"fmt"

	"github.com/dgallion1/prism/internal/extract"
	"github.com/dgallion1/prism/internal/glossary"
	"github.com/dgallion1/prism/internal/report"
)

// WarningCode classifies an authoring defect.
type WarningCode string

const (
	WarnDuplicateID    WarningCode = "duplicate_chapter_id"
	WarnEmptyID        WarningCode = "empty_chapter_id"
	WarnRowMismatch    WarningCode = "row_header_mismatch"
	WarnUnknownBlock   WarningCode = "unknown_block_type"
	WarnUndefinedTerm  WarningCode = "undefined_glossary_term"
	WarnEmptyChapter   WarningCode = "empty_chapter"
	WarnTableNoHeaders WarningCode = "table_without_headers"
)

// Warning is a load-time data problem. None of them stop a report from
// loading; the browse and search paths degrade around each one.
type Warning struct {
	Code    WarningCode `json:"code"`
	Chapter string      `json:"chapter,omitempty"`
	Section string      `json:"section,omitempty"`
	Block   int         `json:"block"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Validate lists authoring defects in document order.
func Validate(doc *report.Document) []Warning {
	var out []Warning
	seen := make(map[string]int)
	undefined := make(map[string]bool)

	for ci, ch := range doc.Chapters {
		if ch.ID == "" {
			out = append(out, Warning{
				Code: WarnEmptyID, Block: -1,
				Message: fmt.Sprintf("chapter %d (%q) has no id", ci+1, ch.Title),
			})
		} else if first, dup := seen[ch.ID]; dup {
			out = append(out, Warning{
				Code: WarnDuplicateID, Chapter: ch.ID, Block: -1,
				Message: fmt.Sprintf("chapter id %q used by chapters %d and %d", ch.ID, first+1, ci+1),
			})
		} else {
			seen[ch.ID] = ci
		}
		if len(ch.Sections) == 0 {
			out = append(out, Warning{
				Code: WarnEmptyChapter, Chapter: ch.ID, Block: -1,
				Message: fmt.Sprintf("chapter %q has no sections", ch.Title),
			})
		}

		for _, sec := range ch.Sections {
			for bi, b := range sec.Content {
				at := Warning{Chapter: ch.ID, Section: sec.Title, Block: bi}
				switch blk := b.(type) {
				case *report.Unknown:
					at.Code = WarnUnknownBlock
					at.Message = fmt.Sprintf("unknown block type %q", blk.Type)
					out = append(out, at)
				case *report.Table:
					out = append(out, tableWarnings(at, blk)...)
				}
				for _, field := range extract.RawFields(b) {
					for _, term := range glossary.Terms(field) {
						if _, ok := doc.Glossary.Lookup(term); ok || undefined[term] {
							continue
						}
						undefined[term] = true
						w := at
						w.Code = WarnUndefinedTerm
						w.Message = fmt.Sprintf("glossary term %q has no definition", term)
						out = append(out, w)
					}
				}
			}
		}
	}
	return out
}

func tableWarnings(at Warning, t *report.Table) []Warning {
	var out []Warning
	if len(t.Headers) == 0 && len(t.Rows) > 0 {
		w := at
		w.Code = WarnTableNoHeaders
		w.Message = "table has rows but no headers"
		out = append(out, w)
	}
	for ri, row := range t.Rows {
		if len(row) == len(t.Headers) {
			continue
		}
		w := at
		w.Code = WarnRowMismatch
		w.Message = fmt.Sprintf("row %d has %d cells for %d headers", ri+1, len(row), len(t.Headers))
		out = append(out, w)
	}
	return out
}
