// Package extract flattens content blocks into searchable text.
package extract

import (
	"strings"

	"github.com/dgallion1/prism/internal/glossary"
	"github.com/dgallion1/prism/internal/report"
)

// RawFields returns the text fields of a block in display order, exactly as
// authored. Unknown and nil blocks have no fields.
func RawFields(b report.Block) []string {
	var fields []string
	switch b := b.(type) {
	case *report.Table:
		if b.Subtitle != "" {
			fields = append(fields, b.Subtitle)
		}
		fields = append(fields, b.Headers...)
		// Cells are taken as stored, even when a row disagrees with the
		// header count.
		for _, row := range b.Rows {
			fields = append(fields, row...)
		}
	case *report.Stats:
		for _, it := range b.Items {
			fields = append(fields, it.Value, it.Label)
		}
	case *report.Trends:
		for _, it := range b.Items {
			fields = append(fields, it.Title, it.Description)
		}
	case *report.Cards:
		for _, it := range b.Items {
			fields = append(fields, it.Title, it.Text)
		}
	case *report.Note:
		fields = append(fields, b.Text)
	case *report.Diagram:
		fields = append(fields, b.Text)
	case *report.Unknown, nil:
		return nil
	}
	return fields
}

// Fields is RawFields with glossary markers reduced to their terms.
func Fields(b report.Block) []string {
	fields := RawFields(b)
	for i, f := range fields {
		fields[i] = glossary.Plain(f)
	}
	return fields
}

// Text joins Fields with single spaces.
func Text(b report.Block) string {
	return strings.Join(Fields(b), " ")
}
