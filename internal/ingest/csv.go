package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/prism/internal/report"
)

// CSVParser handles CSV files: the whole file becomes one table under a
// single chapter and section named after the file. The first record is the
// header row; records of any width are kept so validation can flag them.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*report.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := stem(filename)
	b := newBuilder(title)
	if len(records) == 0 {
		return b.finish(), nil
	}

	b.chapter(title)
	b.section(title)
	b.add(&report.Table{Headers: records[0], Rows: records[1:]})
	return b.finish(), nil
}
