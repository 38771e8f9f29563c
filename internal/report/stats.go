package report

// ChapterSummary counts the content of one chapter.
type ChapterSummary struct {
	Sections  int `json:"sections"`
	DataRows  int `json:"data_rows"`
	StatItems int `json:"stat_items"`
}

// Totals counts the content of the whole report.
type Totals struct {
	TableRows int `json:"table_rows"`
	StatItems int `json:"stat_items"`
	Trends    int `json:"trends"`
}

// ChapterStats counts sections, table rows, and stats/trends/cards items.
func ChapterStats(ch *Chapter) ChapterSummary {
	sum := ChapterSummary{Sections: len(ch.Sections)}
	for _, sec := range ch.Sections {
		for _, b := range sec.Content {
			switch b := b.(type) {
			case *Table:
				sum.DataRows += len(b.Rows)
			case *Stats:
				sum.StatItems += len(b.Items)
			case *Trends:
				sum.StatItems += len(b.Items)
			case *Cards:
				sum.StatItems += len(b.Items)
			}
		}
	}
	return sum
}

// ReportTotals counts table rows, stats and cards items together, and trends
// separately.
func ReportTotals(d *Document) Totals {
	var t Totals
	for _, ch := range d.Chapters {
		for _, sec := range ch.Sections {
			for _, b := range sec.Content {
				switch b := b.(type) {
				case *Table:
					t.TableRows += len(b.Rows)
				case *Stats:
					t.StatItems += len(b.Items)
				case *Cards:
					t.StatItems += len(b.Items)
				case *Trends:
					t.Trends += len(b.Items)
				}
			}
		}
	}
	return t
}
