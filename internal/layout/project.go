package layout

import (
	"strings"

	"github.com/dgallion1/prism/internal/report"
)

const (
	// PreviewRows is how many rows a table shows in a search preview.
	PreviewRows = 3
	// CollapseRows is the row count above which a table starts collapsed.
	CollapseRows = 8
)

// Level is the advisory detail level of a row.
type Level string

const (
	Core Level = "core"
	Deep Level = "deep"
)

// ViewLevel maps a query value to a Level, defaulting to Deep so that an
// absent parameter shows every row.
func ViewLevel(s string) Level {
	if strings.EqualFold(strings.TrimSpace(s), string(Core)) {
		return Core
	}
	return Deep
}

var detailHeaders = map[string]bool{"detail": true, "detaillevel": true, "detail_level": true, "详细度": true}

// Cell is one displayed value with the header it sits under.
type Cell struct {
	Header string `json:"header"`
	Value  string `json:"value"`
	// Track is the legend position for wide timelines.
	Track int  `json:"track"`
	Empty bool `json:"empty,omitempty"`
}

// Row is a projected table row. Lead is the time marker for timelines and
// the card title otherwise.
type Row struct {
	Index      int    `json:"index"`
	Lead       string `json:"lead"`
	Cells      []Cell `json:"cells"`
	Detail     Level  `json:"detail"`
	Mismatched bool   `json:"mismatched,omitempty"`
}

// View is a table ready for a renderer.
type View struct {
	Mode     Mode     `json:"mode"`
	Subtitle string   `json:"subtitle,omitempty"`
	Headers  []string `json:"headers"`
	// Legend lists the track headers of a wide timeline.
	Legend     []string `json:"legend,omitempty"`
	Rows       []Row    `json:"rows"`
	HasDetail  bool     `json:"has_detail,omitempty"`
	Mismatched int      `json:"mismatched,omitempty"`
	// Hidden counts rows dropped by Preview.
	Hidden int `json:"hidden,omitempty"`
}

// Project classifies t and projects every row.
//
// Rows whose cell count differs from the header count are zipped to the
// shorter of the two and flagged; no cell is invented and extra cells are
// not shown. A trailing detail column (or a single extra "core"/"deep" cell
// past the last header) is split off as the row's Level.
func Project(t *report.Table) View {
	headers := t.Headers
	detailCol := len(headers) > 0 && detailHeaders[strings.ToLower(strings.TrimSpace(headers[len(headers)-1]))]
	if detailCol {
		headers = headers[:len(headers)-1]
	}

	v := View{
		Mode:     Classify(t.Headers),
		Subtitle: t.Subtitle,
		Headers:  headers,
		Rows:     make([]Row, 0, len(t.Rows)),
	}
	if v.Mode == WideTimeline && len(headers) > 1 {
		v.Legend = headers[1:]
	}

	for i, raw := range t.Rows {
		cells, level, split := splitDetail(raw, len(headers), detailCol)
		if split {
			v.HasDetail = true
		}

		row := Row{Index: i, Detail: level}
		n := len(cells)
		if n != len(headers) {
			row.Mismatched = true
			v.Mismatched++
			n = min(n, len(headers))
		}
		if n > 0 {
			row.Lead = cells[0]
		}
		for j := 1; j < n; j++ {
			c := Cell{Header: headers[j], Value: cells[j], Track: j - 1}
			if v.Mode == WideTimeline {
				c.Empty = isPlaceholder(cells[j])
			}
			row.Cells = append(row.Cells, c)
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func splitDetail(row []string, width int, detailCol bool) ([]string, Level, bool) {
	switch {
	case detailCol && len(row) == width+1:
		return row[:width], parseLevel(row[width]), true
	case !detailCol && len(row) == width+1 && isLevel(row[width]):
		return row[:width], parseLevel(row[width]), true
	}
	return row, Core, false
}

func isLevel(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == string(Core) || s == string(Deep)
}

func parseLevel(s string) Level {
	if strings.EqualFold(strings.TrimSpace(s), string(Deep)) {
		return Deep
	}
	return Core
}

func isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "—" || s == "-"
}

// Preview keeps the first n rows and records how many were hidden.
func (v View) Preview(n int) View {
	if n < 0 || len(v.Rows) <= n {
		return v
	}
	v.Hidden += len(v.Rows) - n
	v.Rows = v.Rows[:n]
	return v
}

// FilterDetail keeps the rows visible at the given level: Core hides rows
// marked Deep, Deep shows everything.
func (v View) FilterDetail(level Level) View {
	if level == Deep || !v.HasDetail {
		return v
	}
	rows := make([]Row, 0, len(v.Rows))
	for _, r := range v.Rows {
		if r.Detail != Deep {
			rows = append(rows, r)
		}
	}
	v.Rows = rows
	return v
}

// Collapsible reports whether a table is long enough to start collapsed.
func Collapsible(t *report.Table) bool {
	return len(t.Rows) > CollapseRows
}
