// Package layout decides how a table is presented and projects its rows into
// the shape each presentation needs.
package layout

import "strings"

// Mode is the rendering layout for a table.
type Mode int

const (
	// Card renders each row as a labelled card.
	Card Mode = iota
	// Timeline renders one narrative entry per row under its time marker.
	Timeline
	// WideTimeline renders one time marker per row with a sub-card per
	// remaining column.
	WideTimeline
)

func (m Mode) String() string {
	switch m {
	case Timeline:
		return "timeline"
	case WideTimeline:
		return "wide_timeline"
	default:
		return "card"
	}
}

// MarshalText lets Mode appear as a string in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

var (
	wideMarkers     = map[string]bool{"时间": true, "time": true}
	timelineMarkers = map[string]bool{"时间": true, "time": true, "版本": true}
)

// Classify picks the layout from the header row alone. The first header is
// compared lower-cased but otherwise exactly: " time" is not a time marker.
func Classify(headers []string) Mode {
	if len(headers) == 0 {
		return Card
	}
	first := strings.ToLower(headers[0])
	switch {
	case len(headers) >= 4 && wideMarkers[first]:
		return WideTimeline
	case len(headers) <= 3 && timelineMarkers[first]:
		return Timeline
	}
	return Card
}
