package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/prism/internal/report"
)

// TextParser handles plain text files: each blank-line separated paragraph
// becomes a note.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*report.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newBuilder(stem(filename))
	var current strings.Builder
	flush := func() {
		b.note(current.String())
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	flush()

	return b.finish(), nil
}
