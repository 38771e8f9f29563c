package ingest

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/prism/internal/report"
)

// Options tunes Load and Import.
type Options struct {
	// PDFFallback shells out to pdftotext when the PDF reader fails.
	PDFFallback bool
}

// Load reads, parses and validates the report at path. Each warning is
// logged at WARN.
func Load(path string, opts Options, log *slog.Logger) (*report.Document, []Warning, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := ForFile(path); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, warnings, err := Import(path, data, opts)
	if err != nil {
		return nil, nil, err
	}

	for _, w := range warnings {
		log.Warn("report validation",
			"code", string(w.Code),
			"chapter", w.Chapter,
			"section", w.Section,
			"block", w.Block,
			"message", w.Message,
		)
	}
	log.Info("report loaded",
		"path", path,
		"chapters", len(doc.Chapters),
		"warnings", len(warnings),
		"fingerprint", doc.Fingerprint[:12],
	)
	return doc, warnings, nil
}

// Import parses data as the format named by filename's extension, then
// validates it. Chapters left without an id are given one afterwards so
// every chapter stays addressable.
func Import(filename string, data []byte, opts Options) (*report.Document, []Warning, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, nil, err
	}
	if pp, ok := p.(*PDFParser); ok {
		pp.FallbackPdftotext = opts.PDFFallback
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", filename, err)
	}
	doc.Fingerprint = ContentHashHex(data)

	warnings := Validate(doc)
	assignIDs(doc)
	return doc, warnings, nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
