package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/prism/internal/report"
)

// JSONParser reads the native report format.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (*report.Document, error) {
	var doc report.Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if doc.Title == "" {
		doc.Title = stem(filename)
	}
	return &doc, nil
}

// YAMLParser reads the native report format written as YAML.
type YAMLParser struct{}

func (p *YAMLParser) Parse(r io.Reader, filename string) (*report.Document, error) {
	var doc report.Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &report.Document{Title: stem(filename)}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Title == "" {
		doc.Title = stem(filename)
	}
	return &doc, nil
}
