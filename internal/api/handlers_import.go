package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/prism/internal/ingest"
	"github.com/dgallion1/prism/internal/report"
)

const batchImportWorkers = 4

type importResult struct {
	Filename    string           `json:"filename"`
	Title       string           `json:"title,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Chapters    int              `json:"chapters"`
	Totals      report.Totals    `json:"totals"`
	Warnings    []ingest.Warning `json:"warnings"`
	Document    *report.Document `json:"document,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// handleImport converts an uploaded file in any supported format into the
// native report format and reports its validation warnings. The served
// report is not changed.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !ingest.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := s.importFile(filename, data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if r.FormValue("include_document") == "false" {
		res.Document = nil
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBatchImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	// Each file parses independently; results keep upload order.
	results := make([]importResult, len(files))
	var g errgroup.Group
	g.SetLimit(batchImportWorkers)
	for i, fh := range files {
		g.Go(func() error {
			results[i] = s.importPart(fh)
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"imports": results})
}

func (s *Server) importPart(fh *multipart.FileHeader) importResult {
	filename := sanitizeFilename(fh.Filename)
	if !ingest.IsSupportedExtension(filename) {
		return importResult{
			Filename: filename,
			Error:    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
		}
	}

	f, err := fh.Open()
	if err != nil {
		return importResult{Filename: filename, Error: "failed to open file"}
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return importResult{Filename: filename, Error: "file too large or read error"}
	}

	res, err := s.importFile(filename, data)
	if err != nil {
		return importResult{Filename: filename, Error: err.Error()}
	}
	res.Document = nil
	return res
}

func (s *Server) importFile(filename string, data []byte) (importResult, error) {
	doc, warnings, err := ingest.Import(filename, data, s.cfg.LoadOptions())
	if err != nil {
		s.log.Warn("import failed", "filename", filename, "error", err)
		return importResult{}, err
	}
	if warnings == nil {
		warnings = []ingest.Warning{}
	}
	s.log.Info("report imported",
		"filename", filename,
		"chapters", len(doc.Chapters),
		"warnings", len(warnings),
	)
	return importResult{
		Filename:    filename,
		Title:       doc.Title,
		Fingerprint: doc.Fingerprint,
		Chapters:    len(doc.Chapters),
		Totals:      report.ReportTotals(doc),
		Warnings:    warnings,
		Document:    doc,
	}, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
