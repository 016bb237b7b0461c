package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/summariq/internal/pipeline"
)

// handleUpload summarizes a multipart "file" upload. With ?format=pdf the
// summary is returned as a PDF instead of JSON.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size; the extra 1MB covers form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	summary, err := s.pipeline.ProcessUpload(r.Context(), pipeline.UploadedDocument{
		Filename:     filename,
		Extension:    filepath.Ext(filename),
		Content:      data,
		DeclaredSize: header.Size,
	})
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		pdf, err := s.pipeline.RenderSummary(summary)
		if err != nil {
			s.writePipelineError(w, r, err)
			return
		}
		writePDF(w, pdf)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
