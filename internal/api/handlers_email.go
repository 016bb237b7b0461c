package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/summariq/internal/pipeline"
)

const maxJSONBody = 2 << 20

type emailSummaryRequest struct {
	Email   string `json:"email"`
	Summary string `json:"summary"`
}

func (s *Server) handleEmailSummary(w http.ResponseWriter, r *http.Request) {
	var req emailSummaryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		jsonError(w, "invalid json body", http.StatusBadRequest)
		return
	}

	err := s.pipeline.SendSummary(r.Context(), pipeline.EmailSummaryRequest{
		Email:   req.Email,
		Summary: req.Summary,
	})
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Summary sent via email as PDF attachment."})
}

type summaryPDFRequest struct {
	Summary string `json:"summary"`
}

func (s *Server) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	var req summaryPDFRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		jsonError(w, "invalid json body", http.StatusBadRequest)
		return
	}

	pdf, err := s.pipeline.RenderSummary(req.Summary)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writePDF(w, pdf)
}
