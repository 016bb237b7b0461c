package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/summariq/internal/pipeline"
	"github.com/dgallion1/summariq/internal/tracing"
)

// retryAfterSeconds is sent with every 429.
const retryAfterSeconds = 30

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writePDF(w http.ResponseWriter, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// statusFor maps a pipeline failure to its HTTP status.
func statusFor(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation:
		if errors.Is(err, pipeline.ErrTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case pipeline.KindExtraction:
		return http.StatusUnprocessableEntity
	case pipeline.KindRateLimited:
		return http.StatusTooManyRequests
	case pipeline.KindUpstream, pipeline.KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writePipelineError responds with the caller-facing message of err. Causes
// stay in the log.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := "internal error"
	var pe *pipeline.Error
	if errors.As(err, &pe) && pe.Msg != "" {
		msg = pe.Msg
	}

	s.log.Warn("request failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"trace_id", tracing.TraceID(r.Context()),
		"user", subjectFrom(r.Context()),
		"status", code,
		"error", err,
	)
	if code == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	jsonError(w, msg, code)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
