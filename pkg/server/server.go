package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/config"
	"github.com/statement-tools/bankstage/pkg/extract"
	"github.com/statement-tools/bankstage/pkg/lifecycle"
	"github.com/statement-tools/bankstage/pkg/service"
	"github.com/statement-tools/bankstage/pkg/staging"
)

const maxUploadBytes = 32 << 20

// Server exposes the statement pipeline and the session lifecycle over
// HTTP. It is the operator-facing orchestrator surface; the pipeline itself
// stays synchronous per request.
type Server struct {
	config    *config.Config
	logger    *log.Logger
	mux       *http.ServeMux
	processor *service.Processor
	stager    *staging.Stager
	lifecycle *lifecycle.Manager
}

// New creates a new HTTP server around an assembled processor and lifecycle
// manager.
func New(cfg *config.Config, processor *service.Processor, stager *staging.Stager, lc *lifecycle.Manager, logger *log.Logger) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		processor: processor,
		stager:    stager,
		lifecycle: lc,
	}
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	s.setupRoutes()
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/upload", s.withLogging(s.handleUpload))
	s.mux.HandleFunc("/api/sessions", s.withLogging(s.handleSessions))
	s.mux.HandleFunc("/api/purge", s.withLogging(s.handlePurge))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
}

// handleUpload ingests one statement file: extract, normalize, stage the
// artifact and load the row-store under a freshly minted session id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to parse multipart form", err)
		return
	}
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()

	outcome, err := s.processor.ProcessUpload(r.Context(), file, header.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if _, unsupported := err.(*extract.UnsupportedFormatError); unsupported {
			status = http.StatusBadRequest
		}
		s.respondError(w, r, status, "failed to process statement", err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"session_id": outcome.SessionID,
		"rows":       outcome.Rows,
		"csv_path":   outcome.ArtifactPath,
		"message":    fmt.Sprintf("statement processed: %d rows staged", outcome.Rows),
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleSessions reports the row-store session inventory.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	sessions := s.lifecycle.ListSessions(r.Context())
	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"sessions": sessions,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handlePurge removes one session or everything. Failures come back as an
// explicit outcome body, not a bare 500, so the operator always sees a
// definitive state.
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		All       bool   `json:"all"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if !req.All && req.SessionID == "" {
		s.respondError(w, r, http.StatusBadRequest, "session_id or all required", nil)
		return
	}

	var result lifecycle.Result
	var err error
	if req.All {
		result, err = s.lifecycle.PurgeAll(r.Context())
	} else {
		result, err = s.lifecycle.PurgeSession(r.Context(), req.SessionID)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       status,
		"rows_deleted": result.RowsDeleted,
		"message":      result.Message,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleFiles serves a session's cleaned CSV artifact for download.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if sessionID == "" || strings.Contains(sessionID, "/") || strings.Contains(sessionID, "..") {
		s.respondError(w, r, http.StatusBadRequest, "session_id required", nil)
		return
	}

	path := s.stager.ArtifactPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		s.respondError(w, r, http.StatusNotFound, "artifact not found", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", staging.ArtifactName))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
