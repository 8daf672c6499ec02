package handlers

import (
	"net/http"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/jobs"
	"github.com/ternarybob/arbor"
)

type APIHandler struct {
	orchestrator *jobs.Orchestrator
	logger       arbor.ILogger
}

func NewAPIHandler(orchestrator *jobs.Orchestrator) *APIHandler {
	return &APIHandler{
		orchestrator: orchestrator,
		logger:       common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status with the active engine
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	engine := h.orchestrator.ActiveEngine()
	status := "ok"
	if engine == "" {
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"engine": engine,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
