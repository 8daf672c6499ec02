package handlers

import (
	"net/http"

	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/jobs"
	"github.com/ternarybob/arbor"
)

// LockHandler exposes the account lock snapshot for operators
type LockHandler struct {
	orchestrator *jobs.Orchestrator
	logger       arbor.ILogger
}

func NewLockHandler(orchestrator *jobs.Orchestrator) *LockHandler {
	return &LockHandler{
		orchestrator: orchestrator,
		logger:       common.GetLogger(),
	}
}

// LocksHandler returns the currently held account locks
func (h *LockHandler) LocksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	locks := h.orchestrator.Locks()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"locks": locks,
		"count": len(locks),
	})
}
