package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Root liveness probe
	mux.HandleFunc("/", s.handleRoot)

	// WebSocket route (job event stream)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Jobs
	mux.HandleFunc("/api/jobs", s.app.JobHandler.JobsHandler)      // POST (submit), GET (list)
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.JobByIDHandler)  // GET/DELETE /{id}

	// API routes - Account locks
	mux.HandleFunc("/api/accounts/locks", s.app.LockHandler.LocksHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Catch-all for unknown API paths
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleRoot serves the liveness response at / and 404s everything else
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"service":"scribe","status":"ok"}`))
}
