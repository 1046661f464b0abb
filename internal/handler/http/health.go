// Package http provides HTTP handlers and middleware for the web application.
// It includes the endpoint and inspector handlers, health check endpoints,
// metrics collection, and various middleware components.
package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`            // "healthy" or "unhealthy"
	Message string                 `json:"message,omitempty"` // Optional status message
	Details map[string]interface{} `json:"details,omitempty"` // Optional additional details
}

// ConfigStatus reports whether a configuration document is currently loaded
// and when it was last (re)loaded, without exposing the document itself.
type ConfigStatus interface {
	Loaded() bool
	LoadedAt() time.Time
	EndpointCount() int
}

// CacheStatus reports the current size of the fetch cache.
type CacheStatus interface {
	Entries() int
	Bytes() int64
}

// HealthHandler reports whether a configuration is loaded and the fetch
// cache is reachable.
type HealthHandler struct {
	Config  ConfigStatus
	Cache   CacheStatus
	Version string
}

// ServeHTTP returns 200 OK when a configuration is loaded, or 503 Service
// Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckStatus)
	allHealthy := true

	if h.Config != nil && h.Config.Loaded() {
		checks["config"] = CheckStatus{
			Status: "healthy",
			Details: map[string]interface{}{
				"loaded_at":      h.Config.LoadedAt().UTC().Format(time.RFC3339),
				"endpoint_count": h.Config.EndpointCount(),
			},
		}
	} else {
		checks["config"] = CheckStatus{
			Status:  "unhealthy",
			Message: "no configuration loaded",
		}
		allHealthy = false
	}

	if h.Cache != nil {
		checks["fetch_cache"] = CheckStatus{
			Status: "healthy",
			Details: map[string]interface{}{
				"entries": h.Cache.Entries(),
				"bytes":   h.Cache.Bytes(),
			},
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// ReadyHandler handles readiness probe requests. It reports ready once a
// configuration has been loaded at least once.
type ReadyHandler struct {
	Config ConfigStatus
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Config == nil || !h.Config.Loaded() {
		http.Error(w, "configuration not loaded", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles liveness probe requests. It performs a lightweight
// check to verify the application is responsive.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
