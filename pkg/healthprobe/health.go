// Package healthprobe backs the operator HTTP server's /health and /ready
// endpoints, tracking both process readiness and the freshness of the
// scanner's background scan loop.
package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker provides health and readiness checks. Readiness also
// depends on a scan loop having reported in within MaxScanAge: a process
// that is up but whose scan loop has wedged should fail readiness so an
// orchestrator restarts it.
type HealthChecker struct {
	startTime  time.Time
	ready      atomic.Bool
	lastScanAt atomic.Int64 // UnixNano, 0 if no scan has completed yet
	maxScanAge time.Duration
}

// New creates a HealthChecker. maxScanAge of zero disables the
// scan-staleness check, so /ready depends only on SetReady.
func New(maxScanAge time.Duration) *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		maxScanAge: maxScanAge,
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// RecordScan marks that a scan cycle completed at t, resetting the
// staleness clock /ready checks against.
func (h *HealthChecker) RecordScan(t time.Time) {
	h.lastScanAt.Store(t.UnixNano())
}

// scanAge returns the time since the last recorded scan, and whether a
// scan has ever been recorded.
func (h *HealthChecker) scanAge(now time.Time) (time.Duration, bool) {
	ns := h.lastScanAt.Load()
	if ns == 0 {
		return 0, false
	}
	return now.Sub(time.Unix(0, ns)), true
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
	ScanAge string `json:"scan_age,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		}
		if age, ok := h.scanAge(time.Now()); ok {
			resp.ScanAge = age.String()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks. Returns 503 until
// SetReady(true) has been called, and again if the scan loop has not
// reported a completed scan within MaxScanAge.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeNotReady(w, "application is starting")
			return
		}

		now := time.Now()
		if h.maxScanAge > 0 {
			if age, ok := h.scanAge(now); ok && age > h.maxScanAge {
				writeNotReady(w, "scan loop has not reported in within the liveness window")
				return
			}
		}

		resp := HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		}
		if age, ok := h.scanAge(now); ok {
			resp.ScanAge = age.String()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeNotReady(w http.ResponseWriter, message string) {
	resp := HealthResponse{Status: "not_ready", Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(resp)
}
