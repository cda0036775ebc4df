package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// OpportunitiesProvider returns the most recently scanned and persisted
// opportunity list. The continuous scan loop refreshes what it returns on
// every cycle; a one-shot scan leaves it pointed at that single run.
type OpportunitiesProvider func() ([]types.Opportunity, error)

// OpportunitiesHandler serves the latest scan's ranked opportunities.
type OpportunitiesHandler struct {
	provider OpportunitiesProvider
	logger   *zap.Logger
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleList handles GET /api/opportunities requests.
func (h *OpportunitiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opportunities, err := h.provider()
	if err != nil {
		h.logger.Error("opportunities-fetch-failed", zap.Error(err))
		h.writeError(w, "opportunities unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if encErr := json.NewEncoder(w).Encode(opportunities); encErr != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(encErr))
	}
}

func (h *OpportunitiesHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
