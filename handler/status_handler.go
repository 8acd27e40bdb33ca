package handler

import (
	"context"
	"net/http"

	"github.com/lacuradellauto/support-rag-be/types"
)

// StatusReporter reports model-server health and corpus counts.
type StatusReporter interface {
	Status(ctx context.Context) types.StatusResponse
}

type StatusHandler struct {
	reporter StatusReporter
}

func NewStatusHandler(reporter StatusReporter) *StatusHandler {
	return &StatusHandler{reporter: reporter}
}

// HandleStatus serves GET /api/v1/status.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	sendSuccess(w, h.reporter.Status(r.Context()))
}
