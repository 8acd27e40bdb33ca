package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lacuradellauto/support-rag-be/service"
	"github.com/lacuradellauto/support-rag-be/types"
)

// Answerer is the orchestrator surface the handler needs.
type Answerer interface {
	Answer(ctx context.Context, opts service.AnswerOptions) (*service.AnswerResult, error)
}

type AnswerHandler struct {
	rag             Answerer
	defaultNTickets int
	defaultNGuides  int
}

func NewAnswerHandler(rag Answerer, defaultNTickets, defaultNGuides int) *AnswerHandler {
	return &AnswerHandler{
		rag:             rag,
		defaultNTickets: defaultNTickets,
		defaultNGuides:  defaultNGuides,
	}
}

// HandleAnswer serves POST /api/v1/answer.
func (h *AnswerHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req types.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.rag.Answer(r.Context(), service.AnswerOptions{
		Query:      req.Query,
		NTickets:   countOrDefault(req.NTickets, h.defaultNTickets),
		NGuides:    countOrDefault(req.NGuides, h.defaultNGuides),
		Language:   req.Language,
		DraftCount: req.DraftCount,
	})
	if err != nil {
		sendPipelineError(w, err)
		return
	}

	sendSuccess(w, types.AnswerResponse{
		Query:    result.Query,
		Drafts:   result.Drafts,
		Model:    result.Model,
		CacheHit: result.CacheHit,
	})
}

// countOrDefault substitutes the configured default only when the
// field was absent. An explicit 0 means "skip that collection" and is
// passed through.
func countOrDefault(n *int, def int) int {
	if n == nil {
		return def
	}
	return *n
}

// sendPipelineError maps error kinds to a status and a user-facing
// message that distinguishes search failure from drafting failure.
func sendPipelineError(w http.ResponseWriter, err error) {
	switch service.KindOf(err) {
	case service.ErrorKindValidation:
		sendError(w, err.Error(), http.StatusBadRequest)
	case service.ErrorKindEmbedding, service.ErrorKindRetrieval:
		sendError(w, "couldn't search the knowledge base", http.StatusBadGateway)
	case service.ErrorKindGeneration:
		sendError(w, "couldn't generate a response", http.StatusServiceUnavailable)
	default:
		sendError(w, "internal error", http.StatusInternalServerError)
	}
}

func sendError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.DataResponse{
		Status:  "error",
		Message: message,
	})
}

func sendSuccess(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(types.DataResponse{
		Status: "success",
		Data:   data,
	})
}
