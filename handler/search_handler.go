package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lacuradellauto/support-rag-be/types"
)

// Retriever is the retrieval surface behind the sources panel.
type Retriever interface {
	Retrieve(ctx context.Context, query string, nTickets, nGuides int) ([]types.RetrievalResult, []types.RetrievalResult, error)
}

type SearchHandler struct {
	retrieval       Retriever
	defaultNTickets int
	defaultNGuides  int
}

func NewSearchHandler(retrieval Retriever, defaultNTickets, defaultNGuides int) *SearchHandler {
	return &SearchHandler{
		retrieval:       retrieval,
		defaultNTickets: defaultNTickets,
		defaultNGuides:  defaultNGuides,
	}
}

// HandleSearch serves POST /api/v1/documents/search.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	nTickets := countOrDefault(req.NTickets, h.defaultNTickets)
	nGuides := countOrDefault(req.NGuides, h.defaultNGuides)

	tickets, guides, err := h.retrieval.Retrieve(r.Context(), req.Query, nTickets, nGuides)
	if err != nil {
		sendPipelineError(w, err)
		return
	}

	sendSuccess(w, types.SearchResponse{
		Tickets: tickets,
		Guides:  guides,
	})
}
