package types

// AnswerRequest is the orchestrator-facing query operation. The count
// fields are pointers so that an explicit 0 (skip that collection) is
// distinguishable from an absent field (use the configured default).
type AnswerRequest struct {
	Query      string `json:"query"`
	NTickets   *int   `json:"n_tickets,omitempty"`
	NGuides    *int   `json:"n_guides,omitempty"`
	Language   string `json:"language,omitempty"`
	DraftCount int    `json:"draft_count,omitempty"`
}

// SearchRequest asks for raw retrieval results without generation,
// used by the UI's sources panel.
type SearchRequest struct {
	Query    string `json:"query"`
	NTickets *int   `json:"n_tickets,omitempty"`
	NGuides  *int   `json:"n_guides,omitempty"`
}
