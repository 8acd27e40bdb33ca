package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Draft is one generated candidate reply. Drafts sharing a request
// differ only in sampling temperature.
type Draft struct {
	Text        string  `json:"text"`
	Temperature float32 `json:"temperature"`
	ElapsedMs   int64   `json:"elapsed_ms"`
}

type AnswerResponse struct {
	Query    string  `json:"query"`
	Drafts   []Draft `json:"drafts"`
	Model    string  `json:"model"`
	CacheHit bool    `json:"cache_hit"`
}

type SearchResponse struct {
	Tickets []RetrievalResult `json:"tickets"`
	Guides  []RetrievalResult `json:"guides"`
}

// StatusResponse reports model-server reachability and corpus size.
type StatusResponse struct {
	OllamaRunning   bool     `json:"ollama_running"`
	ModelAvailable  bool     `json:"model_available"`
	AvailableModels []string `json:"available_models,omitempty"`
	RequestedModel  string   `json:"requested_model"`
	TicketCount     int64    `json:"ticket_count"`
	GuideCount      int64    `json:"guide_count"`
	Error           string   `json:"error,omitempty"`
}
