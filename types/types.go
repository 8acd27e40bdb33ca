package types

const (
	TypeWebsocketPing   = "ping"
	TypeWebsocketPong   = "pong"
	TypeWebsocketAnswer = "answer"
	TypeWebsocketChunk  = "chunk"
	TypeWebsocketDone   = "done"
	TypeWebsocketError  = "error"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebsocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebsocketAnswerPayload carries an AnswerRequest over the streaming
// endpoint. Streamed answers are always single-draft.
type WebsocketAnswerPayload struct {
	Query    string `json:"query"`
	NTickets int    `json:"n_tickets,omitempty"`
	NGuides  int    `json:"n_guides,omitempty"`
	Language string `json:"language,omitempty"`
}

// StreamHandler receives generated text chunks as they arrive.
type StreamHandler func(chunk string)
