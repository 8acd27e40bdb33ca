package types

// Collection identifies which knowledge collection a document lives in.
type Collection string

const (
	CollectionTickets Collection = "tickets"
	CollectionGuides  Collection = "guides"
)

// Document is one retrievable unit of knowledge: a processed support
// ticket or a technical guide section.
type Document struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	Collection Collection        `json:"collection"`
	CreatedAt  int64             `json:"created_at"`
}

// RetrievalResult is one scored match from a near-vector search.
// Distance is cosine distance as reported by Weaviate: lower means
// more similar. Results are produced fresh per query, never persisted.
type RetrievalResult struct {
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	Distance   float32           `json:"distance"`
}

// TicketRecord mirrors one entry of the ETL's processed_tickets.json.
type TicketRecord struct {
	TicketID       int64  `json:"ticket_id"`
	Subject        string `json:"subject"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	CommentCount   int    `json:"comment_count"`
	SearchableText string `json:"searchable_text"`
}

// GuideRecord mirrors one entry of the scraper's guides.json.
type GuideRecord struct {
	GuideNumber string         `json:"guide_number"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Sections    []GuideSection `json:"sections"`
}

type GuideSection struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	AnchorID string `json:"anchor_id"`
}
