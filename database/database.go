package database

import (
	"context"

	"github.com/lacuradellauto/support-rag-be/types"
)

// VectorDatabase defines the vector-store operations the RAG pipeline
// needs. Searches are read-only; writes happen only during ingestion.
type VectorDatabase interface {
	// Schema operations
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error

	// Search operations
	SearchNearVector(ctx context.Context, collection types.Collection, vector []float32, limit int) ([]types.RetrievalResult, error)

	// Ingestion operations
	UpsertDocument(ctx context.Context, doc *types.Document, vector []float32) error
	BatchInsertDocuments(ctx context.Context, docs []types.Document, vectors [][]float32) error

	// Stats
	Count(ctx context.Context, collection types.Collection) (int64, error)
}
