package service

import (
	"context"
	"strings"
	"sync"

	"github.com/lacuradellauto/support-rag-be/database"
	"github.com/lacuradellauto/support-rag-be/types"
	"go.uber.org/zap"
)

// RetrievalService wraps the vector store: it embeds the query once
// and searches the ticket and guide collections with that vector.
type RetrievalService struct {
	vectorDB database.VectorDatabase
	embedder Embedder
	logger   *zap.Logger
}

func NewRetrievalService(vectorDB database.VectorDatabase, embedder Embedder, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		vectorDB: vectorDB,
		embedder: embedder,
		logger:   logger,
	}
}

// Retrieve returns the top matches from both collections, best first.
// A request larger than a collection returns everything it holds; an
// empty collection yields an empty slice, never an error. Either
// search failing fails the whole call.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, nTickets, nGuides int) ([]types.RetrievalResult, []types.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, NewValidationError("query must not be empty")
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	var (
		wg         sync.WaitGroup
		tickets    []types.RetrievalResult
		guides     []types.RetrievalResult
		ticketsErr error
		guidesErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		tickets, ticketsErr = s.search(ctx, types.CollectionTickets, vector, nTickets)
	}()
	go func() {
		defer wg.Done()
		guides, guidesErr = s.search(ctx, types.CollectionGuides, vector, nGuides)
	}()
	wg.Wait()

	if ticketsErr != nil {
		return nil, nil, ticketsErr
	}
	if guidesErr != nil {
		return nil, nil, guidesErr
	}

	s.logger.Debug("retrieval complete",
		zap.Int("tickets", len(tickets)),
		zap.Int("guides", len(guides)))
	return tickets, guides, nil
}

func (s *RetrievalService) search(ctx context.Context, collection types.Collection, vector []float32, limit int) ([]types.RetrievalResult, error) {
	if limit <= 0 {
		return []types.RetrievalResult{}, nil
	}
	results, err := s.vectorDB.SearchNearVector(ctx, collection, vector, limit)
	if err != nil {
		return nil, NewRetrievalError("vector search failed for "+string(collection), err)
	}
	if results == nil {
		results = []types.RetrievalResult{}
	}
	return results, nil
}
