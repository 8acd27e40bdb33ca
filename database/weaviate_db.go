package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lacuradellauto/support-rag-be/config"
	"github.com/lacuradellauto/support-rag-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

var (
	TICKET_CLASS = "SupportTicket"
	GUIDE_CLASS  = "TechGuide"

	// Vectors are supplied by the embedding service, so both classes
	// run with vectorizer "none" and cosine distance.
	classObjects = []*models.Class{
		{
			Class: TICKET_CLASS,
			Properties: []*models.Property{
				{Name: "docId", DataType: []string{"text"}},
				{Name: "content", DataType: []string{"text"}},
				// Not "meta": that name is reserved by the Aggregate
				// API (meta { count }).
				{Name: "metaJson", DataType: []string{"text"}},
				{Name: "createdAt", DataType: []string{"int"}},
			},
			Vectorizer:      "none",
			VectorIndexType: "hnsw",
			VectorIndexConfig: map[string]interface{}{
				"distance": "cosine",
			},
		},
		{
			Class: GUIDE_CLASS,
			Properties: []*models.Property{
				{Name: "docId", DataType: []string{"text"}},
				{Name: "content", DataType: []string{"text"}},
				{Name: "metaJson", DataType: []string{"text"}},
				{Name: "createdAt", DataType: []string{"int"}},
			},
			Vectorizer:      "none",
			VectorIndexType: "hnsw",
			VectorIndexConfig: map[string]interface{}{
				"distance": "cosine",
			},
		},
	}
)

type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(config config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(config.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(config.Host, scheme+"://")
	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{
			Value: config.APIKey,
		}
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	store := &WeaviateStore{client: client}
	if err := store.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the ticket and guide classes if missing.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}

	existing := make(map[string]bool)
	for _, class := range schema.Classes {
		existing[class.Class] = true
	}

	for _, classObj := range classObjects {
		if existing[classObj.Class] {
			continue
		}
		if err := s.client.Schema().ClassCreator().WithClass(classObj).Do(ctx); err != nil {
			return fmt.Errorf("failed to create class %s: %v", classObj.Class, err)
		}
	}
	return nil
}

// Reset drops and recreates both classes. All data is lost.
func (s *WeaviateStore) Reset(ctx context.Context) error {
	for _, classObj := range classObjects {
		err := s.client.Schema().ClassDeleter().WithClassName(classObj.Class).Do(ctx)
		if err != nil && !strings.Contains(err.Error(), "could not find class") {
			return fmt.Errorf("failed to delete class %s: %v", classObj.Class, err)
		}
	}
	return s.EnsureSchema(ctx)
}

func (s *WeaviateStore) SearchNearVector(ctx context.Context, collection types.Collection, vector []float32, limit int) ([]types.RetrievalResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	className, err := classFor(collection)
	if err != nil {
		return nil, err
	}

	fields := []graphql.Field{
		{Name: "docId"},
		{Name: "content"},
		{Name: "metaJson"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	result, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	data := make(map[string]interface{}, len(result.Data))
	for k, v := range result.Data {
		data[k] = v
	}
	results := parseSearchData(data, className)

	// Weaviate already returns nearest first; a stable sort keeps the
	// returned order for equal distances.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results, nil
}

func (s *WeaviateStore) UpsertDocument(ctx context.Context, doc *types.Document, vector []float32) error {
	className, err := classFor(doc.Collection)
	if err != nil {
		return err
	}
	properties, err := documentProperties(doc)
	if err != nil {
		return err
	}

	creator := s.client.Data().Creator().
		WithClassName(className).
		WithProperties(properties)
	if vector != nil {
		creator = creator.WithVector(vector)
	}

	_, err = creator.Do(ctx)
	return err
}

func (s *WeaviateStore) BatchInsertDocuments(ctx context.Context, docs []types.Document, vectors [][]float32) error {
	total := len(docs)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			className, err := classFor(docs[j].Collection)
			if err != nil {
				return err
			}
			properties, err := documentProperties(&docs[j])
			if err != nil {
				return err
			}

			obj := &models.Object{
				Class:      className,
				Properties: properties,
			}
			if vectors != nil && j < len(vectors) {
				obj.Vector = vectors[j]
			}
			batcher = batcher.WithObjects(obj)
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
	}
	return nil
}

func (s *WeaviateStore) Count(ctx context.Context, collection types.Collection) (int64, error) {
	className, err := classFor(collection)
	if err != nil {
		return 0, err
	}

	result, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("count failed: %v", err)
	}
	if result.Errors != nil {
		return 0, fmt.Errorf("count failed: %v", result.Errors[0].Message)
	}

	aggregate, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	data, ok := aggregate[className].([]interface{})
	if !ok || len(data) == 0 {
		return 0, nil
	}
	entry, ok := data[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := entry["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int64(count), nil
}

// Helper functions

func classFor(collection types.Collection) (string, error) {
	switch collection {
	case types.CollectionTickets:
		return TICKET_CLASS, nil
	case types.CollectionGuides:
		return GUIDE_CLASS, nil
	default:
		return "", fmt.Errorf("unknown collection: %q", collection)
	}
}

func documentProperties(doc *types.Document) (map[string]interface{}, error) {
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata for %s: %v", doc.ID, err)
	}
	return map[string]interface{}{
		"docId":     doc.ID,
		"content":   doc.Content,
		"metaJson":  string(metaJSON),
		"createdAt": doc.CreatedAt,
	}, nil
}

func parseSearchData(data map[string]interface{}, className string) []types.RetrievalResult {
	var results []types.RetrievalResult
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return results
	}
	items, ok := get[className].([]interface{})
	if !ok {
		return results
	}

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		result := types.RetrievalResult{
			Metadata: make(map[string]string),
		}
		if id, ok := obj["docId"].(string); ok {
			result.DocumentID = id
		}
		if content, ok := obj["content"].(string); ok {
			result.Content = content
		}
		if meta, ok := obj["metaJson"].(string); ok && meta != "" {
			// Metadata is stored as a JSON blob; a decode failure only
			// loses metadata, never the document itself.
			json.Unmarshal([]byte(meta), &result.Metadata)
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				result.Distance = float32(distance)
			}
		}
		results = append(results, result)
	}
	return results
}
