package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lacuradellauto/support-rag-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	mu          sync.Mutex
	model       string
	delays      map[float32]time.Duration
	streamDelay time.Duration
	failTemp    float32
	failErr     error
	calls       int
	lastPrompt  string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastPrompt = prompt
	delay := f.delays[opts.Temperature]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if f.failErr != nil && opts.Temperature == f.failTemp {
		return "", f.failErr
	}
	return fmt.Sprintf("draft@%.1f", opts.Temperature), nil
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, handler types.StreamHandler) error {
	f.mu.Lock()
	f.calls++
	f.lastPrompt = prompt
	delay := f.streamDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	handler("chunk-1 ")
	handler("chunk-2")
	return nil
}

func (f *fakeGenerator) ListModels(ctx context.Context) ([]string, error) {
	return []string{f.model}, nil
}

func (f *fakeGenerator) Model() string {
	if f.model == "" {
		return "test-model"
	}
	return f.model
}

func newTestRAG(db *fakeVectorDB, generator *fakeGenerator) *RAGService {
	retrieval := newTestRetrieval(db, &fakeEmbedder{})
	cache := NewMemoryCache(24 * time.Hour)
	prompts := NewPromptBuilder(8000, 1024)
	return NewRAGService(retrieval, generator, cache, prompts, RAGConfig{NumCtx: 1024}, zap.NewNop())
}

func knowledgeDB() *fakeVectorDB {
	return &fakeVectorDB{
		tickets: []types.RetrievalResult{
			{
				DocumentID: "ticket_101",
				Content:    "Il cliente chiedeva come lavare l'auto. Consigliato Gyeon Q2M Bathe con guanto in microfibra.",
				Metadata:   map[string]string{"subject": "Lavaggio senza graffi", "status": "solved"},
				Distance:   0.21,
			},
		},
		guides: []types.RetrievalResult{
			{
				DocumentID: "guide_3_0",
				Content:    "Prelavaggio con getto d'acqua, poi shampoo specifico e movimenti lineari.",
				Metadata:   map[string]string{"guide_title": "Lavaggio corretto", "section_title": "Tecnica"},
				Distance:   0.18,
			},
		},
	}
}

// Drafts come back in temperature order even when the hottest draft
// finishes first.
func TestAnswerDraftOrdering(t *testing.T) {
	generator := &fakeGenerator{
		delays: map[float32]time.Duration{
			0.3: 60 * time.Millisecond,
			0.5: 30 * time.Millisecond,
			0.7: 0,
		},
	}
	rag := newTestRAG(knowledgeDB(), generator)

	result, err := rag.Answer(context.Background(), AnswerOptions{
		Query:      "come lavare l'auto",
		NTickets:   1,
		NGuides:    1,
		DraftCount: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Drafts, 3)

	wantTemps := []float32{0.3, 0.5, 0.7}
	for i, draft := range result.Drafts {
		assert.Equal(t, wantTemps[i], draft.Temperature)
		assert.Equal(t, fmt.Sprintf("draft@%.1f", wantTemps[i]), draft.Text)
	}
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	generator := &fakeGenerator{}
	db := knowledgeDB()
	rag := newTestRAG(db, generator)

	opts := AnswerOptions{Query: "Come posso lavare la mia auto senza graffiare la vernice?", NTickets: 3, NGuides: 3, DraftCount: 1}

	first, err := rag.Answer(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, generator.calls)

	second, err := rag.Answer(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Drafts, second.Drafts)
	assert.Equal(t, 1, generator.calls, "cache hit must not regenerate")
	assert.Len(t, db.calls, 2, "cache hit must not re-retrieve")
}

func TestAnswerCacheKeyCoversParameters(t *testing.T) {
	generator := &fakeGenerator{}
	rag := newTestRAG(knowledgeDB(), generator)

	_, err := rag.Answer(context.Background(), AnswerOptions{Query: "q", NTickets: 1, NGuides: 1, DraftCount: 1})
	require.NoError(t, err)
	// Changing only n_guides is an independent cache entry.
	result, err := rag.Answer(context.Background(), AnswerOptions{Query: "q", NTickets: 1, NGuides: 2, DraftCount: 1})
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 2, generator.calls)
}

func TestAnswerPromptGroundedInContext(t *testing.T) {
	generator := &fakeGenerator{}
	rag := newTestRAG(knowledgeDB(), generator)

	_, err := rag.Answer(context.Background(), AnswerOptions{
		Query:    "Come posso lavare la mia auto senza graffiare la vernice?",
		NTickets: 1,
		NGuides:  1,
	})
	require.NoError(t, err)

	assert.Contains(t, generator.lastPrompt, "Gyeon Q2M Bathe")
	assert.Contains(t, generator.lastPrompt, "Prelavaggio con getto d'acqua")
	assert.Contains(t, generator.lastPrompt, "Come posso lavare la mia auto senza graffiare la vernice?")
	assert.Contains(t, generator.lastPrompt, "DOMANDA DEL CLIENTE")
}

func TestAnswerAllOrNothingOnDraftFailure(t *testing.T) {
	generator := &fakeGenerator{
		failTemp: 0.5,
		failErr:  NewGenerationError("model server unreachable", nil),
	}
	rag := newTestRAG(knowledgeDB(), generator)

	_, err := rag.Answer(context.Background(), AnswerOptions{Query: "q", NTickets: 1, NGuides: 1, DraftCount: 3})
	require.Error(t, err)
	assert.Equal(t, ErrorKindGeneration, KindOf(err))
}

func TestAnswerValidation(t *testing.T) {
	rag := newTestRAG(knowledgeDB(), &fakeGenerator{})

	_, err := rag.Answer(context.Background(), AnswerOptions{Query: "  "})
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))

	_, err = rag.Answer(context.Background(), AnswerOptions{Query: "q", NTickets: -1})
	require.Error(t, err)
	assert.Equal(t, ErrorKindValidation, KindOf(err))
}

func TestAnswerClampsDraftCount(t *testing.T) {
	generator := &fakeGenerator{}
	rag := newTestRAG(knowledgeDB(), generator)

	result, err := rag.Answer(context.Background(), AnswerOptions{Query: "q", NTickets: 1, NGuides: 1, DraftCount: 7})
	require.NoError(t, err)
	assert.Len(t, result.Drafts, MaxDraftCount)

	result, err = rag.Answer(context.Background(), AnswerOptions{Query: "q2", NTickets: 1, NGuides: 1, DraftCount: 0})
	require.NoError(t, err)
	assert.Len(t, result.Drafts, 1)
}

func TestAnswerStreamBypassesCache(t *testing.T) {
	generator := &fakeGenerator{}
	rag := newTestRAG(knowledgeDB(), generator)

	var got strings.Builder
	err := rag.AnswerStream(context.Background(), AnswerOptions{Query: "q", NTickets: 1, NGuides: 1}, func(chunk string) {
		got.WriteString(chunk)
	})
	require.NoError(t, err)
	assert.Equal(t, "chunk-1 chunk-2", got.String())

	// A subsequent non-streaming call still generates: nothing was
	// cached by the stream.
	result, err := rag.Answer(context.Background(), AnswerOptions{Query: "q", NTickets: 1, NGuides: 1})
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
}

func TestStatusReportsModelAndCounts(t *testing.T) {
	generator := &fakeGenerator{model: "gemma2:2b"}
	rag := newTestRAG(knowledgeDB(), generator)

	status := rag.Status(context.Background())
	assert.True(t, status.OllamaRunning)
	assert.True(t, status.ModelAvailable)
	assert.Equal(t, "gemma2:2b", status.RequestedModel)
	assert.Equal(t, int64(1), status.TicketCount)
	assert.Equal(t, int64(1), status.GuideCount)
}
