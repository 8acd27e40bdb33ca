package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lacuradellauto/support-rag-be/types"
	"go.uber.org/zap"
)

// Draft temperatures by request index: conservative, balanced,
// creative. DraftCount is clamped to this range.
var draftTemperatures = []float32{0.3, 0.5, 0.7}

const MaxDraftCount = 3

// AnswerOptions is the full set of generation-affecting inputs for one
// answer request. Zero NTickets/NGuides skip that collection.
type AnswerOptions struct {
	Query      string
	NTickets   int
	NGuides    int
	Language   string
	DraftCount int
}

type AnswerResult struct {
	Query    string
	Drafts   []types.Draft
	Model    string
	CacheHit bool
}

// RAGConfig carries the orchestrator's tunables.
type RAGConfig struct {
	NumCtx          int
	GenerateTimeout time.Duration
}

// RAGService composes retrieval, prompt assembly, generation and the
// response cache into the answer operation.
type RAGService struct {
	retrieval *RetrievalService
	generator Generator
	cache     ResponseCache
	prompts   *PromptBuilder
	cfg       RAGConfig
	logger    *zap.Logger
}

func NewRAGService(retrieval *RetrievalService, generator Generator, cache ResponseCache, prompts *PromptBuilder, cfg RAGConfig, logger *zap.Logger) *RAGService {
	return &RAGService{
		retrieval: retrieval,
		generator: generator,
		cache:     cache,
		prompts:   prompts,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer runs the full pipeline: cache lookup, retrieval, context
// formatting, prompt assembly, one generation per draft, cache store.
// Drafts share the retrieved context and prompt; only the temperature
// varies, and the returned order always matches the temperature order.
// If any draft fails the whole call fails.
func (s *RAGService) Answer(ctx context.Context, opts AnswerOptions) (*AnswerResult, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	temperatures := draftTemperatures[:opts.DraftCount]
	key := CacheKey(opts.Query, opts.NTickets, opts.NGuides, opts.Language, s.generator.Model(), opts.DraftCount, temperatures)

	if entry, ok := s.cache.Get(key); ok {
		s.logger.Info("cache hit", zap.String("key", key))
		return &AnswerResult{
			Query:    opts.Query,
			Drafts:   entry.Drafts,
			Model:    entry.Model,
			CacheHit: true,
		}, nil
	}

	prompt, err := s.buildPrompt(ctx, opts)
	if err != nil {
		return nil, err
	}

	drafts := make([]types.Draft, opts.DraftCount)
	errs := make([]error, opts.DraftCount)

	var wg sync.WaitGroup
	for i := 0; i < opts.DraftCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			drafts[i], errs[i] = s.generateDraft(ctx, prompt, temperatures[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	entry := &CacheEntry{
		Drafts: drafts,
		Model:  s.generator.Model(),
	}
	s.cache.Put(key, entry)

	s.logger.Info("answer generated",
		zap.String("key", key),
		zap.Int("drafts", opts.DraftCount))
	return &AnswerResult{
		Query:  opts.Query,
		Drafts: drafts,
		Model:  s.generator.Model(),
	}, nil
}

// AnswerStream generates a single balanced-temperature draft and
// forwards text chunks as they arrive. Streamed answers bypass the
// cache.
func (s *RAGService) AnswerStream(ctx context.Context, opts AnswerOptions, handler types.StreamHandler) error {
	opts.DraftCount = 1
	opts, err := normalizeOptions(opts)
	if err != nil {
		return err
	}

	prompt, err := s.buildPrompt(ctx, opts)
	if err != nil {
		return err
	}

	genCtx, cancel := s.generateContext(ctx)
	defer cancel()
	return s.generator.GenerateStream(genCtx, prompt, DefaultGenerateOptions(0.7, s.cfg.NumCtx), handler)
}

// Status reports model-server health and corpus counts for the UI.
func (s *RAGService) Status(ctx context.Context) types.StatusResponse {
	status := types.StatusResponse{RequestedModel: s.generator.Model()}

	models, err := s.generator.ListModels(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.OllamaRunning = true
	status.AvailableModels = models
	for _, m := range models {
		if strings.Contains(m, s.generator.Model()) {
			status.ModelAvailable = true
			break
		}
	}

	if tickets, err := s.retrieval.vectorDB.Count(ctx, types.CollectionTickets); err == nil {
		status.TicketCount = tickets
	}
	if guides, err := s.retrieval.vectorDB.Count(ctx, types.CollectionGuides); err == nil {
		status.GuideCount = guides
	}
	return status
}

func (s *RAGService) buildPrompt(ctx context.Context, opts AnswerOptions) (string, error) {
	tickets, guides, err := s.retrieval.Retrieve(ctx, opts.Query, opts.NTickets, opts.NGuides)
	if err != nil {
		return "", err
	}
	return s.prompts.Build(tickets, guides, opts.Query, opts.Language), nil
}

func (s *RAGService) generateDraft(ctx context.Context, prompt string, temperature float32) (types.Draft, error) {
	genCtx, cancel := s.generateContext(ctx)
	defer cancel()

	start := time.Now()
	text, err := s.generator.Generate(genCtx, prompt, DefaultGenerateOptions(temperature, s.cfg.NumCtx))
	if err != nil {
		return types.Draft{}, err
	}
	return types.Draft{
		Text:        text,
		Temperature: temperature,
		ElapsedMs:   time.Since(start).Milliseconds(),
	}, nil
}

func (s *RAGService) generateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.GenerateTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	}
	return context.WithCancel(ctx)
}

func normalizeOptions(opts AnswerOptions) (AnswerOptions, error) {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query == "" {
		return opts, NewValidationError("query must not be empty")
	}
	if opts.NTickets < 0 || opts.NGuides < 0 {
		return opts, NewValidationError("n_tickets and n_guides must not be negative")
	}
	if opts.DraftCount < 1 {
		opts.DraftCount = 1
	}
	if opts.DraftCount > MaxDraftCount {
		opts.DraftCount = MaxDraftCount
	}
	if opts.Language == "" {
		opts.Language = LanguageItalian
	}
	return opts, nil
}
