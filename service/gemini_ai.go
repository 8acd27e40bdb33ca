package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/lacuradellauto/support-rag-be/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiService is an alternate Generator backend for setups without a
// local GPU. Several API keys can be supplied; the service rotates to
// the next key when a request fails (typically quota exhaustion).
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:   apiKeys,
		modelName: modelName,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

func (s *GeminiService) Model() string {
	return s.modelName
}

// generativeModel builds a fresh model handle so per-draft sampling
// parameters never leak between concurrent calls.
func (s *GeminiService) generativeModel(opts GenerateOptions) *genai.GenerativeModel {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(opts.Temperature)
	model.SetTopP(opts.TopP)
	model.SetTopK(int32(opts.TopK))
	if opts.NumPredict > 0 {
		model.SetMaxOutputTokens(int32(opts.NumPredict))
	}
	return model
}

func (s *GeminiService) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := s.generativeModel(opts)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if rotateErr := s.rotateAPIKey(); rotateErr != nil {
			return "", NewGenerationError("gemini request failed", err)
		}
		model = s.generativeModel(opts)
		resp, err = model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", NewGenerationError("gemini request failed after key rotation", err)
		}
	}

	content := collectText(resp)
	if content == "" {
		return "", NewGenerationError("no response generated", nil)
	}
	return content, nil
}

func (s *GeminiService) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, handler types.StreamHandler) error {
	model := s.generativeModel(opts)
	iter := model.GenerateContentStream(ctx, genai.Text(prompt))

	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return NewGenerationError("gemini stream failed", err)
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok && text != "" {
					handler(string(text))
				}
			}
		}
	}
}

func (s *GeminiService) ListModels(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	var names []string
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, NewGenerationError("failed to list gemini models", err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	content := ""
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	return content
}
