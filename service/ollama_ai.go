package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lacuradellauto/support-rag-be/types"
)

// OllamaService talks to a local Ollama server over its native HTTP
// API. The native API is used instead of the OpenAI-compatible one
// because generation needs num_ctx and num_predict control.
type OllamaService struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaService(baseURL, model string) *OllamaService {
	return &OllamaService{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{},
	}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature   float32 `json:"temperature"`
	TopP          float32 `json:"top_p"`
	TopK          int     `json:"top_k"`
	NumPredict    int     `json:"num_predict"`
	RepeatPenalty float32 `json:"repeat_penalty"`
	NumCtx        int     `json:"num_ctx"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

func (s *OllamaService) Model() string {
	return s.model
}

func (s *OllamaService) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	body, err := s.doGenerate(ctx, prompt, opts, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp ollamaGenerateResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", NewGenerationError("malformed response from model server", err)
	}
	if resp.Error != "" {
		return "", NewGenerationError("model server returned an error", fmt.Errorf("%s", resp.Error))
	}
	return resp.Response, nil
}

// GenerateStream reads the JSON-lines streaming body and forwards each
// chunk of generated text to the handler as it arrives.
func (s *OllamaService) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, handler types.StreamHandler) error {
	body, err := s.doGenerate(ctx, prompt, opts, true)
	if err != nil {
		return err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk ollamaGenerateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return NewGenerationError("malformed stream chunk from model server", err)
		}
		if chunk.Error != "" {
			return NewGenerationError("model server returned an error", fmt.Errorf("%s", chunk.Error))
		}
		if chunk.Response != "" {
			handler(chunk.Response)
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return NewGenerationError("stream from model server interrupted", err)
	}
	return nil
}

func (s *OllamaService) doGenerate(ctx context.Context, prompt string, opts GenerateOptions, stream bool) (io.ReadCloser, error) {
	reqBody := ollamaGenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: stream,
		Options: ollamaOptions{
			Temperature:   opts.Temperature,
			TopP:          opts.TopP,
			TopK:          opts.TopK,
			NumPredict:    opts.NumPredict,
			RepeatPenalty: opts.RepeatPenalty,
			NumCtx:        opts.NumCtx,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, NewGenerationError("failed to encode generate request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, NewGenerationError("failed to build generate request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewGenerationError("model server unreachable", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, NewGenerationError(
			fmt.Sprintf("model server returned status %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(data)))
	}
	return resp.Body, nil
}

// ListModels reports the models the Ollama server has pulled.
func (s *OllamaService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, NewGenerationError("failed to build tags request", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewGenerationError("model server unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, NewGenerationError(fmt.Sprintf("model server returned status %d", resp.StatusCode), nil)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, NewGenerationError("malformed tags response from model server", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		} else if m.Model != "" {
			names = append(names, m.Model)
		}
	}
	return names, nil
}
