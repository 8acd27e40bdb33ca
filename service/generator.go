package service

import (
	"context"

	"github.com/lacuradellauto/support-rag-be/types"
)

// GenerateOptions are the sampling parameters for one draft.
type GenerateOptions struct {
	Temperature   float32
	TopK          int
	TopP          float32
	NumPredict    int
	RepeatPenalty float32
	NumCtx        int
}

// DefaultGenerateOptions returns the tuned sampling defaults; only the
// temperature varies between drafts.
func DefaultGenerateOptions(temperature float32, numCtx int) GenerateOptions {
	return GenerateOptions{
		Temperature:   temperature,
		TopK:          40,
		TopP:          0.9,
		NumPredict:    250,
		RepeatPenalty: 1.1,
		NumCtx:        numCtx,
	}
}

// Generator produces text from a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, handler types.StreamHandler) error
	ListModels(ctx context.Context) ([]string, error)
	Model() string
}

// Embedder maps free text to a fixed-length vector. Deterministic for
// a given model version and input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
