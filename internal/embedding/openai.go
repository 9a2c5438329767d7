// Package embedding provides text embedders for the retriever.
package embedding

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// DefaultOpenAIModel matches the model the indexed collections were built with.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAI embeds text with the OpenAI embeddings API.
type OpenAI struct {
	fn chromem.EmbeddingFunc
}

// NewOpenAI creates an OpenAI embedder. An empty model uses DefaultOpenAIModel.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{fn: chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model))}, nil
}

// NewFromFunc wraps an existing chromem embedding function.
func NewFromFunc(fn chromem.EmbeddingFunc) *OpenAI {
	return &OpenAI{fn: fn}
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := o.fn(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	return v, nil
}

// Func exposes the embedder as a chromem embedding function.
func (o *OpenAI) Func() chromem.EmbeddingFunc {
	return o.fn
}
