package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/chunkflow/internal/ocr"
)

// ChunkerClient is a chunker model backend that must be closed after use.
type ChunkerClient interface {
	ocr.Generator
	Close() error
}

// NewChunkerClient picks the model backend from the environment:
// GOOGLE_API_KEY selects the Gemini API, otherwise PROJECT_ID and
// VERTEX_AI_REGION select Vertex AI.
func NewChunkerClient(ctx context.Context) (ChunkerClient, error) {
	modelName := GetEnv("CHUNKER_MODEL", DefaultChunkerModel)

	if apiKey := GetEnv("GOOGLE_API_KEY", ""); apiKey != "" {
		slog.Info("Using Gemini API backend.", "model", modelName)
		return NewGeminiClient(ctx, apiKey, modelName)
	}

	projectID := GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("either GOOGLE_API_KEY or PROJECT_ID environment variable must be set")
	}
	region := GetEnv("VERTEX_AI_REGION", "us-central1")
	slog.Info("Using Vertex AI backend.", "model", modelName, "projectId", projectID, "region", region)
	return NewVertexClient(ctx, projectID, region, modelName)
}
