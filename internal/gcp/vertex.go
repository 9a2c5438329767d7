package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/chunkflow/internal/ocr"
	"github.com/Lllllllleong/chunkflow/internal/render"
)

// DefaultChunkerModel is used when CHUNKER_MODEL is not set.
const DefaultChunkerModel = "gemini-2.0-flash"

// VertexClient holds the pre-configured chunker model on Vertex AI.
type VertexClient struct {
	ChunkerModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewVertexClient creates a new client holding the chunker model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultChunkerModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	chunkerModel := baseClient.GenerativeModel(modelName)
	chunkerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ocr.ChunkerSystemPrompt)},
	}
	chunkerModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output constrained to a list of chunks.
		ResponseMIMEType: "application/json",
		ResponseSchema:   vertexChunkListSchema(),
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		ChunkerModel: chunkerModel,
		baseClient:   baseClient,
	}, nil
}

// Generate sends the chunker prompt and the page to the model.
func (c *VertexClient) Generate(ctx context.Context, page render.Page) (string, error) {
	resp, err := c.ChunkerModel.GenerateContent(ctx,
		genai.Text(ocr.ChunkerUserPrompt),
		genai.Blob{MIMEType: page.MIMEType, Data: page.Data},
	)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("%w: %v", ocr.ErrBlocked, err)
		}
		return "", fmt.Errorf("failed to generate chunks from gemini: %w", err)
	}
	return vertexText(resp)
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// vertexText concatenates the text parts of the first candidate.
func vertexText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ocr.ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", ocr.ErrBlocked
	}
	if cand.Content == nil {
		return "", ocr.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func vertexChunkListSchema() *genai.Schema {
	stringList := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"chunk": {Type: genai.TypeString},
				"metadata": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"entities": stringList,
						"topics":   stringList,
					},
					Required: []string{"entities", "topics"},
				},
			},
			Required: []string{"chunk", "metadata"},
		},
	}
}
