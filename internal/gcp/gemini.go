package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lllllllleong/chunkflow/internal/ocr"
	"github.com/Lllllllleong/chunkflow/internal/render"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is the chunker model reached through the Gemini API with an
// API key rather than a GCP project.
type GeminiClient struct {
	ChunkerModel *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewGeminiClient creates a chunker model authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("NewGeminiClient: apiKey cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultChunkerModel
	}

	baseClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	chunkerModel := baseClient.GenerativeModel(modelName)
	chunkerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ocr.ChunkerSystemPrompt)},
	}
	chunkerModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiChunkListSchema(),
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &GeminiClient{
		ChunkerModel: chunkerModel,
		baseClient:   baseClient,
	}, nil
}

// Generate sends the chunker prompt and the page to the model.
func (c *GeminiClient) Generate(ctx context.Context, page render.Page) (string, error) {
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
	return geminiText(resp)
}

func (c *GeminiClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
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

func geminiChunkListSchema() *genai.Schema {
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
