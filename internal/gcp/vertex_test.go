package gcp

import (
	"errors"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/chunkflow/internal/ocr"
)

func TestVertexText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr error
	}{
		{"nil response", nil, "", ocr.ErrEmptyResponse},
		{"no candidates", &genai.GenerateContentResponse{}, "", ocr.ErrEmptyResponse},
		{"safety stop", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonSafety,
			Content:      &genai.Content{Parts: []genai.Part{genai.Text("partial")}},
		}}}, "", ocr.ErrBlocked},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
		}}}, "", ocr.ErrEmptyResponse},
		{"text parts joined", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`[{"chunk": `),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text(`"a"}]`),
			}},
		}}}, `[{"chunk": "a"}]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vertexText(tt.resp)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("vertexText() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("vertexText() = %q, want %q", got, tt.want)
			}
		})
	}
}
