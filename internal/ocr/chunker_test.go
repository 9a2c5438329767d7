package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/chunkflow/internal/render"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, render.Page) (string, error) {
	return s.text, s.err
}

func TestChunker_ChunkPage(t *testing.T) {
	tests := []struct {
		name       string
		gen        stubGenerator
		wantChunks int
		wantErr    error
	}{
		{
			name:       "success",
			gen:        stubGenerator{text: `[{"chunk":"a","metadata":{"entities":["e"],"topics":["t"]}}]`},
			wantChunks: 1,
		},
		{
			name: "empty array is not an error",
			gen:  stubGenerator{text: `[]`},
		},
		{
			name:    "transport failure",
			gen:     stubGenerator{err: errors.New("deadline exceeded")},
			wantErr: ErrModelCall,
		},
		{
			name:    "classified generator error is kept",
			gen:     stubGenerator{err: ErrBlocked},
			wantErr: ErrBlocked,
		},
		{
			name:    "nothing returned",
			gen:     stubGenerator{text: "  "},
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "garbage",
			gen:     stubGenerator{text: `[{"chunk":`},
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewChunker(tt.gen).ChunkPage(context.Background(), render.Page{Number: 4})
			if res.Page != 4 {
				t.Errorf("page = %d, want 4", res.Page)
			}
			if tt.wantErr != nil {
				if !errors.Is(res.Err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", res.Err, tt.wantErr)
				}
				if len(res.Chunks) != 0 {
					t.Errorf("failed page returned %d chunks", len(res.Chunks))
				}
				return
			}
			if res.Err != nil {
				t.Fatalf("unexpected err %v", res.Err)
			}
			if len(res.Chunks) != tt.wantChunks {
				t.Errorf("chunks = %d, want %d", len(res.Chunks), tt.wantChunks)
			}
		})
	}
}
