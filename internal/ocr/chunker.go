// Package ocr asks a multimodal model to transcribe a page and split it
// into chunks with entity/topic metadata.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/render"
)

// Generator sends one page plus the chunker prompt to a model and returns
// the raw response text.
type Generator interface {
	Generate(ctx context.Context, page render.Page) (string, error)
}

// Chunker turns pages into chunks through a Generator.
type Chunker struct {
	gen Generator
}

// NewChunker creates a Chunker backed by gen.
func NewChunker(gen Generator) *Chunker {
	return &Chunker{gen: gen}
}

// ChunkPage processes a single page. It never panics on bad model output;
// failures are reported through PageResult.Err.
func (c *Chunker) ChunkPage(ctx context.Context, page render.Page) models.PageResult {
	logCtx := slog.With("page", page.Number)

	text, err := c.gen.Generate(ctx, page)
	if err != nil {
		logCtx.Error("Call to model failed", "error", err)
		return models.PageResult{Page: page.Number, Err: wrapModelErr(err)}
	}

	chunks, err := Parse(text)
	if err != nil {
		logCtx.Error("Failed to parse model response", "error", err, "responseBody", text)
		return models.PageResult{Page: page.Number, Err: err}
	}
	if len(chunks) == 0 {
		logCtx.Warn("Model returned a valid but empty JSON array. Treating as empty page.")
	}
	logCtx.Info("Page chunked.", "chunkCount", len(chunks))
	return models.PageResult{Page: page.Number, Chunks: chunks}
}

// wrapModelErr tags err as ErrModelCall unless the generator already
// classified it.
func wrapModelErr(err error) error {
	for _, kind := range []error{ErrBlocked, ErrEmptyResponse, ErrRefusal, ErrModelCall} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrModelCall, err)
}
