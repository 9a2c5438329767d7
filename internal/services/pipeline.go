package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/ocr"
	"github.com/Lllllllleong/chunkflow/internal/render"
	"golang.org/x/sync/errgroup"
)

// Pipeline renders a PDF and chunks every page through the model.
type Pipeline struct {
	rasterizer  render.Rasterizer
	chunker     *ocr.Chunker
	concurrency int
}

// NewPipeline creates a Pipeline. A concurrency below 1 processes pages
// strictly one at a time.
func NewPipeline(rasterizer render.Rasterizer, gen ocr.Generator, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		rasterizer:  rasterizer,
		chunker:     ocr.NewChunker(gen),
		concurrency: concurrency,
	}
}

// Process runs the whole PDF. It does not fail: a PDF that cannot be
// rendered yields a report with PageCount 0, and a page that fails is
// listed in Failures and contributes no chunks.
func (p *Pipeline) Process(ctx context.Context, pdfPath string) *models.ChunkReport {
	logCtx := slog.With("pdfPath", pdfPath)

	pages, err := p.rasterizer.Render(ctx, pdfPath)
	if err != nil {
		logCtx.Error("Error converting PDF to images", "error", err)
		return &models.ChunkReport{Chunks: []models.Chunk{}}
	}
	logCtx.Info("Rendered PDF.", "pageCount", len(pages), "concurrency", p.concurrency)

	results := make([]models.PageResult, len(pages))
	var eg errgroup.Group
	eg.SetLimit(p.concurrency)
	for i, page := range pages {
		eg.Go(func() error {
			results[i] = p.chunker.ChunkPage(ctx, page)
			return nil
		})
	}
	_ = eg.Wait()

	report := Assemble(results)
	logCtx.Info("Chunking complete.",
		"pageCount", report.PageCount,
		"processedPages", report.ProcessedPages,
		"failedPages", len(report.Failures),
		"chunkCount", len(report.Chunks),
	)
	return report
}

// Assemble concatenates page results in the order given.
func Assemble(results []models.PageResult) *models.ChunkReport {
	report := &models.ChunkReport{
		PageCount: len(results),
		Chunks:    []models.Chunk{},
	}
	for _, res := range results {
		if res.Err != nil {
			report.Failures = append(report.Failures, models.PageFailure{Page: res.Page, Reason: res.Err.Error()})
			continue
		}
		report.ProcessedPages++
		report.Chunks = append(report.Chunks, res.Chunks...)
	}
	return report
}

// MarshalChunks renders chunks as an indented JSON array.
func MarshalChunks(chunks []models.Chunk) ([]byte, error) {
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chunks: %w", err)
	}
	return data, nil
}

// WriteChunks writes chunks to path as an indented JSON array.
func WriteChunks(path string, chunks []models.Chunk) error {
	data, err := MarshalChunks(chunks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
