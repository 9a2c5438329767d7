package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// chunkNamespace seeds deterministic document IDs so re-ingesting the same
// chunk text maps to the same ID.
var chunkNamespace = uuid.MustParse("5b0f6a39-8f63-4e0a-9a4f-4c0d6c1a2f17")

// DocumentID returns the stable ID for a chunk's text.
func DocumentID(text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(text)).String()
}

// Ingest embeds recs with at most concurrency requests in flight and adds
// them to store. Records with empty text are skipped.
func Ingest(ctx context.Context, store Store, embedder Embedder, recs []models.Record, concurrency int) (int, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		if rec.Text == "" {
			continue
		}
		docs = append(docs, Document{ID: DocumentID(rec.Text), Content: rec.Text, Metadata: rec.Metadata})
	}
	if len(docs) == 0 {
		return 0, nil
	}

	vectors := make([][]float32, len(docs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, d := range docs {
		eg.Go(func() error {
			v, err := embedder.Embed(gctx, d.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %s: %w", d.ID, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	if err := store.Add(ctx, docs, vectors); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	slog.Info("Ingested documents.", "count", len(docs), "skipped", len(recs)-len(docs))
	return len(docs), nil
}
