// Package chromemstore backs the graph retriever with a local chromem-go
// collection, in memory or persisted to disk.
package chromemstore

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"

	"github.com/Lllllllleong/chunkflow/internal/retriever"
	"github.com/philippgille/chromem-go"
)

// chromem filters on exact string matches only, so every metadata value
// is also stored under a "<path>=<value>" marker key. The original
// metadata is kept as JSON under metadataKey.
const (
	metadataKey = "_metadata"
	markerValue = "1"
)

// Store wraps a single chromem collection.
type Store struct {
	collection *chromem.Collection
}

// Open opens (or creates) the named collection. An empty path keeps the
// database in memory.
func Open(path, name string, embed chromem.EmbeddingFunc) (*Store, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database at %s: %w", path, err)
		}
	}
	c, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection %s: %w", name, err)
	}
	return &Store{collection: c}, nil
}

func (s *Store) Add(ctx context.Context, docs []retriever.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch")
	}
	cdocs := make([]chromem.Document, 0, len(docs))
	for i, d := range docs {
		md, err := encodeMetadata(d)
		if err != nil {
			return err
		}
		cdocs = append(cdocs, chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  md,
			Embedding: vectors[i],
		})
	}
	if err := s.collection.AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]retriever.Document, error) {
	return s.query(ctx, vector, k, nil)
}

// SearchAdjacent runs one filtered query per value and keeps the best k.
func (s *Store) SearchAdjacent(ctx context.Context, vector []float32, field string, values []any, k int) ([]retriever.Document, error) {
	best := make(map[string]retriever.Document)
	for _, v := range values {
		docs, err := s.query(ctx, vector, k, map[string]string{markerKey(field, v): markerValue})
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if prev, ok := best[d.ID]; !ok || d.Score > prev.Score {
				best[d.ID] = d
			}
		}
	}

	out := make([]retriever.Document, 0, len(best))
	for _, d := range best {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s *Store) query(ctx context.Context, vector []float32, k int, where map[string]string) ([]retriever.Document, error) {
	n := min(k, s.collection.Count())
	if n <= 0 {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	docs := make([]retriever.Document, 0, len(results))
	for _, r := range results {
		d := retriever.Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: map[string]any{},
			Score:    float64(r.Similarity),
		}
		if raw, ok := r.Metadata[metadataKey]; ok {
			if err := json.Unmarshal([]byte(raw), &d.Metadata); err != nil {
				return nil, fmt.Errorf("corrupt metadata on %s: %w", r.ID, err)
			}
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func markerKey(field string, value any) string {
	return fmt.Sprintf("%s=%v", field, value)
}

func encodeMetadata(d retriever.Document) (map[string]string, error) {
	raw, err := json.Marshal(d.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata for %s: %w", d.ID, err)
	}
	md := map[string]string{
		metadataKey:           string(raw),
		markerKey("id", d.ID): markerValue,
	}
	addMarkers(md, "metadata", d.Metadata)
	return md, nil
}

func addMarkers(md map[string]string, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			addMarkers(md, prefix+"."+k, child)
		}
	case []any:
		for _, elem := range t {
			addMarkers(md, prefix, elem)
		}
	case []string:
		for _, elem := range t {
			md[markerKey(prefix, elem)] = markerValue
		}
	case nil:
	default:
		md[markerKey(prefix, t)] = markerValue
	}
}
