// Package retriever expands a similarity search by following metadata
// edges between stored documents.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
)

// Document is a stored chunk as returned by a Store.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
	Depth    int            `json:"depth"`
}

// Store is a vector store that can also look documents up by metadata.
type Store interface {
	// Search returns the k documents most similar to vector.
	Search(ctx context.Context, vector []float32, k int) ([]Document, error)
	// SearchAdjacent returns up to k documents whose field holds any of
	// values, ranked by similarity to vector.
	SearchAdjacent(ctx context.Context, vector []float32, field string, values []any, k int) ([]Document, error)
	// Add stores docs with their embeddings.
	Add(ctx context.Context, docs []Document, vectors [][]float32) error
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Edge links documents whose Source field shares a value with another
// document's Target field. Fields are dotted paths such as
// "metadata.entities".
type Edge struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// Eager selects every discovered document immediately, breadth first,
// until K documents are selected. Zero fields take their defaults; a
// negative MaxDepth disables traversal.
type Eager struct {
	K         int `yaml:"k" json:"k"`
	StartK    int `yaml:"start_k" json:"start_k"`
	AdjacentK int `yaml:"adjacent_k" json:"adjacent_k"`
	MaxDepth  int `yaml:"max_depth" json:"max_depth"`
}

// DefaultEdges links documents that mention a common entity.
func DefaultEdges() []Edge {
	return []Edge{{Source: "metadata.entities", Target: "metadata.entities"}}
}

// DefaultStrategy returns k=10, start_k=3, adjacent_k=10, max_depth=2.
func DefaultStrategy() Eager {
	return Eager{K: 10, StartK: 3, AdjacentK: 10, MaxDepth: 2}
}

func (s Eager) withDefaults() Eager {
	d := DefaultStrategy()
	if s.K <= 0 {
		s.K = d.K
	}
	if s.StartK <= 0 {
		s.StartK = d.StartK
	}
	if s.AdjacentK <= 0 {
		s.AdjacentK = d.AdjacentK
	}
	if s.MaxDepth == 0 {
		s.MaxDepth = d.MaxDepth
	} else if s.MaxDepth < 0 {
		s.MaxDepth = 0
	}
	return s
}

// GraphRetriever runs an Eager traversal over a Store.
type GraphRetriever struct {
	store    Store
	embedder Embedder
	edges    []Edge
	strategy Eager
}

// New creates a GraphRetriever. Zero strategy fields take their defaults.
func New(store Store, embedder Embedder, edges []Edge, strategy Eager) *GraphRetriever {
	if len(edges) == 0 {
		edges = DefaultEdges()
	}
	return &GraphRetriever{
		store:    store,
		embedder: embedder,
		edges:    edges,
		strategy: strategy.withDefaults(),
	}
}

// Invoke returns up to K documents for query ordered by discovery: the
// start set first, then each traversal depth in turn.
func (r *GraphRetriever) Invoke(ctx context.Context, query string) ([]Document, error) {
	logCtx := slog.With("query", query)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	start, err := r.store.Search(ctx, vector, r.strategy.StartK)
	if err != nil {
		return nil, fmt.Errorf("failed to run initial similarity search: %w", err)
	}

	t := newTraversal(r.strategy.K)
	frontier := t.visit(start, 0)

	for depth := 0; depth < r.strategy.MaxDepth && len(frontier) > 0 && !t.full(); depth++ {
		var next []Document
		for _, edge := range r.edges {
			values := t.unvisitedValues(edge, frontier)
			if len(values) == 0 {
				continue
			}
			adjacent, err := r.store.SearchAdjacent(ctx, vector, edge.Target, values, r.strategy.AdjacentK)
			if err != nil {
				return nil, fmt.Errorf("failed to traverse edge %s -> %s: %w", edge.Source, edge.Target, err)
			}
			next = append(next, t.visit(adjacent, depth+1)...)
			if t.full() {
				break
			}
		}
		logCtx.Debug("Traversed depth.", "depth", depth+1, "discovered", len(next))
		frontier = next
	}

	logCtx.Info("Graph retrieval complete.", "selected", len(t.selected))
	return t.selected, nil
}

// traversal tracks selected documents and the edge values already followed.
type traversal struct {
	limit    int
	selected []Document
	seenDocs map[string]bool
	seenVals map[Edge]map[string]bool
}

func newTraversal(limit int) *traversal {
	return &traversal{
		limit:    limit,
		seenDocs: make(map[string]bool),
		seenVals: make(map[Edge]map[string]bool),
	}
}

func (t *traversal) full() bool {
	return len(t.selected) >= t.limit
}

// visit selects unseen docs at depth and returns the newly selected ones.
func (t *traversal) visit(docs []Document, depth int) []Document {
	var added []Document
	for _, d := range docs {
		if t.full() {
			break
		}
		if t.seenDocs[d.ID] {
			continue
		}
		t.seenDocs[d.ID] = true
		d.Depth = depth
		t.selected = append(t.selected, d)
		added = append(added, d)
	}
	return added
}

// unvisitedValues collects the edge's source values across docs that have
// not been followed yet, preserving first-seen order.
func (t *traversal) unvisitedValues(edge Edge, docs []Document) []any {
	seen := t.seenVals[edge]
	if seen == nil {
		seen = make(map[string]bool)
		t.seenVals[edge] = seen
	}
	var values []any
	for _, d := range docs {
		for _, v := range FieldValues(d, edge.Source) {
			key := fmt.Sprint(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			values = append(values, v)
		}
	}
	return values
}
