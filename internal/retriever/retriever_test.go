package retriever

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"testing"
)

// memStore is a brute-force Store used to exercise the traversal.
type memStore struct {
	docs          []Document
	vectors       [][]float32
	adjacentCalls [][]any
}

func (m *memStore) Add(_ context.Context, docs []Document, vectors [][]float32) error {
	m.docs = append(m.docs, docs...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *memStore) rank(vector []float32, keep func(Document) bool, k int) []Document {
	var out []Document
	for i, d := range m.docs {
		if !keep(d) {
			continue
		}
		d.Score = cosine(vector, m.vectors[i])
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (m *memStore) Search(_ context.Context, vector []float32, k int) ([]Document, error) {
	return m.rank(vector, func(Document) bool { return true }, k), nil
}

func (m *memStore) SearchAdjacent(_ context.Context, vector []float32, field string, values []any, k int) ([]Document, error) {
	m.adjacentCalls = append(m.adjacentCalls, values)
	return m.rank(vector, func(d Document) bool {
		for _, have := range FieldValues(d, field) {
			if slices.Contains(values, have) {
				return true
			}
		}
		return false
	}, k), nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type fixedEmbedder []float32

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return f, nil }

func doc(id string, entities ...string) Document {
	ents := make([]any, len(entities))
	for i, e := range entities {
		ents[i] = e
	}
	return Document{ID: id, Content: "text " + id, Metadata: map[string]any{"entities": ents}}
}

// chainStore builds a -> b -> c -> d linked by shared entities where only
// "a" is similar to the query.
func chainStore() *memStore {
	s := &memStore{}
	_ = s.Add(context.Background(),
		[]Document{doc("a", "x"), doc("b", "x", "y"), doc("c", "y", "z"), doc("d", "z"), doc("lonely", "q")},
		[][]float32{{1, 0}, {0, 1}, {0, 1}, {0, 1}, {0.1, 1}},
	)
	return s
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestGraphRetriever_FollowsEntityEdges(t *testing.T) {
	store := chainStore()
	r := New(store, fixedEmbedder{1, 0}, nil, Eager{K: 10, StartK: 1, AdjacentK: 10, MaxDepth: 2})

	got, err := r.Invoke(context.Background(), "question")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("ids = %v, want %v", ids(got), want)
	}
	wantDepth := map[string]int{"a": 0, "b": 1, "c": 2}
	for _, d := range got {
		if d.Depth != wantDepth[d.ID] {
			t.Errorf("%s depth = %d, want %d", d.ID, d.Depth, wantDepth[d.ID])
		}
	}
}

func TestGraphRetriever_MaxDepthBoundsTraversal(t *testing.T) {
	tests := []struct {
		maxDepth int
		want     []string
	}{
		{maxDepth: -1, want: []string{"a"}},
		{maxDepth: 1, want: []string{"a", "b"}},
		{maxDepth: 3, want: []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("max_depth=%d", tt.maxDepth), func(t *testing.T) {
			r := New(chainStore(), fixedEmbedder{1, 0}, DefaultEdges(), Eager{StartK: 1, MaxDepth: tt.maxDepth})
			got, err := r.Invoke(context.Background(), "q")
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("ids = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestGraphRetriever_KCapsSelection(t *testing.T) {
	r := New(chainStore(), fixedEmbedder{1, 0}, nil, Eager{K: 2, StartK: 1, MaxDepth: 5})
	got, err := r.Invoke(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

func TestGraphRetriever_DoesNotRefollowValues(t *testing.T) {
	store := chainStore()
	r := New(store, fixedEmbedder{1, 0}, nil, Eager{StartK: 1, MaxDepth: 3})
	if _, err := r.Invoke(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	want := [][]any{{"x"}, {"y"}, {"z"}}
	if !reflect.DeepEqual(store.adjacentCalls, want) {
		t.Errorf("adjacent calls = %v, want %v", store.adjacentCalls, want)
	}
}

func TestDefaultStrategy(t *testing.T) {
	got := Eager{}.withDefaults()
	if got != (Eager{K: 10, StartK: 3, AdjacentK: 10, MaxDepth: 2}) {
		t.Errorf("defaults = %+v", got)
	}
}

func TestFieldValues(t *testing.T) {
	d := Document{
		ID:      "id1",
		Content: "body",
		Metadata: map[string]any{
			"entities": []any{"a", "b"},
			"tags":     []string{"t"},
			"source":   map[string]any{"page": 3.0},
		},
	}
	tests := []struct {
		path string
		want []any
	}{
		{"id", []any{"id1"}},
		{"content", []any{"body"}},
		{"metadata.entities", []any{"a", "b"}},
		{"metadata.tags", []any{"t"}},
		{"metadata.source.page", []any{3.0}},
		{"metadata.missing", nil},
		{"metadata.entities.deeper", nil},
		{"other", nil},
	}
	for _, tt := range tests {
		if got := FieldValues(d, tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FieldValues(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
