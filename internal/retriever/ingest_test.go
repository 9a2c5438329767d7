package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/chunkflow/internal/models"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("quota exceeded")
}

func TestIngest(t *testing.T) {
	store := &memStore{}
	recs := []models.Record{
		{Text: "first", Metadata: map[string]any{"entities": []any{"e"}}},
		{Text: "", Metadata: map[string]any{}},
		{Text: "second", Metadata: map[string]any{}},
	}
	n, err := Ingest(context.Background(), store, fixedEmbedder{1, 0}, recs, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(store.docs) != 2 || len(store.vectors) != 2 {
		t.Fatalf("ingested %d, store has %d docs", n, len(store.docs))
	}
	if store.docs[0].ID != DocumentID("first") || store.docs[1].Content != "second" {
		t.Errorf("unexpected docs %+v", store.docs)
	}
}

func TestIngest_EmbedFailure(t *testing.T) {
	store := &memStore{}
	_, err := Ingest(context.Background(), store, failingEmbedder{}, []models.Record{{Text: "x"}}, 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.docs) != 0 {
		t.Errorf("nothing should be stored on failure")
	}
}

func TestDocumentID_Stable(t *testing.T) {
	if DocumentID("same") != DocumentID("same") {
		t.Error("IDs differ for identical text")
	}
	if DocumentID("a") == DocumentID("b") {
		t.Error("IDs collide for different text")
	}
}
