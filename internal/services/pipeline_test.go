package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/ocr"
	"github.com/Lllllllleong/chunkflow/internal/render"
)

type fakeRasterizer struct {
	pages int
	err   error
}

func (f fakeRasterizer) Render(context.Context, string) ([]render.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]render.Page, f.pages)
	for i := range pages {
		pages[i] = render.Page{Number: i + 1, Data: []byte{byte(i)}, MIMEType: render.MIMETypePNG}
	}
	return pages, nil
}

// fixtureGenerator answers with one chunk per page named after the page,
// or the configured response for specific pages.
type fixtureGenerator struct {
	mu        sync.Mutex
	calls     []int
	responses map[int]string
	errs      map[int]error
}

func (g *fixtureGenerator) Generate(_ context.Context, page render.Page) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, page.Number)
	g.mu.Unlock()

	if err, ok := g.errs[page.Number]; ok {
		return "", err
	}
	if resp, ok := g.responses[page.Number]; ok {
		return resp, nil
	}
	return fmt.Sprintf(`[{"chunk":"page %d","metadata":{"entities":["e%d"],"topics":["t"]}}]`, page.Number, page.Number), nil
}

func chunkTexts(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Chunk
	}
	return out
}

func TestPipeline_OneCallPerPageInOrder(t *testing.T) {
	for _, concurrency := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			gen := &fixtureGenerator{}
			p := NewPipeline(fakeRasterizer{pages: 5}, gen, concurrency)

			report := p.Process(context.Background(), "doc.pdf")

			if len(gen.calls) != 5 {
				t.Fatalf("generator called %d times, want 5", len(gen.calls))
			}
			want := []string{"page 1", "page 2", "page 3", "page 4", "page 5"}
			if got := chunkTexts(report.Chunks); !reflect.DeepEqual(got, want) {
				t.Errorf("chunks = %v, want %v", got, want)
			}
			if report.PageCount != 5 || report.ProcessedPages != 5 || len(report.Failures) != 0 {
				t.Errorf("unexpected report %+v", report)
			}
		})
	}
}

func TestPipeline_SequentialByDefault(t *testing.T) {
	gen := &fixtureGenerator{}
	NewPipeline(fakeRasterizer{pages: 4}, gen, 1).Process(context.Background(), "doc.pdf")
	if !reflect.DeepEqual(gen.calls, []int{1, 2, 3, 4}) {
		t.Errorf("call order = %v", gen.calls)
	}
}

func TestPipeline_MultipleChunksPerPage(t *testing.T) {
	gen := &fixtureGenerator{responses: map[int]string{
		1: `[{"chunk":"1a","metadata":{"entities":[],"topics":[]}},{"chunk":"1b","metadata":{"entities":[],"topics":[]}}]`,
		2: `[]`,
	}}
	report := NewPipeline(fakeRasterizer{pages: 3}, gen, 1).Process(context.Background(), "doc.pdf")

	want := []string{"1a", "1b", "page 3"}
	if got := chunkTexts(report.Chunks); !reflect.DeepEqual(got, want) {
		t.Errorf("chunks = %v, want %v", got, want)
	}
	if report.ProcessedPages != 3 {
		t.Errorf("empty page should still count as processed, got %d", report.ProcessedPages)
	}
}

func TestPipeline_RenderFailureYieldsZeroPages(t *testing.T) {
	gen := &fixtureGenerator{}
	report := NewPipeline(fakeRasterizer{err: errors.New("poppler missing")}, gen, 1).Process(context.Background(), "doc.pdf")

	if report.PageCount != 0 || report.ProcessedPages != 0 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Chunks == nil || len(report.Chunks) != 0 {
		t.Errorf("expected empty non-nil chunks, got %#v", report.Chunks)
	}
	if len(gen.calls) != 0 {
		t.Errorf("generator should not be called, got %d calls", len(gen.calls))
	}
}

func TestPipeline_FailedPageDoesNotAbort(t *testing.T) {
	gen := &fixtureGenerator{
		responses: map[int]string{3: `not json`},
		errs:      map[int]error{2: errors.New("503 from model")},
	}
	report := NewPipeline(fakeRasterizer{pages: 4}, gen, 1).Process(context.Background(), "doc.pdf")

	if len(gen.calls) != 4 {
		t.Fatalf("generator called %d times, want 4", len(gen.calls))
	}
	want := []string{"page 1", "page 4"}
	if got := chunkTexts(report.Chunks); !reflect.DeepEqual(got, want) {
		t.Errorf("chunks = %v, want %v", got, want)
	}
	if report.ProcessedPages != 2 || len(report.Failures) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Failures[0].Page != 2 || report.Failures[1].Page != 3 {
		t.Errorf("failures = %+v", report.Failures)
	}
}

func TestAssemble_KeepsErrorKinds(t *testing.T) {
	report := Assemble([]models.PageResult{
		{Page: 1, Err: ocr.ErrEmptyResponse},
		{Page: 2, Chunks: []models.Chunk{}},
	})
	if report.ProcessedPages != 1 {
		t.Errorf("processed = %d, want 1", report.ProcessedPages)
	}
	if report.Failures[0].Reason != ocr.ErrEmptyResponse.Error() {
		t.Errorf("reason = %q", report.Failures[0].Reason)
	}
}

func TestWriteChunks_RoundTrip(t *testing.T) {
	chunks := []models.Chunk{
		{Chunk: "alpha", Metadata: models.ChunkMetadata{Entities: []string{"A", "B"}, Topics: []string{"letters"}}},
		{Chunk: "<table><tr><td>1</td></tr></table>", Metadata: models.ChunkMetadata{Entities: []string{}, Topics: []string{}}},
	}
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteChunks(path, chunks); err != nil {
		t.Fatalf("WriteChunks() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []models.Chunk
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(got, chunks) {
		t.Errorf("round trip = %#v, want %#v", got, chunks)
	}
}

func TestWriteChunks_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteChunks(path, nil); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("got %q, want []", data)
	}
}

func TestWriteChunks_BadPath(t *testing.T) {
	if err := WriteChunks(filepath.Join(t.TempDir(), "missing", "out.json"), nil); err == nil {
		t.Fatal("expected error")
	}
}
