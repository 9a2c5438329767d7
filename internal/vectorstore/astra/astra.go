// Package astra is a minimal client for the Astra DB Data API, enough to
// back the graph retriever.
package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Lllllllleong/chunkflow/internal/retriever"
)

const (
	defaultNamespace = "default_keyspace"
	insertBatchSize  = 20
)

// Config contains connection details for an Astra DB collection.
type Config struct {
	Endpoint   string
	Token      string
	Namespace  string
	Collection string
	Timeout    time.Duration
}

// Store talks to one collection. Documents are stored as
// {"_id", "content", "metadata", "$vector"}.
type Store struct {
	url    string
	token  string
	client *http.Client
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Token == "" {
		return nil, errors.New("astra endpoint and token must be set")
	}
	if cfg.Collection == "" {
		return nil, errors.New("astra collection must be set")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		url:    fmt.Sprintf("%s/api/json/v1/%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Namespace, cfg.Collection),
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]retriever.Document, error) {
	return s.find(ctx, map[string]any{}, vector, k)
}

func (s *Store) SearchAdjacent(ctx context.Context, vector []float32, field string, values []any, k int) ([]retriever.Document, error) {
	if len(values) == 0 {
		return nil, nil
	}
	if field == "id" {
		field = "_id"
	}
	return s.find(ctx, map[string]any{field: map[string]any{"$in": values}}, vector, k)
}

func (s *Store) Add(ctx context.Context, docs []retriever.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return errors.New("docs and vectors length mismatch")
	}
	for start := 0; start < len(docs); start += insertBatchSize {
		end := min(start+insertBatchSize, len(docs))
		batch := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, map[string]any{
				"_id":      docs[i].ID,
				"content":  docs[i].Content,
				"metadata": docs[i].Metadata,
				"$vector":  vectors[i],
			})
		}
		body := map[string]any{
			"insertMany": map[string]any{
				"documents": batch,
				"options":   map[string]any{"ordered": false},
			},
		}
		if err := s.post(ctx, body, nil); err != nil {
			return fmt.Errorf("insertMany batch at %d: %w", start, err)
		}
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter map[string]any, vector []float32, k int) ([]retriever.Document, error) {
	if k <= 0 {
		k = 5
	}
	body := map[string]any{
		"find": map[string]any{
			"filter":     filter,
			"sort":       map[string]any{"$vector": vector},
			"projection": map[string]any{"$vector": 0},
			"options": map[string]any{
				"limit":             k,
				"includeSimilarity": true,
			},
		},
	}
	var resp struct {
		Data struct {
			Documents []map[string]any `json:"documents"`
		} `json:"data"`
	}
	if err := s.post(ctx, body, &resp); err != nil {
		return nil, err
	}

	docs := make([]retriever.Document, 0, len(resp.Data.Documents))
	for _, raw := range resp.Data.Documents {
		d := retriever.Document{Metadata: map[string]any{}}
		if v, ok := raw["_id"]; ok {
			d.ID = fmt.Sprint(v)
		}
		if v, ok := raw["content"].(string); ok {
			d.Content = v
		}
		if v, ok := raw["metadata"].(map[string]any); ok {
			d.Metadata = v
		}
		if v, ok := raw["$similarity"].(float64); ok {
			d.Score = v
		}
		docs = append(docs, d)
	}
	return docs, nil
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

func (s *Store) post(ctx context.Context, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal astra request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Token", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("astra POST %s failed: %s", s.url, resp.Status)
	}

	var envelope struct {
		Errors []apiError `json:"errors"`
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode astra response: %w", err)
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode astra response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		e := envelope.Errors[0]
		return fmt.Errorf("astra error %s: %s", e.ErrorCode, e.Message)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}
