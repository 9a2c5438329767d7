// Package records converts chunk files into normalized text + metadata
// records ready for a downstream loader.
package records

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Lllllllleong/chunkflow/internal/models"
)

// Load reads the JSON array at path and converts every element to a Record.
func Load(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return recs, nil
}

// Decode parses a JSON array from r. Missing or mistyped "chunk" and
// "metadata" keys fall back to "" and an empty map.
func Decode(r io.Reader) ([]models.Record, error) {
	dec := json.NewDecoder(r)
	var elems []map[string]any
	if err := dec.Decode(&elems); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	// The array must be the whole document.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to parse JSON array: trailing data after array")
	}

	recs := make([]models.Record, 0, len(elems))
	for _, e := range elems {
		recs = append(recs, FromElement(e))
	}
	return recs, nil
}

// FromElement maps one decoded element to a Record.
func FromElement(e map[string]any) models.Record {
	rec := models.Record{Metadata: map[string]any{}}
	if text, ok := e["chunk"].(string); ok {
		rec.Text = text
	}
	if md, ok := e["metadata"].(map[string]any); ok {
		rec.Metadata = md
	}
	return rec
}
