package ocr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Lllllllleong/chunkflow/internal/models"
)

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse decodes the model's text into chunks. An empty array is valid and
// yields zero chunks with a nil error.
func Parse(text string) ([]models.Chunk, error) {
	body := StripFences(text)
	if body == "" {
		return nil, ErrEmptyResponse
	}

	var chunks []models.Chunk
	if err := json.Unmarshal([]byte(body), &chunks); err != nil {
		if isRefusal(body) {
			return nil, ErrRefusal
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i := range chunks {
		chunks[i].Normalize()
	}
	return chunks, nil
}

func isRefusal(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
