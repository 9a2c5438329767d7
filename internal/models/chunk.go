package models

// ChunkMetadata holds the entities and topics the model attached to a chunk.
type ChunkMetadata struct {
	Entities []string `json:"entities"`
	Topics   []string `json:"topics"`
}

// Chunk is one semantically coherent span of text extracted from a page.
type Chunk struct {
	Chunk    string        `json:"chunk"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Normalize replaces nil slices with empty ones so serialized output
// always carries arrays.
func (c *Chunk) Normalize() {
	if c.Metadata.Entities == nil {
		c.Metadata.Entities = []string{}
	}
	if c.Metadata.Topics == nil {
		c.Metadata.Topics = []string{}
	}
}

// Record is the normalized form of one element of a chunk file.
type Record struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// PageResult is the outcome of chunking a single page. Err is nil on success.
type PageResult struct {
	Page   int
	Chunks []Chunk
	Err    error
}

// PageFailure describes a page that contributed no chunks because of an error.
type PageFailure struct {
	Page   int    `json:"page"`
	Reason string `json:"reason"`
}

// ChunkReport is the result of running the chunking pipeline over one PDF.
// PageCount is zero when the PDF could not be rendered at all.
type ChunkReport struct {
	PageCount      int           `json:"pageCount"`
	ProcessedPages int           `json:"processedPages"`
	Chunks         []Chunk       `json:"chunks"`
	Failures       []PageFailure `json:"failures,omitempty"`
}
