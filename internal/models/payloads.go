package models

// These structs define the JSON payloads exchanged with the serverless
// entry points.

// GCSEvent is the data payload of a storage object CloudEvent.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// RecordLoaderRequest is the input for the record-loader function.
type RecordLoaderRequest struct {
	GCSUri string `json:"gcsUri"`
}

// RecordLoaderResponse is the output of the record-loader function.
type RecordLoaderResponse struct {
	Status  string   `json:"status"`
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

// IndexingWorkflowArgs is the argument passed to the downstream indexing
// workflow once a chunk file has been saved.
type IndexingWorkflowArgs struct {
	DocumentID   string `json:"documentId"`
	ChunksGCSUri string `json:"chunksGcsUri"`
	ChunkCount   int    `json:"chunkCount"`
}
