package models

import "time"

// Job statuses stored on the Document record.
const (
	StatusProcessing          = "PROCESSING"
	StatusCompleted           = "COMPLETED"
	StatusCompletedWithErrors = "COMPLETED_WITH_ERRORS"
	StatusFailed              = "FAILED"
)

// Document represents the main record for a PDF chunking job in Firestore.
// It tracks the overall status and metadata of the file.
type Document struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	ChunkCount          int       `firestore:"chunkCount,omitempty"`
	FailedPages         []int     `firestore:"failedPages,omitempty"`
	ChunksGCSUri        string    `firestore:"chunksGcsUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}
