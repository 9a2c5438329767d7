package gcp

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/chunkflow/internal/models"
)

// JobStore tracks chunk jobs as documents in a single Firestore collection.
type JobStore struct {
	client     *firestore.Client
	collection string
}

// NewJobStore opens the Firestore client for projectID. collection
// defaults to "chunk_jobs".
func NewJobStore(ctx context.Context, projectID, collection string) (*JobStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if collection == "" {
		collection = "chunk_jobs"
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &JobStore{client: client, collection: collection}, nil
}

// FindByHash returns the ID of a job already recorded for fileHash.
func (s *JobStore) FindByHash(ctx context.Context, fileHash string) (string, bool, error) {
	docs, err := s.client.Collection(s.collection).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	return docs[0].Ref.ID, true, nil
}

// Create records a new job in the PROCESSING state.
func (s *JobStore) Create(ctx context.Context, fileHash, filename string) (*firestore.DocumentRef, error) {
	newDoc := models.Document{
		FileHash:         fileHash,
		OriginalFilename: filename,
		Status:           models.StatusProcessing,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := s.client.Collection(s.collection).Add(ctx, newDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to create job document: %w", err)
	}
	return docRef, nil
}

// MarkFailed sets the job to FAILED with details.
func (s *JobStore) MarkFailed(ctx context.Context, docRef *firestore.DocumentRef, details string) error {
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "status", Value: models.StatusFailed},
		{Path: "errorDetails", Value: details},
	})
	return err
}

func (s *JobStore) Close() error {
	return s.client.Close()
}
