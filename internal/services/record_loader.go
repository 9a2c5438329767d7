package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/chunkflow/internal/gcp"
	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/records"
)

// RecordLoaderFunction converts a chunk file stored in GCS into records.
type RecordLoaderFunction struct {
	storageClient *storage.Client
}

// NewRecordLoader creates a new RecordLoaderFunction instance.
func NewRecordLoader(ctx context.Context) (*RecordLoaderFunction, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &RecordLoaderFunction{storageClient: storageClient}, nil
}

// Process reads the object named in req and returns its records.
func (f *RecordLoaderFunction) Process(ctx context.Context, req *models.RecordLoaderRequest) (*models.RecordLoaderResponse, error) {
	logCtx := slog.With("gcsUri", req.GCSUri)

	r, err := gcp.OpenObject(ctx, f.storageClient, req.GCSUri)
	if err != nil {
		logCtx.Error("Failed to open chunk file", "error", err)
		return nil, err
	}
	defer r.Close()

	recs, err := records.Decode(r)
	if err != nil {
		logCtx.Error("Failed to decode chunk file", "error", err)
		return nil, fmt.Errorf("failed to decode %s: %w", req.GCSUri, err)
	}
	logCtx.Info("Loaded records.", "count", len(recs))
	return &models.RecordLoaderResponse{
		Status:  "success",
		Count:   len(recs),
		Records: recs,
	}, nil
}
