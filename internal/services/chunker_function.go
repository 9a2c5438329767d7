package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/chunkflow/internal/gcp"
	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/render"
)

type ChunkerFunctionConfig struct {
	ProjectID        string
	ChunksBucket     string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
	PageFormat       string
	RenderDPI        int
	Concurrency      int
}

// ChunkerFunction chunks PDFs uploaded to a bucket and stores the result
// next to a Firestore job record.
type ChunkerFunction struct {
	storageClient   *storage.Client
	jobs            *gcp.JobStore
	model           gcp.ChunkerClient
	workflow        *gcp.WorkflowTrigger
	pipeline        *Pipeline
	config          ChunkerFunctionConfig
}

func loadChunkerFunctionConfig() (*ChunkerFunctionConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	config := &ChunkerFunctionConfig{
		ProjectID:        projectID,
		ChunksBucket:     gcp.GetEnv("CHUNKS_BUCKET", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "chunk_jobs"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		PageFormat:       gcp.GetEnv("PAGE_FORMAT", "png"),
		RenderDPI:        gcp.GetEnvInt("RENDER_DPI", 150),
		Concurrency:      gcp.GetEnvInt("OCR_CONCURRENCY", 1),
	}
	if config.ChunksBucket == "" {
		return nil, fmt.Errorf("CHUNKS_BUCKET environment variable must be set")
	}
	return config, nil
}

func NewChunkerFunction(ctx context.Context) (*ChunkerFunction, error) {
	config, err := loadChunkerFunctionConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rasterizer, err := render.New(config.PageFormat, config.RenderDPI)
	if err != nil {
		return nil, err
	}
	jobs, err := gcp.NewJobStore(ctx, config.ProjectID, config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to create job store: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	model, err := gcp.NewChunkerClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker model client: %w", err)
	}

	f := &ChunkerFunction{
		storageClient:   storageClient,
		jobs:            jobs,
		model:           model,
		pipeline:        NewPipeline(rasterizer, model, config.Concurrency),
		config:          *config,
	}
	if config.WorkflowID != "" {
		f.workflow, err = gcp.NewWorkflowTrigger(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
	}
	slog.Info("PDF chunker initialized.", "chunksBucket", config.ChunksBucket, "workflowId", config.WorkflowID)
	return f, nil
}

func (f *ChunkerFunction) Process(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !strings.EqualFold(filepath.Ext(e.Name), ".pdf") {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	tempDir, err := os.MkdirTemp("", "pdf-chunker-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePdfPath := filepath.Join(tempDir, "source.pdf")
	if err := gcp.DownloadObject(ctx, f.storageClient, e.Bucket, e.Name, sourcePdfPath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash, err := calculateFileHash(sourcePdfPath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	docID, isDuplicate, err := f.jobs.FindByHash(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", docID)
		return nil
	}

	docRef, err := f.jobs.Create(ctx, fileHash, e.Name)
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", docRef.ID)
	logCtx.Info("Created job document in Firestore.")

	report := f.pipeline.Process(ctx, sourcePdfPath)
	if err := chunkingError(report); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to chunk PDF", err)
	}

	data, err := MarshalChunks(report.Chunks)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to encode chunks", err)
	}
	objectName := fmt.Sprintf("%s/chunks.json", docRef.ID)
	if err := gcp.SaveToGCSAtomically(ctx, f.storageClient.Bucket(f.config.ChunksBucket), objectName, data, "application/json"); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to save chunks to GCS", err)
	}
	chunksURI := fmt.Sprintf("gs://%s/%s", f.config.ChunksBucket, objectName)

	updates := []firestore.Update{
		{Path: "status", Value: jobStatus(report)},
		{Path: "pageCount", Value: report.PageCount},
		{Path: "chunkCount", Value: len(report.Chunks)},
		{Path: "failedPages", Value: failedPages(report)},
		{Path: "chunksGcsUri", Value: chunksURI},
	}
	if len(report.Failures) > 0 {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: failureDetails(report)})
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to update job status", err)
	}
	logCtx.Info("Chunks saved.", "chunksGcsUri", chunksURI, "chunkCount", len(report.Chunks))

	if f.workflow != nil {
		if err := f.triggerWorkflow(ctx, logCtx, docRef, chunksURI, len(report.Chunks)); err != nil {
			return err
		}
	}
	return nil
}

func (f *ChunkerFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, chunksURI string, chunkCount int) error {
	logCtx.Info("Triggering indexing workflow.")
	execName, err := f.workflow.Trigger(ctx, models.IndexingWorkflowArgs{
		DocumentID:   docRef.ID,
		ChunksGCSUri: chunksURI,
		ChunkCount:   chunkCount,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to trigger workflow execution", err)
	}
	if _, err := docRef.Update(ctx, []firestore.Update{{Path: "workflowExecutionId", Value: execName}}); err != nil {
		logCtx.Warn("Failed to record workflow execution ID", "error", err, "execution", execName)
	}
	return nil
}

func (f *ChunkerFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := f.jobs.MarkFailed(ctx, docRef, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func (f *ChunkerFunction) Close() error {
	if f.workflow != nil {
		_ = f.workflow.Close()
	}
	_ = f.jobs.Close()
	_ = f.storageClient.Close()
	return f.model.Close()
}

// chunkingError reports why a pipeline run produced nothing worth saving.
// Such runs fail the job instead of handing an empty chunk file downstream.
func chunkingError(report *models.ChunkReport) error {
	switch {
	case report.PageCount == 0:
		return fmt.Errorf("no pages could be rendered")
	case report.ProcessedPages == 0:
		return fmt.Errorf("every page failed: %s", failureDetails(report))
	default:
		return nil
	}
}

// jobStatus maps a pipeline report to the Firestore job status.
func jobStatus(report *models.ChunkReport) string {
	switch {
	case report.PageCount == 0 || report.ProcessedPages == 0:
		return models.StatusFailed
	case len(report.Failures) > 0:
		return models.StatusCompletedWithErrors
	default:
		return models.StatusCompleted
	}
}

func failedPages(report *models.ChunkReport) []int {
	pages := make([]int, 0, len(report.Failures))
	for _, f := range report.Failures {
		pages = append(pages, f.Page)
	}
	return pages
}

func failureDetails(report *models.ChunkReport) string {
	parts := make([]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		parts = append(parts, fmt.Sprintf("page %d: %s", f.Page, f.Reason))
	}
	return strings.Join(parts, "; ")
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
