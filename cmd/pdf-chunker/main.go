package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	chunkerInstance *services.ChunkerFunction
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework will handle routing the event here.
	functions.CloudEvent("ChunkUploadedPDF", chunkUploadedPDF)
}

// main is required by the Go Functions Framework.
func main() {}

// chunkUploadedPDF is the Cloud Function entry point for storage object events.
func chunkUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		chunkerInstance, initErr = services.NewChunkerFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// The error is already logged with context within the Process method.
	return chunkerInstance.Process(ctx, gcsEvent)
}
