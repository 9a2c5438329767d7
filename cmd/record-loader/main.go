package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/chunkflow/internal/models"
	"github.com/Lllllllleong/chunkflow/internal/services"
)

var (
	loaderInstance *services.RecordLoaderFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleLoadRecords", handleLoadRecords)
}

func main() {}

// handleLoadRecords converts a chunk file in GCS into records.
func handleLoadRecords(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		loaderInstance, initErr = services.NewRecordLoader(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: RecordLoader initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.RecordLoaderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GCSUri == "" {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: expected {\"gcsUri\": \"gs://...\"}", http.StatusBadRequest)
		return
	}

	res, err := loaderInstance.Process(r.Context(), &req)
	if err != nil {
		// Error is already logged with context in the Process method.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "gcsUri", req.GCSUri)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
