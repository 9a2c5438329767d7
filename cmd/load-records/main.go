// Command load-records converts a chunk file into text + metadata records
// and prints them as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/chunkflow/internal/records"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if len(os.Args) < 2 {
		fmt.Println("Usage: load-records <json_file_path>")
		os.Exit(1)
	}

	recs, err := records.Load(os.Args[1])
	if err != nil {
		slog.Error("Failed to load records", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		slog.Error("Failed to write records", "error", err)
		os.Exit(1)
	}
}
