// Command chunk-pdf OCRs a PDF page by page with Gemini and writes the
// resulting chunks to out.json.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Lllllllleong/chunkflow/internal/gcp"
	"github.com/Lllllllleong/chunkflow/internal/render"
	"github.com/Lllllllleong/chunkflow/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if len(args) < 1 {
		fmt.Println("Usage: chunk-pdf <pdf_file_path>")
		return 1
	}
	pdfPath := args[0]
	if _, err := os.Stat(pdfPath); err != nil {
		fmt.Printf("File '%s' does not exist. Please provide a valid PDF file.\n", pdfPath)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	model, err := gcp.NewChunkerClient(ctx)
	if err != nil {
		slog.Error("Failed to create chunker model client", "error", err)
		return 1
	}
	defer model.Close()

	rasterizer, err := render.New(gcp.GetEnv("PAGE_FORMAT", "png"), gcp.GetEnvInt("RENDER_DPI", 150))
	if err != nil {
		slog.Error("Invalid PAGE_FORMAT", "error", err)
		return 1
	}

	pipeline := services.NewPipeline(rasterizer, model, gcp.GetEnvInt("OCR_CONCURRENCY", 1))
	report := pipeline.Process(ctx, pdfPath)
	if report.PageCount == 0 {
		slog.Warn("Could not process PDF.", "pdfPath", pdfPath)
	}
	for _, f := range report.Failures {
		slog.Warn("Page produced no chunks.", "page", f.Page, "reason", f.Reason)
	}

	outPath := gcp.GetEnv("OUTPUT_PATH", "out.json")
	if err := services.WriteChunks(outPath, report.Chunks); err != nil {
		slog.Error("Error writing to file", "error", err, "path", outPath)
		return 0
	}
	fmt.Printf("Data written to %s\n", outPath)
	return 0
}
