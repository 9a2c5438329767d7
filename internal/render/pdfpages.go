package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFPages splits a PDF into single-page PDFs with pdfcpu. The model reads
// each page natively instead of a rasterized image.
type PDFPages struct{}

// NewPDFPages creates a PDFPages splitter.
func NewPDFPages() *PDFPages {
	return &PDFPages{}
}

// Render optimizes the source, splits it one page per file and returns the
// page files in order.
func (s *PDFPages) Render(ctx context.Context, pdfPath string) ([]Page, error) {
	tempDir, err := os.MkdirTemp("", "chunkflow-split-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	optimized := filepath.Join(tempDir, "optimized.pdf")
	if err := api.OptimizeFile(pdfPath, optimized, relaxedConfig()); err != nil {
		return nil, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}
	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := api.SplitFile(optimized, tempDir, 1, relaxedConfig()); err != nil {
		return nil, fmt.Errorf("failed to split PDF: %w", err)
	}

	pages := make([]Page, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(tempDir, fmt.Sprintf("optimized_%d.pdf", i)))
		if err != nil {
			return nil, fmt.Errorf("failed to read split page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Data: data, MIMEType: MIMETypePDF})
	}
	return pages, nil
}
