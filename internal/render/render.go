// Package render turns a PDF into per-page payloads for the chunker model.
package render

import (
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	MIMETypePNG = "image/png"
	MIMETypePDF = "application/pdf"
)

// Page is a single rendered page. Number is 1-based.
type Page struct {
	Number   int
	Data     []byte
	MIMEType string
}

// Rasterizer renders every page of a PDF, in page order.
type Rasterizer interface {
	Render(ctx context.Context, pdfPath string) ([]Page, error)
}

// New returns the Rasterizer for the given page format ("png" or "pdf").
func New(format string, dpi int) (Rasterizer, error) {
	switch format {
	case "", "png":
		return NewPoppler(dpi), nil
	case "pdf":
		return NewPDFPages(), nil
	default:
		return nil, fmt.Errorf("unknown page format %q", format)
	}
}

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// countPages validates the file in relaxed mode and returns its page count.
func countPages(pdfPath string) (int, error) {
	if err := api.ValidateFile(pdfPath, relaxedConfig()); err != nil {
		return 0, fmt.Errorf("failed to validate PDF: %w", err)
	}
	n, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}
