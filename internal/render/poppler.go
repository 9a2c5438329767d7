package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

const defaultDPI = 150

// Poppler renders pages to PNG with poppler's pdftoppm, one page per call.
type Poppler struct {
	Binary string
	DPI    int

	countPages func(pdfPath string) (int, error)
	run        func(ctx context.Context, name string, args ...string) error
}

// NewPoppler creates a Poppler rasterizer. A non-positive dpi uses 150.
func NewPoppler(dpi int) *Poppler {
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return &Poppler{
		Binary:     "pdftoppm",
		DPI:        dpi,
		countPages: countPages,
		run:        runCommand,
	}
}

// Render converts each page of pdfPath to a PNG image.
func (p *Poppler) Render(ctx context.Context, pdfPath string) ([]Page, error) {
	pageCount, err := p.countPages(pdfPath)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "chunkflow-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pages := make([]Page, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		prefix := filepath.Join(tempDir, fmt.Sprintf("page-%05d", i))
		num := strconv.Itoa(i)
		args := []string{
			"-f", num, "-l", num,
			"-r", strconv.Itoa(p.DPI),
			"-png", "-singlefile",
			pdfPath, prefix,
		}
		if err := p.run(ctx, p.Binary, args...); err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i, err)
		}
		data, err := os.ReadFile(prefix + ".png")
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Data: data, MIMEType: MIMETypePNG})
	}
	slog.Debug("Rendered PDF pages.", "pdfPath", pdfPath, "pageCount", pageCount, "dpi", p.DPI)
	return pages, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
