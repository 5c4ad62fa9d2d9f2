package renderengine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Engine converts a markup document into PDF and PNG bytes.
type Engine interface {
	Render(ctx context.Context, html string) (pdf []byte, png []byte, err error)
}

// ChromiumEngine launches one headless Chromium process per invocation.
// Isolation over throughput: a crashed or wedged render never poisons a
// shared browser, and the worker concurrency cap keeps process count low.
type ChromiumEngine struct {
	Path string // chromium binary, e.g. "chromium" or "google-chrome"
}

func NewChromiumEngine(path string) *ChromiumEngine {
	return &ChromiumEngine{Path: path}
}

// Render writes the markup to a temp file and drives Chromium twice, once
// for the PDF and once for the screenshot. The caller's context deadline is
// enforced on both launches.
func (e *ChromiumEngine) Render(ctx context.Context, html string) ([]byte, []byte, error) {
	dir, err := os.MkdirTemp("", "honors-render-")
	if err != nil {
		return nil, nil, fmt.Errorf("create render workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	htmlPath := filepath.Join(dir, "document.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		return nil, nil, fmt.Errorf("write markup: %w", err)
	}
	fileURL := "file://" + htmlPath

	pdfPath := filepath.Join(dir, "out.pdf")
	if err := e.run(ctx, "--print-to-pdf="+pdfPath, fileURL); err != nil {
		return nil, nil, fmt.Errorf("render pdf: %w", err)
	}

	pngPath := filepath.Join(dir, "out.png")
	if err := e.run(ctx, "--screenshot="+pngPath, "--window-size=900,700", fileURL); err != nil {
		return nil, nil, fmt.Errorf("render png: %w", err)
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read pdf output: %w", err)
	}
	png, err := os.ReadFile(pngPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read png output: %w", err)
	}
	if len(pdf) == 0 || len(png) == 0 {
		return nil, nil, fmt.Errorf("render engine produced empty output (pdf=%d bytes, png=%d bytes)", len(pdf), len(png))
	}
	return pdf, png, nil
}

func (e *ChromiumEngine) run(ctx context.Context, args ...string) error {
	base := []string{"--headless", "--disable-gpu", "--no-sandbox", "--hide-scrollbars"}
	cmd := exec.CommandContext(ctx, e.Path, append(base, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", e.Path, err, string(out))
	}
	return nil
}
