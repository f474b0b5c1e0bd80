package pdfsource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
)

// PopplerSource counts pages with pdfcpu and renders each page on demand
// with pdftoppm (poppler-utils).
type PopplerSource struct {
	dpi   int
	path  string
	pages int
	run   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewPopplerSource(dpi int) *PopplerSource {
	return &PopplerSource{dpi: dpi, run: runCombined}
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (s *PopplerSource) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return fmt.Errorf("failed to get page count: %w", err)
	}
	s.path = path
	s.pages = n
	return nil
}

func (s *PopplerSource) TotalPages() int {
	return s.pages
}

// LoadPage renders page n into a temp dir and decodes it.
func (s *PopplerSource) LoadPage(ctx context.Context, n int) (image.Image, error) {
	if s.path == "" {
		return nil, errors.New("pdf not open")
	}
	if err := checkPage(n, s.pages); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "scholar-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	page := strconv.Itoa(n)
	output, err := s.run(ctx, "pdftoppm",
		"-png",
		"-f", page,
		"-l", page,
		"-r", strconv.Itoa(s.dpi),
		"-singlefile",
		s.path,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	// -singlefile writes <prefix>.png
	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return imgproc.Decode(data)
}

func (s *PopplerSource) Close() error {
	s.path = ""
	s.pages = 0
	return nil
}

var _ Source = (*PopplerSource)(nil)
