package pdfsource

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzSource renders pages in-process with MuPDF.
type FitzSource struct {
	dpi float64
	doc *fitz.Document
}

func NewFitzSource(dpi int) *FitzSource {
	return &FitzSource{dpi: float64(dpi)}
}

func (s *FitzSource) Open(path string) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	s.doc = doc
	return nil
}

func (s *FitzSource) TotalPages() int {
	if s.doc == nil {
		return 0
	}
	return s.doc.NumPage()
}

func (s *FitzSource) LoadPage(ctx context.Context, n int) (image.Image, error) {
	if s.doc == nil {
		return nil, errors.New("pdf not open")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkPage(n, s.doc.NumPage()); err != nil {
		return nil, err
	}
	img, err := s.doc.ImageDPI(n-1, s.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", n, err)
	}
	return img, nil
}

func (s *FitzSource) Close() error {
	if s.doc == nil {
		return nil
	}
	err := s.doc.Close()
	s.doc = nil
	return err
}

var _ Source = (*FitzSource)(nil)
