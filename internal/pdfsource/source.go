// Package pdfsource renders PDF pages to images, one page at a time.
package pdfsource

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Source renders the pages of one open PDF. Page numbers are 1-based.
// A Source is not safe for concurrent use.
type Source interface {
	Open(path string) error
	TotalPages() int
	LoadPage(ctx context.Context, n int) (image.Image, error)
	Close() error
}

// Renderer kinds accepted by New.
const (
	KindFitz    = "fitz"
	KindPoppler = "poppler"
)

// DefaultDPI is the rendering resolution used when none is configured.
const DefaultDPI = 200

// New returns an unopened Source of the given kind.
func New(kind string, dpi int) (Source, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	switch strings.ToLower(kind) {
	case "", KindFitz:
		return NewFitzSource(dpi), nil
	case KindPoppler:
		return NewPopplerSource(dpi), nil
	default:
		return nil, fmt.Errorf("unknown pdf renderer %q (want %s or %s)", kind, KindFitz, KindPoppler)
	}
}

func checkPage(n, total int) error {
	if n < 1 || n > total {
		return fmt.Errorf("page %d out of range [1,%d]", n, total)
	}
	return nil
}
