package providers

import (
	"context"
	"image"
	"time"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

// LayoutDetector finds typed layout regions on a page image.
type LayoutDetector interface {
	// Name returns the detector identifier (e.g., "surya-http").
	Name() string

	// Detect returns the page's layout boxes in detector order.
	Detect(ctx context.Context, page image.Image) ([]layout.Box, error)
}

// TextRecognizer reads the text of a single cropped region.
type TextRecognizer interface {
	Name() string
	Recognize(ctx context.Context, crop image.Image) (string, error)
}

// ElementReader reads positioned text elements from a whole image.
// Used for table-of-contents pages where line geometry matters.
type ElementReader interface {
	Name() string
	ReadElements(ctx context.Context, img image.Image) ([]Element, error)
}

// OCREngine is a text backend able to serve both block OCR and
// positioned-element OCR. Backends are selected by name from the Registry.
type OCREngine interface {
	TextRecognizer
	ElementReader
}

// MathRecognizer converts an equation crop to LaTeX.
type MathRecognizer interface {
	Name() string
	RecognizeLaTeX(ctx context.Context, crop image.Image) (string, error)
}

// Enhancer upscales or denoises a crop before OCR.
type Enhancer interface {
	Name() string
	Enhance(ctx context.Context, crop image.Image) (image.Image, error)
}

// Element is a positioned run of text.
type Element struct {
	Text       string      `json:"text"`
	BBox       layout.Rect `json:"bbox"`
	Confidence float64     `json:"confidence,omitempty"`
}

// Models bundles the collaborators a pipeline run needs. It is built once
// at startup and passed explicitly.
type Models struct {
	Layout   LayoutDetector
	OCR      OCREngine
	Math     MathRecognizer
	Enhancer Enhancer // optional
}

// CallStats describes one provider call, for telemetry.
type CallStats struct {
	Provider      string
	Operation     string // "detect", "recognize", "read_elements", "latex", "enhance"
	Success       bool
	ExecutionTime time.Duration
	ErrorMessage  string
}

// StatsObserver receives CallStats after every instrumented provider call.
type StatsObserver func(CallStats)
