package providers

import (
	"context"
	"fmt"
	"image"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
	"github.com/Malay-RB/Document-parsing/internal/layout"
)

// Padding is the margin added around a region before it is cropped.
type Padding struct {
	X, Y int
}

// BoxReader reads the content of one region of a page image.
type BoxReader interface {
	ReadText(ctx context.Context, page image.Image, r layout.Rect, pad Padding) (string, error)
	ReadLaTeX(ctx context.Context, page image.Image, r layout.Rect) (string, error)
}

// CropReader is the BoxReader used in production: it crops the region,
// stretches its contrast, optionally enhances it, and hands it to the OCR or
// LaTeX engine.
type CropReader struct {
	OCR      TextRecognizer
	Math     MathRecognizer
	Enhancer Enhancer // optional
}

// NewCropReader builds a CropReader from a Models bundle.
func NewCropReader(m Models) *CropReader {
	return &CropReader{OCR: m.OCR, Math: m.Math, Enhancer: m.Enhancer}
}

// ReadText OCRs the padded region.
func (c *CropReader) ReadText(ctx context.Context, page image.Image, r layout.Rect, pad Padding) (string, error) {
	crop, err := c.prepare(ctx, page, r, pad)
	if err != nil {
		return "", err
	}
	if crop == nil {
		return "", nil
	}
	return c.OCR.Recognize(ctx, crop)
}

// ReadLaTeX converts the region to LaTeX.
func (c *CropReader) ReadLaTeX(ctx context.Context, page image.Image, r layout.Rect) (string, error) {
	if c.Math == nil {
		return "", fmt.Errorf("no math recognizer configured")
	}
	crop := imgproc.Crop(page, r, 0, 0)
	if crop.Bounds().Empty() {
		return "", nil
	}
	return c.Math.RecognizeLaTeX(ctx, imgproc.AutoContrast(crop))
}

func (c *CropReader) prepare(ctx context.Context, page image.Image, r layout.Rect, pad Padding) (image.Image, error) {
	crop := imgproc.Crop(page, r, pad.X, pad.Y)
	if crop.Bounds().Empty() {
		return nil, nil
	}
	var out image.Image = imgproc.AutoContrast(crop)
	if c.Enhancer != nil {
		enhanced, err := c.Enhancer.Enhance(ctx, out)
		if err != nil {
			return nil, err
		}
		out = enhanced
	}
	return out, nil
}

var _ BoxReader = (*CropReader)(nil)
