package providers

import (
	"context"
	"fmt"
	"image"
	"strings"
)

const LaTeXHTTPName = "latex-http"

// LaTeXClient calls a LaTeX OCR service (pix2tex/RapidLaTeXOCR style).
//
//	POST {base}/latex  {"image": "<base64 png>"}
//	200  {"latex": "\\frac{1}{2}"}
type LaTeXClient struct {
	svc *jsonService
}

func NewLaTeXClient(cfg ServiceConfig) *LaTeXClient {
	return &LaTeXClient{svc: newJSONService(LaTeXHTTPName, cfg)}
}

func (c *LaTeXClient) Name() string {
	return LaTeXHTTPName
}

// RecognizeLaTeX returns the LaTeX source for an equation crop.
func (c *LaTeXClient) RecognizeLaTeX(ctx context.Context, crop image.Image) (string, error) {
	b64, err := pngBase64(crop)
	if err != nil {
		return "", err
	}
	var resp struct {
		LaTeX string `json:"latex"`
	}
	if err := c.svc.post(ctx, "/latex", imageRequest{Image: b64}, &resp); err != nil {
		return "", fmt.Errorf("latex ocr: %w", err)
	}
	return strings.TrimSpace(resp.LaTeX), nil
}

var _ MathRecognizer = (*LaTeXClient)(nil)
