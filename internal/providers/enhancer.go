package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
)

const (
	EnhancerHTTPName = "enhancer-http"

	// DefaultEnhanceMaxSide is the crop size above which enhancement is
	// skipped; large crops already carry enough resolution for OCR.
	DefaultEnhanceMaxSide = 1200
)

// EnhancerClient calls a super-resolution service.
//
//	POST {base}/enhance  {"image": "<base64 png>"}
//	200  {"image": "<base64 png>"}
type EnhancerClient struct {
	svc     *jsonService
	maxSide int
}

// NewEnhancerClient creates an enhancer. maxSide <= 0 uses DefaultEnhanceMaxSide.
func NewEnhancerClient(cfg ServiceConfig, maxSide int) *EnhancerClient {
	if maxSide <= 0 {
		maxSide = DefaultEnhanceMaxSide
	}
	return &EnhancerClient{svc: newJSONService(EnhancerHTTPName, cfg), maxSide: maxSide}
}

func (c *EnhancerClient) Name() string {
	return EnhancerHTTPName
}

// Enhance returns an upscaled crop. Crops wider or taller than the
// configured maximum are returned unchanged.
func (c *EnhancerClient) Enhance(ctx context.Context, crop image.Image) (image.Image, error) {
	b := crop.Bounds()
	if b.Dx() > c.maxSide || b.Dy() > c.maxSide {
		return crop, nil
	}
	b64, err := pngBase64(crop)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Image string `json:"image"`
	}
	if err := c.svc.post(ctx, "/enhance", imageRequest{Image: b64}, &resp); err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("enhance: invalid image payload: %w", err)
	}
	return imgproc.Decode(data)
}

var _ Enhancer = (*EnhancerClient)(nil)
