package providers

import (
	"context"
	"fmt"
	"image"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

const LayoutHTTPName = "layout-http"

// LayoutClient talks to a layout-detection service (e.g. a Surya or
// DocLayout-YOLO server) over HTTP.
//
//	POST {base}/layout  {"image": "<base64 png>"}
//	200  {"boxes": [{"bbox": [x1,y1,x2,y2], "label": "Text", "score": 0.97}]}
type LayoutClient struct {
	svc *jsonService
}

// NewLayoutClient creates a layout detector client.
func NewLayoutClient(cfg ServiceConfig) *LayoutClient {
	return &LayoutClient{svc: newJSONService(LayoutHTTPName, cfg)}
}

func (c *LayoutClient) Name() string {
	return LayoutHTTPName
}

// Detect returns the boxes the service found on page.
func (c *LayoutClient) Detect(ctx context.Context, page image.Image) ([]layout.Box, error) {
	b64, err := pngBase64(page)
	if err != nil {
		return nil, err
	}
	var resp layoutResponse
	if err := c.svc.post(ctx, "/layout", imageRequest{Image: b64}, &resp); err != nil {
		return nil, fmt.Errorf("layout detection: %w", err)
	}

	// Boxes are reported relative to the submitted image.
	offset := page.Bounds().Min
	boxes := make([]layout.Box, 0, len(resp.Boxes))
	for _, b := range resp.Boxes {
		r := b.BBox
		boxes = append(boxes, layout.Box{
			BBox:  layout.R(r.X1+offset.X, r.Y1+offset.Y, r.X2+offset.X, r.Y2+offset.Y),
			Label: b.Label,
			Score: b.Score,
		})
	}
	return boxes, nil
}

// imageRequest is the request body shared by the image services.
type imageRequest struct {
	Image string `json:"image"`
}

type layoutResponse struct {
	Boxes []layout.Box `json:"boxes"`
}

var _ LayoutDetector = (*LayoutClient)(nil)
