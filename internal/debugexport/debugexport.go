// Package debugexport writes page images with their detected regions drawn
// on top into a single PDF for visual inspection.
package debugexport

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/go-pdf/fpdf"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
	"github.com/Malay-RB/Document-parsing/internal/layout"
)

// Overlay is one outlined region on a frame.
type Overlay struct {
	Rect  layout.Rect
	Label string
	Color color.RGBA
}

// Frame is one debug page.
type Frame struct {
	Title    string
	Image    image.Image
	Overlays []Overlay
}

var (
	red    = color.RGBA{R: 220, A: 255}
	blue   = color.RGBA{B: 220, A: 255}
	green  = color.RGBA{G: 160, A: 255}
	orange = color.RGBA{R: 240, G: 140, A: 255}
)

var classColors = map[layout.Class]color.RGBA{
	layout.ClassText:   blue,
	layout.ClassMath:   orange,
	layout.ClassVisual: green,
	layout.ClassTable:  red,
}

// BoxOverlays outlines layout boxes colored by class, labelled with their
// reading-order index and detector label.
func BoxOverlays(boxes []layout.Box) []Overlay {
	out := make([]Overlay, len(boxes))
	for i, b := range boxes {
		out[i] = Overlay{
			Rect:  b.BBox,
			Label: fmt.Sprintf("%d %s", i+1, b.Label),
			Color: classColors[b.Class()],
		}
	}
	return out
}

// RectOverlays outlines plain regions in red.
func RectOverlays(rects []layout.Rect) []Overlay {
	out := make([]Overlay, len(rects))
	for i, r := range rects {
		out[i] = Overlay{Rect: r, Color: red}
	}
	return out
}

// Collector accumulates frames for one debug PDF. A nil or disabled
// Collector ignores frames, so callers never branch on the debug flag.
type Collector struct {
	mu      sync.Mutex
	enabled bool
	quality int
	frames  []Frame
}

// NewCollector creates a collector. JPEG quality defaults to 80.
func NewCollector(enabled bool) *Collector {
	return &Collector{enabled: enabled, quality: 80}
}

// Enabled reports whether frames are being kept.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// Add keeps a frame.
func (c *Collector) Add(f Frame) {
	if !c.Enabled() || f.Image == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
}

// Len returns the number of frames kept.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Save writes all frames to path as a PDF, one page per frame. Nothing is
// written when there are no frames.
func (c *Collector) Save(path string) (bool, error) {
	if c.Len() == 0 {
		return false, nil
	}
	c.mu.Lock()
	frames := append([]Frame(nil), c.frames...)
	c.mu.Unlock()

	data, err := Render(frames, c.quality)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create debug dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write debug PDF: %w", err)
	}
	return true, nil
}

// Render builds the PDF bytes. Page size in points equals the image size in
// pixels, so overlay coordinates need no transform.
func Render(frames []Frame, quality int) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetLineWidth(2)

	for i, f := range frames {
		b := f.Image.Bounds()
		w, h := float64(b.Dx()), float64(b.Dy())
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		data, err := imgproc.EncodeJPEG(f.Image, quality)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		name := fmt.Sprintf("frame%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

		for _, o := range f.Overlays {
			r := o.Rect
			pdf.SetDrawColor(int(o.Color.R), int(o.Color.G), int(o.Color.B))
			pdf.Rect(float64(r.X1), float64(r.Y1), float64(r.Width()), float64(r.Height()), "D")
			if o.Label != "" {
				pdf.SetTextColor(int(o.Color.R), int(o.Color.G), int(o.Color.B))
				pdf.Text(float64(r.X1), float64(max(r.Y1-3, 10)), o.Label)
			}
		}
		if f.Title != "" {
			pdf.SetTextColor(0, 0, 0)
			pdf.Text(8, 16, f.Title)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to build debug PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
