package debugexport

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

func TestBoxOverlays(t *testing.T) {
	boxes := []layout.Box{
		{BBox: layout.R(0, 0, 10, 10), Label: layout.LabelText},
		{BBox: layout.R(0, 20, 10, 30), Label: layout.LabelPicture},
	}
	got := BoxOverlays(boxes)
	if len(got) != 2 {
		t.Fatalf("expected 2 overlays, got %d", len(got))
	}
	if got[0].Label != "1 Text" || got[1].Label != "2 Picture" {
		t.Errorf("labels = %q, %q", got[0].Label, got[1].Label)
	}
	if got[0].Color == got[1].Color {
		t.Error("text and visual boxes should differ in color")
	}
}

func TestCollector(t *testing.T) {
	t.Run("disabled collector keeps nothing", func(t *testing.T) {
		c := NewCollector(false)
		c.Add(Frame{Image: image.NewGray(image.Rect(0, 0, 10, 10))})
		if c.Len() != 0 {
			t.Errorf("Len() = %d", c.Len())
		}
		wrote, err := c.Save(filepath.Join(t.TempDir(), "x.pdf"))
		if err != nil || wrote {
			t.Errorf("Save() = %v, %v", wrote, err)
		}
	})

	t.Run("nil collector is safe", func(t *testing.T) {
		var c *Collector
		c.Add(Frame{Image: image.NewGray(image.Rect(0, 0, 10, 10))})
		if c.Enabled() || c.Len() != 0 {
			t.Error("nil collector should be disabled")
		}
	})

	t.Run("writes a pdf", func(t *testing.T) {
		c := NewCollector(true)
		img := image.NewRGBA(image.Rect(0, 0, 120, 160))
		c.Add(Frame{
			Title:    "page 1",
			Image:    img,
			Overlays: BoxOverlays([]layout.Box{{BBox: layout.R(10, 10, 100, 40), Label: layout.LabelSectionHeader}}),
		})
		c.Add(Frame{Image: img, Overlays: RectOverlays([]layout.Rect{layout.R(5, 5, 50, 50)})})

		path := filepath.Join(t.TempDir(), "debug", "book_layout_debug.pdf")
		wrote, err := c.Save(path)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if !wrote {
			t.Fatal("expected a file to be written")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("output is not a PDF: %.10q", data)
		}
	})
}
