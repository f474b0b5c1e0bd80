package providers

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><meta http-equiv="Content-Type" content="text/html;charset=utf-8"/></head>
<body>
 <div class='ocr_page' id='page_1' title='bbox 0 0 800 1000'>
  <div class='ocr_carea' title="bbox 40 50 700 140">
   <p class='ocr_par'>
    <span class='ocr_line' title="bbox 40 50 700 80; baseline 0 -5">
     <span class='ocrx_word' title='bbox 40 50 60 80; x_wconf 96'>1.</span>
     <span class='ocrx_word' title='bbox 70 50 200 80; x_wconf 90'>Matter</span>
     <span class='ocrx_word' title='bbox 650 50 700 80; x_wconf 92'>1</span>
    </span>
    <span class='ocr_line' title="bbox 40 110 700 140">
     <span class='ocrx_word' title='bbox 40 110 60 140; x_wconf 80'>2.</span>
     <span class='ocrx_word' title='bbox 70 110 200 140; x_wconf 80'>Motion</span>
    </span>
    <span class='ocr_line' title="bbox 40 150 700 160"></span>
   </p>
  </div>
 </div>
</body>
</html>`

func TestParseHOCRLines(t *testing.T) {
	els, err := ParseHOCRLines([]byte(sampleHOCR))
	if err != nil {
		t.Fatalf("ParseHOCRLines() error = %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("expected 2 lines (empty line skipped), got %d", len(els))
	}
	if els[0].Text != "1. Matter 1" {
		t.Errorf("line 0 = %q", els[0].Text)
	}
	if els[0].BBox != layout.R(40, 50, 700, 80) {
		t.Errorf("line 0 bbox = %v", els[0].BBox)
	}
	if els[0].Confidence < 0.92 || els[0].Confidence > 0.93 {
		t.Errorf("line 0 confidence = %v, want ~0.927", els[0].Confidence)
	}
	if els[1].Text != "2. Motion" {
		t.Errorf("line 1 = %q", els[1].Text)
	}
}

func TestParseHOCRLines_Latin1(t *testing.T) {
	doc := "<html><head><meta charset=iso-8859-1></head><body>" +
		"<span class='ocr_line' title='bbox 0 0 10 10'><span class='ocrx_word' title='bbox 0 0 10 10'>caf\xe9</span></span>" +
		"</body></html>"
	els, err := ParseHOCRLines([]byte(doc))
	if err != nil {
		t.Fatalf("ParseHOCRLines() error = %v", err)
	}
	if len(els) != 1 || els[0].Text != "café" {
		t.Errorf("expected decoded café, got %+v", els)
	}
}

func TestTesseractClient(t *testing.T) {
	t.Run("recognize passes block psm and flattens whitespace", func(t *testing.T) {
		c := NewTesseractClient(TesseractConfig{})
		var gotArgs []string
		c.runner = func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
			if name != "tesseract" {
				t.Errorf("binary = %q", name)
			}
			if len(stdin) == 0 {
				t.Error("expected PNG on stdin")
			}
			gotArgs = args
			return []byte("  Chapter 1\n\nMatter  \n"), nil
		}

		text, err := c.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)))
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if text != "Chapter 1 Matter" {
			t.Errorf("text = %q", text)
		}
		if joined := strings.Join(gotArgs, " "); joined != "stdin stdout -l eng --psm 6" {
			t.Errorf("args = %q", joined)
		}
	})

	t.Run("read elements offsets by image origin", func(t *testing.T) {
		c := NewTesseractClient(TesseractConfig{Language: "eng+hin"})
		c.runner = func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
			if args[len(args)-1] != "hocr" {
				t.Errorf("expected hocr output, args = %v", args)
			}
			if args[3] != "eng+hin" {
				t.Errorf("language = %q", args[3])
			}
			return []byte(sampleHOCR), nil
		}

		img := image.NewGray(image.Rect(0, 0, 800, 1000)).SubImage(image.Rect(10, 20, 800, 1000))
		els, err := c.ReadElements(context.Background(), img)
		if err != nil {
			t.Fatalf("ReadElements() error = %v", err)
		}
		if len(els) != 2 {
			t.Fatalf("expected 2 elements, got %d", len(els))
		}
		if els[0].BBox != layout.R(50, 70, 710, 100) {
			t.Errorf("bbox = %v", els[0].BBox)
		}
	})

	t.Run("runner error", func(t *testing.T) {
		c := NewTesseractClient(TesseractConfig{})
		c.runner = func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		}
		if _, err := c.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8))); err == nil {
			t.Error("expected error")
		}
	})
}
