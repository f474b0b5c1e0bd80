package pdfsource

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/Malay-RB/Document-parsing/internal/imgproc"
)

// writeTestPDF writes a blank PDF with the given number of pages.
func writeTestPDF(t *testing.T, pages int) string {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	for i := 0; i < pages; i++ {
		pdf.AddPage()
	}
	path := filepath.Join(t.TempDir(), "book.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{"", "*pdfsource.FitzSource", false},
		{"FITZ", "*pdfsource.FitzSource", false},
		{"poppler", "*pdfsource.PopplerSource", false},
		{"pdfium", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			src, err := New(tt.kind, 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v", tt.kind, err)
			}
			if tt.wantErr {
				return
			}
			if got := typeName(src); got != tt.want {
				t.Errorf("New(%q) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func typeName(s Source) string {
	switch s.(type) {
	case *FitzSource:
		return "*pdfsource.FitzSource"
	case *PopplerSource:
		return "*pdfsource.PopplerSource"
	}
	return "?"
}

func TestPopplerSource(t *testing.T) {
	path := writeTestPDF(t, 3)

	src := NewPopplerSource(72)
	var gotArgs []string
	src.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "pdftoppm" {
			t.Errorf("unexpected binary %q", name)
		}
		gotArgs = args
		data, err := imgproc.EncodePNG(image.NewGray(image.Rect(0, 0, 30, 40)))
		if err != nil {
			return nil, err
		}
		prefix := args[len(args)-1]
		return nil, os.WriteFile(prefix+".png", data, 0o644)
	}

	if err := src.Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if src.TotalPages() != 3 {
		t.Fatalf("TotalPages() = %d, want 3", src.TotalPages())
	}

	img, err := src.LoadPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 40 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
	if joined := strings.Join(gotArgs[:7], " "); joined != "-png -f 2 -l 2 -r 72" {
		t.Errorf("args = %q", joined)
	}

	if _, err := src.LoadPage(context.Background(), 4); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestPopplerSource_NotOpen(t *testing.T) {
	src := NewPopplerSource(72)
	if _, err := src.LoadPage(context.Background(), 1); err == nil {
		t.Error("expected error before Open")
	}
	if err := src.Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFitzSource(t *testing.T) {
	path := writeTestPDF(t, 2)

	src := NewFitzSource(36)
	if err := src.Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if src.TotalPages() != 2 {
		t.Fatalf("TotalPages() = %d, want 2", src.TotalPages())
	}
	img, err := src.LoadPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() <= img.Bounds().Dx() {
		t.Errorf("expected a portrait page, got %v", img.Bounds())
	}
	if _, err := src.LoadPage(context.Background(), 0); err == nil {
		t.Error("expected error for page 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.LoadPage(ctx, 1); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(writeTestPDF(t, 2)); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bogus := filepath.Join(t.TempDir(), "bogus.pdf")
	if err := os.WriteFile(bogus, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Validate(bogus); err == nil {
		t.Error("expected error for a non-PDF file")
	}
}
