package scout

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

var testPage = image.NewGray(image.Rect(0, 0, 1000, 1000))

func TestScout(t *testing.T) {
	header := layout.R(100, 40, 900, 100)
	body := layout.R(100, 200, 900, 800)
	boxes := []layout.Box{
		{BBox: header, Label: layout.LabelSectionHeader},
		{BBox: body, Label: layout.LabelText},
	}

	tests := []struct {
		name    string
		text    string
		want    bool
		keyword []string
	}{
		{"contents heading", "  CONTENTS ", true, nil},
		{"index heading", "Index", true, nil},
		{"ordinary heading", "Preface", false, nil},
		{"custom keyword", "Vishay Suchi", true, []string{"vishay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := providers.NewMockBoxReader()
			reader.Text[header] = tt.text
			reader.Text[body] = "contents of the body must not be read"

			s := NewScout(reader, tt.keyword, nil)
			got, text, err := s.Scout(context.Background(), testPage, boxes, 3)
			if err != nil {
				t.Fatalf("Scout() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Scout() = %v (%q), want %v", got, text, tt.want)
			}
			if reader.CallCount(body) != 0 {
				t.Error("only the first box should be read")
			}
		})
	}

	t.Run("no boxes", func(t *testing.T) {
		s := NewScout(providers.NewMockBoxReader(), nil, nil)
		got, _, err := s.Scout(context.Background(), testPage, nil, 1)
		if got || err != nil {
			t.Errorf("Scout() = %v, %v", got, err)
		}
	})

	t.Run("reader error", func(t *testing.T) {
		reader := providers.NewMockBoxReader()
		reader.Errs[header] = errors.New("ocr down")
		if _, _, err := NewScout(reader, nil, nil).Scout(context.Background(), testPage, boxes, 1); err == nil {
			t.Error("expected error")
		}
	})
}

func TestSync(t *testing.T) {
	top := layout.R(100, 50, 900, 120)
	low := layout.R(100, 500, 900, 560)
	picture := layout.R(100, 130, 900, 250)

	t.Run("anchor in top heading", func(t *testing.T) {
		reader := providers.NewMockBoxReader()
		reader.Text[top] = "Chapter 1 Real Numbers"
		s := NewSyncer(reader, nil)
		ok, err := s.Sync(context.Background(), testPage, []layout.Box{{BBox: top, Label: layout.LabelTitle}}, "real numbers")
		if err != nil || !ok {
			t.Errorf("Sync() = %v, %v; want match", ok, err)
		}
	})

	t.Run("heading below the top band is ignored", func(t *testing.T) {
		reader := providers.NewMockBoxReader()
		reader.Text[low] = "real numbers"
		s := NewSyncer(reader, nil)
		ok, _ := s.Sync(context.Background(), testPage, []layout.Box{{BBox: low, Label: layout.LabelSectionHeader}}, "real numbers")
		if ok {
			t.Error("box below 30% should not match")
		}
		if reader.CallCount(low) != 0 {
			t.Error("box below 30% should not be read")
		}
	})

	t.Run("non-heading labels and boxes past the third are ignored", func(t *testing.T) {
		reader := providers.NewMockBoxReader()
		fourth := layout.R(100, 260, 900, 290)
		reader.Text[picture] = "real numbers"
		reader.Text[fourth] = "real numbers"
		boxes := []layout.Box{
			{BBox: picture, Label: layout.LabelPicture},
			{BBox: layout.R(0, 0, 10, 10), Label: layout.LabelPageHeader},
			{BBox: layout.R(0, 12, 10, 20), Label: layout.LabelPageHeader},
			{BBox: fourth, Label: layout.LabelSectionHeader},
		}
		ok, err := NewSyncer(reader, nil).Sync(context.Background(), testPage, boxes, "real numbers")
		if err != nil || ok {
			t.Errorf("Sync() = %v, %v; want no match", ok, err)
		}
		if reader.CallCount(picture) != 0 || reader.CallCount(fourth) != 0 {
			t.Error("picture and fourth box should not be read")
		}
	})

	t.Run("short text is ignored", func(t *testing.T) {
		reader := providers.NewMockBoxReader()
		reader.Text[top] = "set"
		ok, _ := NewSyncer(reader, nil).Sync(context.Background(), testPage, []layout.Box{{BBox: top, Label: layout.LabelText}}, "sets")
		if ok {
			t.Error("three-character text should not match")
		}
	})

	t.Run("empty anchor", func(t *testing.T) {
		_, err := NewSyncer(providers.NewMockBoxReader(), nil).Sync(context.Background(), testPage, nil, "  ")
		if !errors.Is(err, ErrNoAnchor) {
			t.Errorf("expected ErrNoAnchor, got %v", err)
		}
	})
}

func TestAnchorMatches(t *testing.T) {
	tests := []struct {
		anchor, detected string
		want             bool
	}{
		{"real numbers", "1 real numbers", true},
		{"matter in our surroundings", "matter", true},
		{"polynomials and zeroes", "zeroes and polynomials of degree two", true},
		{"polynomials and zeroes", "polynomials", true},
		{"the fundamental theorem", "fundamental ideas", false},
		{"", "anything", false},
		{"संख्या पद्धति", "अध्याय 1 संख्या पद्धति", true},
	}
	for _, tt := range tests {
		if got := AnchorMatches(tt.anchor, tt.detected); got != tt.want {
			t.Errorf("AnchorMatches(%q, %q) = %v, want %v", tt.anchor, tt.detected, got, tt.want)
		}
	}
}

func TestCaptureAnchor(t *testing.T) {
	if _, ok := CaptureAnchor(nil); ok {
		t.Error("no entries should not yield an anchor")
	}
	anchor, ok := CaptureAnchor([]toc.Entry{{ChapterID: 1, ChapterName: "Real Numbers"}, {ChapterID: 2, ChapterName: "Polynomials"}})
	if !ok || anchor != "real numbers" {
		t.Errorf("CaptureAnchor() = %q, %v", anchor, ok)
	}
}
