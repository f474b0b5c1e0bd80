package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
)

func TestTracker_Resolve(t *testing.T) {
	t.Run("unlocked without detection", func(t *testing.T) {
		tr := NewTracker(nil)
		if _, ok := tr.Resolve(1, 0); ok {
			t.Error("expected not ok before any detection")
		}
		if tr.Locked() {
			t.Error("tracker should stay unlocked")
		}
	})

	t.Run("locks on first detection then infers", func(t *testing.T) {
		tr := NewTracker(nil)
		got, ok := tr.Resolve(5, 15)
		if !ok || got != 15 {
			t.Fatalf("Resolve(5, 15) = %d, %v", got, ok)
		}
		if off, _ := tr.Offset(); off != 10 {
			t.Errorf("offset = %d, want 10", off)
		}
		if got, _ := tr.Resolve(6, 0); got != 16 {
			t.Errorf("Resolve(6, none) = %d, want 16", got)
		}
		if got, _ := tr.Resolve(7, 99); got != 17 {
			t.Errorf("Resolve(7, 99) = %d, want 17", got)
		}
		if got, _ := tr.Resolve(8, 18); got != 18 {
			t.Errorf("Resolve(8, 18) = %d, want 18", got)
		}
	})

	t.Run("rejects implausible values", func(t *testing.T) {
		tr := NewTracker(nil)
		if _, ok := tr.Resolve(1, 2500); ok {
			t.Error("2500 should be rejected")
		}
		if _, ok := tr.Resolve(1, -3); ok {
			t.Error("negative should be rejected")
		}
		if tr.Locked() {
			t.Error("tracker must not lock on noise")
		}
		if got, ok := tr.Resolve(2, 2000); !ok || got != 2000 {
			t.Errorf("2000 is plausible, got %d, %v", got, ok)
		}
	})

	t.Run("never unlocks", func(t *testing.T) {
		tr := NewTracker(nil)
		tr.Resolve(3, 1)
		tr.Resolve(4, 500)
		if off, _ := tr.Offset(); off != -2 {
			t.Errorf("offset changed to %d", off)
		}
	})
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"footer", StrategyFooter, false},
		{"HEADER", StrategyHeader, false},
		{" corners ", StrategyCorners, false},
		{"", StrategyAuto, false},
		{"middle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownStrategy) {
				t.Errorf("expected ErrUnknownStrategy, got %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFinder_Find(t *testing.T) {
	const w, h = 1000, 1000
	boxes := []layout.Box{
		{BBox: layout.R(400, 20, 600, 60), Label: "PageHeader"}, // 0: running title
		{BBox: layout.R(100, 200, 900, 800), Label: "Text"},     // 1: body
		{BBox: layout.R(880, 900, 960, 940), Label: "PageFooter"}, // 2: corner number
	}
	texts := map[int]string{
		0: "CIRCLES",
		1: "A tangent to a circle is a line that touches it at exactly one point.",
		2: "187",
	}

	newReader := func(calls *[]int) BoxText {
		return func(_ context.Context, i int) (string, error) {
			*calls = append(*calls, i)
			return texts[i], nil
		}
	}
	f := NewFinder(semantics.NewClassifier(semantics.DefaultPatterns()), FinderConfig{})

	t.Run("footer", func(t *testing.T) {
		var calls []int
		n, ok, err := f.Find(context.Background(), StrategyFooter, boxes, w, h, newReader(&calls))
		if err != nil || !ok || n != 187 {
			t.Fatalf("Find = %d, %v, %v", n, ok, err)
		}
		for _, c := range calls {
			if c == 1 {
				t.Error("body box outside the footer band should not be read")
			}
		}
	})

	t.Run("header finds nothing", func(t *testing.T) {
		var calls []int
		_, ok, err := f.Find(context.Background(), StrategyHeader, boxes, w, h, newReader(&calls))
		if err != nil || ok {
			t.Fatalf("expected no result, got ok=%v err=%v", ok, err)
		}
		if len(calls) != 1 || calls[0] != 0 {
			t.Errorf("header should read only box 0, read %v", calls)
		}
	})

	t.Run("auto falls through to footer", func(t *testing.T) {
		var calls []int
		n, ok, err := f.Find(context.Background(), StrategyAuto, boxes, w, h, newReader(&calls))
		if err != nil || !ok || n != 187 {
			t.Fatalf("Find = %d, %v, %v", n, ok, err)
		}
	})

	t.Run("corners", func(t *testing.T) {
		var calls []int
		n, ok, _ := f.Find(context.Background(), StrategyCorners, boxes, w, h, newReader(&calls))
		if !ok || n != 187 {
			t.Errorf("Find = %d, %v", n, ok)
		}
	})

	t.Run("reader error propagates", func(t *testing.T) {
		boom := errors.New("ocr down")
		read := func(context.Context, int) (string, error) { return "", boom }
		_, _, err := f.Find(context.Background(), StrategyFooter, boxes, w, h, read)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}
