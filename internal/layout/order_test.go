package layout

import (
	"testing"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		label string
		want  Class
	}{
		{"Text", ClassText},
		{"SectionHeader", ClassText},
		{"PageFooter", ClassText},
		{"Formula", ClassMath},
		{"Text-inline-math", ClassMath},
		{"Picture", ClassVisual},
		{"Graphic", ClassVisual},
		{"Table", ClassTable},
		{"SomethingNew", ClassText},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ClassOf(tt.label); got != tt.want {
				t.Errorf("ClassOf(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}
}

func TestRect(t *testing.T) {
	t.Run("intersect disjoint is empty", func(t *testing.T) {
		got := R(0, 0, 10, 10).Intersect(R(20, 20, 30, 30))
		if !got.Empty() {
			t.Errorf("expected empty, got %v", got)
		}
	})

	t.Run("clamp to page", func(t *testing.T) {
		got := R(-5, -3, 120, 90).Clamp(100, 80)
		want := R(0, 0, 100, 80)
		if got != want {
			t.Errorf("Clamp = %v, want %v", got, want)
		}
	})

	t.Run("pad", func(t *testing.T) {
		got := R(10, 10, 20, 20).Pad(5, 20)
		want := R(5, -10, 25, 40)
		if got != want {
			t.Errorf("Pad = %v, want %v", got, want)
		}
	})
}

func TestFilterOverlapping(t *testing.T) {
	t.Run("drops contained smaller box", func(t *testing.T) {
		boxes := []Box{
			{BBox: R(0, 0, 100, 100), Label: "Text"},
			{BBox: R(10, 10, 50, 50), Label: "Text"},
			{BBox: R(200, 200, 300, 300), Label: "Picture"},
		}
		got := FilterOverlapping(boxes, 0.5)
		if len(got) != 2 {
			t.Fatalf("expected 2 boxes, got %d", len(got))
		}
		if got[0].BBox != boxes[0].BBox || got[1].BBox != boxes[2].BBox {
			t.Errorf("unexpected survivors: %v", got)
		}
	})

	t.Run("keeps larger box when it comes second", func(t *testing.T) {
		boxes := []Box{
			{BBox: R(10, 10, 50, 50), Label: "Text"},
			{BBox: R(0, 0, 100, 100), Label: "Text"},
		}
		got := FilterOverlapping(boxes, 0.5)
		if len(got) != 1 || got[0].BBox != boxes[1].BBox {
			t.Errorf("expected only the larger box, got %v", got)
		}
	})

	t.Run("light overlap survives", func(t *testing.T) {
		boxes := []Box{
			{BBox: R(0, 0, 100, 100)},
			{BBox: R(90, 0, 190, 100)},
		}
		if got := FilterOverlapping(boxes, 0.5); len(got) != 2 {
			t.Errorf("expected both boxes, got %d", len(got))
		}
	})
}

func TestSortReadingOrder(t *testing.T) {
	boxes := []Box{
		{BBox: R(500, 105, 600, 150), Label: "b"},
		{BBox: R(10, 100, 300, 150), Label: "a"},
		{BBox: R(10, 400, 300, 450), Label: "d"},
		{BBox: R(400, 20, 500, 60), Label: "header"},
		{BBox: R(700, 130, 800, 170), Label: "c"},
	}
	got := SortReadingOrder(boxes, 40)
	want := []string{"header", "a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %d boxes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Label != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i].Label, want[i])
		}
	}
}

func TestGroupRows(t *testing.T) {
	type word struct {
		text string
		r    Rect
	}
	words := []word{
		{"Two", R(200, 12, 260, 30)},
		{"One", R(10, 10, 80, 30)},
		{"Next", R(10, 60, 80, 80)},
	}
	rows := GroupRows(words, func(w word) Rect { return w.r }, 25)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].text != "One" || rows[0][1].text != "Two" {
		t.Errorf("first row out of order: %v", rows[0])
	}
	if rows[1][0].text != "Next" {
		t.Errorf("second row: %v", rows[1])
	}
}
