// Package layout holds the geometry shared by every stage of the pipeline:
// detected boxes, their coarse content class, overlap suppression and
// reading-order sorting.
package layout

import (
	"encoding/json"
	"fmt"
	"image"
)

// Rect is an axis-aligned pixel rectangle [X1,Y1) to [X2,Y2).
type Rect struct {
	X1, Y1, X2, Y2 int
}

// R builds a Rect from corner coordinates.
func R(x1, y1, x2, y2 int) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (r Rect) Width() int  { return max(0, r.X2-r.X1) }
func (r Rect) Height() int { return max(0, r.Y2-r.Y1) }

// Area returns the pixel area, zero for degenerate rectangles.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Intersect returns the overlapping region of two rectangles.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
		X2: min(r.X2, o.X2),
		Y2: min(r.Y2, o.Y2),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Pad grows the rectangle by px horizontally and py vertically.
func (r Rect) Pad(px, py int) Rect {
	return Rect{X1: r.X1 - px, Y1: r.Y1 - py, X2: r.X2 + px, Y2: r.Y2 + py}
}

// Clamp limits the rectangle to an image of width w and height h.
func (r Rect) Clamp(w, h int) Rect {
	return Rect{
		X1: min(max(0, r.X1), w),
		Y1: min(max(0, r.Y1), h),
		X2: min(max(0, r.X2), w),
		Y2: min(max(0, r.Y2), h),
	}
}

// Array returns the rectangle as [x1, y1, x2, y2].
func (r Rect) Array() [4]int {
	return [4]int{r.X1, r.Y1, r.X2, r.Y2}
}

// Image converts to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// MarshalJSON encodes the rectangle as [x1, y1, x2, y2].
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Array())
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	var v [4]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bbox must be [x1,y1,x2,y2]: %w", err)
	}
	*r = R(int(v[0]), int(v[1]), int(v[2]), int(v[3]))
	return nil
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d %d %d %d]", r.X1, r.Y1, r.X2, r.Y2)
}

// Box is a layout region produced by the layout detector.
// Boxes live only for the duration of one page.
type Box struct {
	BBox  Rect    `json:"bbox"`
	Label string  `json:"label"`
	Score float64 `json:"score,omitempty"`
}

// Class returns the coarse content class of the box label.
func (b Box) Class() Class {
	return ClassOf(b.Label)
}
