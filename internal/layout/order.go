package layout

import (
	"slices"
)

// DefaultOverlapThreshold is the intersection-over-smaller ratio above which
// the smaller of two boxes is discarded.
const DefaultOverlapThreshold = 0.5

// DefaultRowTolerance is the vertical distance (px) within which boxes share a
// reading row.
const DefaultRowTolerance = 40

// FilterOverlapping removes boxes that are mostly contained in a larger box.
// For every pair whose intersection covers more than threshold of the smaller
// box, the smaller one is dropped. Input order is preserved.
func FilterOverlapping(boxes []Box, threshold float64) []Box {
	if len(boxes) < 2 {
		return slices.Clone(boxes)
	}
	dropped := make([]bool, len(boxes))
	for i := range boxes {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(boxes); j++ {
			if dropped[j] {
				continue
			}
			a, b := boxes[i].BBox, boxes[j].BBox
			small := min(a.Area(), b.Area())
			if small == 0 {
				continue
			}
			inter := a.Intersect(b).Area()
			if float64(inter)/float64(small) <= threshold {
				continue
			}
			if a.Area() >= b.Area() {
				dropped[j] = true
			} else {
				dropped[i] = true
				break
			}
		}
	}
	out := make([]Box, 0, len(boxes))
	for i, b := range boxes {
		if !dropped[i] {
			out = append(out, b)
		}
	}
	return out
}

// GroupRows clusters items into rows. Items are sorted by top edge (then left
// edge); an item joins the current row while its top lies within tolerance of
// the row's first item. Each row is returned sorted left to right.
func GroupRows[T any](items []T, rect func(T) Rect, tolerance int) [][]T {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		ra, rb := rect(a), rect(b)
		if ra.Y1 != rb.Y1 {
			return ra.Y1 - rb.Y1
		}
		return ra.X1 - rb.X1
	})

	byLeft := func(a, b T) int { return rect(a).X1 - rect(b).X1 }

	var rows [][]T
	row := []T{sorted[0]}
	for _, it := range sorted[1:] {
		if abs(rect(it).Y1-rect(row[0]).Y1) < tolerance {
			row = append(row, it)
			continue
		}
		slices.SortStableFunc(row, byLeft)
		rows = append(rows, row)
		row = []T{it}
	}
	slices.SortStableFunc(row, byLeft)
	return append(rows, row)
}

// SortReadingOrder flattens GroupRows into a single top-to-bottom,
// left-to-right sequence.
func SortReadingOrder(boxes []Box, tolerance int) []Box {
	out := make([]Box, 0, len(boxes))
	for _, row := range GroupRows(boxes, func(b Box) Rect { return b.BBox }, tolerance) {
		out = append(out, row...)
	}
	return out
}

// ClampAll clamps every box to the page bounds.
func ClampAll(boxes []Box, w, h int) []Box {
	out := make([]Box, len(boxes))
	for i, b := range boxes {
		b.BBox = b.BBox.Clamp(w, h)
		out[i] = b
	}
	return out
}

// Prepare applies the standard per-page cleanup: overlap suppression, reading
// order and clamping to the page.
func Prepare(boxes []Box, w, h int, overlap float64, rowTolerance int) []Box {
	return ClampAll(SortReadingOrder(FilterOverlapping(boxes, overlap), rowTolerance), w, h)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
