// Package imgproc holds the image operations used before OCR: cropping with
// padding, contrast stretching, border expansion and sharpening.
package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

// Crop returns the region r of img, padded by px/py and clamped to the image.
func Crop(img image.Image, r layout.Rect, px, py int) *image.NRGBA {
	b := img.Bounds()
	rect := r.Pad(px, py).Clamp(b.Dx(), b.Dy())
	return imaging.Crop(img, rect.Image().Add(b.Min))
}

// AutoContrast stretches each channel so its darkest value maps to 0 and its
// brightest to 255. Flat channels are left untouched.
func AutoContrast(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	var lo, hi [3]uint8
	lo = [3]uint8{255, 255, 255}
	for i := 0; i+3 < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := src.Pix[i+c]
			lo[c] = min(lo[c], v)
			hi[c] = max(hi[c], v)
		}
	}

	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		for v := 0; v < 256; v++ {
			if hi[c] <= lo[c] {
				lut[c][v] = uint8(v)
				continue
			}
			scaled := (v - int(lo[c])) * 255 / (int(hi[c]) - int(lo[c]))
			lut[c][v] = uint8(min(255, max(0, scaled)))
		}
	}

	return imaging.AdjustFunc(src, func(px color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[0][px.R], G: lut[1][px.G], B: lut[2][px.B], A: px.A}
	})
}

// Expand adds a solid border around img.
func Expand(img image.Image, left, top, right, bottom int, fill color.Color) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx()+left+right, b.Dy()+top+bottom, fill)
	return imaging.Paste(bg, img, image.Pt(left, top))
}

// UnsharpMask sharpens img: pixels whose difference from a Gaussian blur of
// the given radius is at least threshold are pushed away from the blur by
// percent/100 of that difference.
func UnsharpMask(img image.Image, radius float64, percent, threshold int) *image.NRGBA {
	src := imaging.Clone(img)
	blurred := imaging.Blur(src, radius)
	out := imaging.Clone(src)
	amount := float64(percent) / 100
	for i := 0; i+3 < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			o, bl := int(src.Pix[i+c]), int(blurred.Pix[i+c])
			diff := o - bl
			if abs(diff) < threshold {
				continue
			}
			v := float64(o) + amount*float64(diff)
			out.Pix[i+c] = uint8(min(255, max(0, int(v+0.5))))
		}
	}
	return out
}

// Grayscale converts img to grayscale.
func Grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes PNG or JPEG data.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
