package providers

import (
	"context"
	"image"
	"time"

	"github.com/Malay-RB/Document-parsing/internal/layout"
)

// Instrument wraps every model in m so each call reports CallStats to obs.
func Instrument(m Models, obs StatsObserver) Models {
	if obs == nil {
		return m
	}
	out := Models{}
	if m.Layout != nil {
		out.Layout = &instrumentedLayout{inner: m.Layout, obs: obs}
	}
	if m.OCR != nil {
		out.OCR = &instrumentedOCR{inner: m.OCR, obs: obs}
	}
	if m.Math != nil {
		out.Math = &instrumentedMath{inner: m.Math, obs: obs}
	}
	if m.Enhancer != nil {
		out.Enhancer = &instrumentedEnhancer{inner: m.Enhancer, obs: obs}
	}
	return out
}

func report(obs StatsObserver, provider, op string, start time.Time, err error) {
	st := CallStats{
		Provider:      provider,
		Operation:     op,
		Success:       err == nil,
		ExecutionTime: time.Since(start),
	}
	if err != nil {
		st.ErrorMessage = err.Error()
	}
	obs(st)
}

type instrumentedLayout struct {
	inner LayoutDetector
	obs   StatsObserver
}

func (i *instrumentedLayout) Name() string { return i.inner.Name() }

func (i *instrumentedLayout) Detect(ctx context.Context, page image.Image) ([]layout.Box, error) {
	start := time.Now()
	boxes, err := i.inner.Detect(ctx, page)
	report(i.obs, i.inner.Name(), "detect", start, err)
	return boxes, err
}

type instrumentedOCR struct {
	inner OCREngine
	obs   StatsObserver
}

func (i *instrumentedOCR) Name() string { return i.inner.Name() }

func (i *instrumentedOCR) Recognize(ctx context.Context, crop image.Image) (string, error) {
	start := time.Now()
	text, err := i.inner.Recognize(ctx, crop)
	report(i.obs, i.inner.Name(), "recognize", start, err)
	return text, err
}

func (i *instrumentedOCR) ReadElements(ctx context.Context, img image.Image) ([]Element, error) {
	start := time.Now()
	els, err := i.inner.ReadElements(ctx, img)
	report(i.obs, i.inner.Name(), "read_elements", start, err)
	return els, err
}

type instrumentedMath struct {
	inner MathRecognizer
	obs   StatsObserver
}

func (i *instrumentedMath) Name() string { return i.inner.Name() }

func (i *instrumentedMath) RecognizeLaTeX(ctx context.Context, crop image.Image) (string, error) {
	start := time.Now()
	latex, err := i.inner.RecognizeLaTeX(ctx, crop)
	report(i.obs, i.inner.Name(), "latex", start, err)
	return latex, err
}

type instrumentedEnhancer struct {
	inner Enhancer
	obs   StatsObserver
}

func (i *instrumentedEnhancer) Name() string { return i.inner.Name() }

func (i *instrumentedEnhancer) Enhance(ctx context.Context, crop image.Image) (image.Image, error) {
	start := time.Now()
	out, err := i.inner.Enhance(ctx, crop)
	report(i.obs, i.inner.Name(), "enhance", start, err)
	return out, err
}
