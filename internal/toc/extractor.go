package toc

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/Malay-RB/Document-parsing/internal/debugexport"
	"github.com/Malay-RB/Document-parsing/internal/imgproc"
	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/providers"
)

// DefaultRowTolerance is the vertical distance (px) within which OCR
// elements are joined into one TOC line.
const DefaultRowTolerance = 25

// Horizontal padding (px) added to TOC pages before OCR.
const (
	padLeft  = 50
	padRight = 300
)

// Config configures an Extractor.
type Config struct {
	RowTolerance int
	Rules        Rules
	Logger       *slog.Logger
	// Debug receives one frame per page with the OCR elements outlined.
	Debug *debugexport.Collector
}

// Extractor reads table-of-contents pages into entries.
type Extractor struct {
	reader       providers.ElementReader
	rowTolerance int
	rules        Rules
	logger       *slog.Logger
	debug        *debugexport.Collector
}

// NewExtractor creates an extractor reading text through reader.
func NewExtractor(reader providers.ElementReader, cfg Config) *Extractor {
	if cfg.RowTolerance <= 0 {
		cfg.RowTolerance = DefaultRowTolerance
	}
	if cfg.Rules.MinLineLength == 0 && cfg.Rules.MaxChapterJump == 0 && cfg.Rules.Noise == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		reader:       reader,
		rowTolerance: cfg.RowTolerance,
		rules:        cfg.Rules,
		logger:       cfg.Logger,
		debug:        cfg.Debug,
	}
}

// Run OCRs each page and returns the structured entries. Zero entries is
// not an error; callers treat it as a failed extraction.
func (e *Extractor) Run(ctx context.Context, pages []image.Image) ([]Entry, error) {
	e.logger.Info("extracting table of contents", "pages", len(pages), "ocr", e.reader.Name())

	lines := make([][]string, 0, len(pages))
	for i, page := range pages {
		els, err := e.ReadPage(ctx, page, i+1)
		if err != nil {
			return nil, fmt.Errorf("TOC page %d: %w", i+1, err)
		}
		lines = append(lines, GroupLines(els, e.rowTolerance))
	}

	entries := e.rules.Transform(lines, e.logger)
	if len(entries) == 0 {
		e.logger.Warn("TOC extraction produced no entries")
	} else {
		e.logger.Info("TOC extracted", "entries", len(entries))
	}
	return entries, nil
}

// ReadPage prepares one TOC page and returns its positioned text elements.
func (e *Extractor) ReadPage(ctx context.Context, page image.Image, idx int) ([]providers.Element, error) {
	prepared := Prepare(page)
	els, err := e.reader.ReadElements(ctx, prepared)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("read TOC page", "index", idx, "elements", len(els))

	if e.debug.Enabled() {
		rects := make([]layout.Rect, len(els))
		for i, el := range els {
			rects[i] = el.BBox
		}
		e.debug.Add(debugexport.Frame{
			Title:    fmt.Sprintf("TOC page %d", idx),
			Image:    prepared,
			Overlays: debugexport.RectOverlays(rects),
		})
	}
	return els, nil
}

// Prepare pads a TOC page with white margins, stretches its contrast and
// sharpens it.
func Prepare(page image.Image) image.Image {
	padded := imgproc.Expand(page, padLeft, 0, padRight, 0, color.White)
	return imgproc.UnsharpMask(imgproc.AutoContrast(padded), 2, 150, 3)
}

// GroupLines joins elements into text lines: elements whose top edges lie
// within tolerance of a row's first element share the row, and each row is
// read left to right.
func GroupLines(els []providers.Element, tolerance int) []string {
	rows := layout.GroupRows(els, func(el providers.Element) layout.Rect { return el.BBox }, tolerance)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, el := range row {
			parts[i] = el.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}
