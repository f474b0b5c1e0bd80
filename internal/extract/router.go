// Package extract runs the per-page content extraction loop: layout, page
// numbering, block routing, classification and hierarchy tagging.
package extract

import (
	"context"
	"image"
	"log/slog"

	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
)

// PageTexts reads and caches the OCR text of a page's TEXT boxes, so the
// page-number search and the block loop share one read per box.
type PageTexts struct {
	page   image.Image
	boxes  []layout.Box
	reader providers.BoxReader
	cache  map[int]string
}

// NewPageTexts creates an empty cache for one page.
func NewPageTexts(page image.Image, boxes []layout.Box, reader providers.BoxReader) *PageTexts {
	return &PageTexts{page: page, boxes: boxes, reader: reader, cache: make(map[int]string)}
}

// Text returns the OCR text of box i. Boxes of other classes read as empty.
func (p *PageTexts) Text(ctx context.Context, i int) (string, error) {
	if p.boxes[i].Class() != layout.ClassText {
		return "", nil
	}
	if s, ok := p.cache[i]; ok {
		return s, nil
	}
	s, err := p.reader.ReadText(ctx, p.page, p.boxes[i].BBox, providers.Padding{})
	if err != nil {
		return "", err
	}
	p.cache[i] = s
	return s, nil
}

// Routed is a box's content after routing and classification.
type Routed struct {
	Text string
	Role semantics.Role
}

var droppedLabels = map[string]bool{
	layout.LabelPageFooter: true,
	layout.LabelFootnote:   true,
}

// Router sends each box to the engine for its class.
type Router struct {
	reader     providers.BoxReader
	classifier *semantics.Classifier
	logger     *slog.Logger
}

// NewRouter creates a router.
func NewRouter(reader providers.BoxReader, classifier *semantics.Classifier, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{reader: reader, classifier: classifier, logger: logger}
}

// Route returns the content of box i. ok is false for boxes that produce no
// block: footers, footnotes and text classified as a page number.
//
// Figures and tables are not OCR'd; they carry the FIGURE_BLOCK and
// TABLE_BLOCK roles with empty text. Math goes to the LaTeX engine and
// everything else to text OCR.
func (r *Router) Route(ctx context.Context, texts *PageTexts, i int) (Routed, bool, error) {
	box := texts.boxes[i]
	if droppedLabels[box.Label] {
		return Routed{}, false, nil
	}

	var raw string
	switch box.Class() {
	case layout.ClassVisual:
		return Routed{Role: semantics.RoleFigureBlock}, true, nil
	case layout.ClassTable:
		return Routed{Role: semantics.RoleTableBlock}, true, nil
	case layout.ClassMath:
		latex, err := r.reader.ReadLaTeX(ctx, texts.page, box.BBox)
		if err != nil {
			return Routed{}, false, err
		}
		raw = latex
	default:
		text, err := texts.Text(ctx, i)
		if err != nil {
			return Routed{}, false, err
		}
		raw = text
	}

	res := r.classifier.Classify(raw)
	if res.Role == semantics.RolePageNumber {
		r.logger.Debug("dropping page number block", "label", box.Label, "text", res.CleanText)
		return Routed{}, false, nil
	}
	return Routed{Text: res.CleanText, Role: res.Role}, true, nil
}
