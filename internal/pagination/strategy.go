package pagination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
)

// Strategy selects where on a page the printed number is searched for.
type Strategy string

const (
	StrategyHeader  Strategy = "HEADER"
	StrategyFooter  Strategy = "FOOTER"
	StrategyCorners Strategy = "CORNERS"
	StrategyAuto    Strategy = "AUTO"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
var ErrUnknownStrategy = errors.New("unknown page number strategy")

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToUpper(strings.TrimSpace(s))); st {
	case StrategyHeader, StrategyFooter, StrategyCorners, StrategyAuto:
		return st, nil
	case "":
		return StrategyAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

const (
	// DefaultWindow is how many boxes the header and footer strategies inspect.
	DefaultWindow = 2
	// DefaultBand is the fraction of the page height (or width, for corners)
	// that counts as the edge region.
	DefaultBand = 0.15
)

// BoxText returns the OCR text of the i-th box on the current page.
type BoxText func(ctx context.Context, i int) (string, error)

// Finder locates the printed page number among a page's boxes.
type Finder struct {
	classifier *semantics.Classifier
	window     int
	band       float64
	logger     *slog.Logger
}

// FinderConfig configures a Finder. Zero values take defaults.
type FinderConfig struct {
	Window int
	Band   float64
	Logger *slog.Logger
}

// NewFinder creates a Finder that classifies candidate text with c.
func NewFinder(c *semantics.Classifier, cfg FinderConfig) *Finder {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Band <= 0 || cfg.Band >= 0.5 {
		cfg.Band = DefaultBand
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Finder{classifier: c, window: cfg.Window, band: cfg.Band, logger: cfg.Logger}
}

// Find returns the first page number found by the strategy. Boxes must be in
// reading order and clamped to a w x h page.
func (f *Finder) Find(ctx context.Context, st Strategy, boxes []layout.Box, w, h int, read BoxText) (int, bool, error) {
	switch st {
	case StrategyHeader:
		return f.scan(ctx, st, f.header(boxes, h), boxes, read)
	case StrategyFooter:
		return f.scan(ctx, st, f.footer(boxes, h), boxes, read)
	case StrategyCorners:
		return f.scan(ctx, st, f.corners(boxes, w, h), boxes, read)
	case StrategyAuto:
		for _, sub := range []Strategy{StrategyHeader, StrategyFooter, StrategyCorners} {
			n, ok, err := f.Find(ctx, sub, boxes, w, h, read)
			if err != nil || ok {
				return n, ok, err
			}
		}
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownStrategy, st)
	}
}

func (f *Finder) scan(ctx context.Context, st Strategy, candidates []int, boxes []layout.Box, read BoxText) (int, bool, error) {
	for _, i := range candidates {
		text, err := read(ctx, i)
		if err != nil {
			return 0, false, fmt.Errorf("read page number candidate %d: %w", i, err)
		}
		res := f.classifier.Classify(text)
		if res.Role == semantics.RolePageNumber {
			f.logger.Debug("printed page number found",
				"strategy", st, "page_number", res.PageNumber, "label", boxes[i].Label)
			return res.PageNumber, true, nil
		}
	}
	return 0, false, nil
}

func (f *Finder) header(boxes []layout.Box, h int) []int {
	limit := float64(h) * f.band
	var out []int
	for i := 0; i < len(boxes) && i < f.window; i++ {
		if float64(boxes[i].BBox.Y1) < limit {
			out = append(out, i)
		}
	}
	return out
}

func (f *Finder) footer(boxes []layout.Box, h int) []int {
	limit := float64(h) * (1 - f.band)
	var out []int
	for i := max(0, len(boxes)-f.window); i < len(boxes); i++ {
		if float64(boxes[i].BBox.Y1) > limit {
			out = append(out, i)
		}
	}
	return out
}

func (f *Finder) corners(boxes []layout.Box, w, h int) []int {
	fw, fh := float64(w), float64(h)
	var out []int
	for i, b := range boxes {
		r := b.BBox
		nearLeft := float64(r.X1) < fw*f.band
		nearRight := float64(r.X2) > fw*(1-f.band)
		nearTop := float64(r.Y1) < fh*f.band
		nearBottom := float64(r.Y2) > fh*(1-f.band)
		if (nearTop || nearBottom) && (nearLeft || nearRight) {
			out = append(out, i)
		}
	}
	return out
}
