package extract

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/Malay-RB/Document-parsing/internal/debugexport"
	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/pagination"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

// DefaultGCInterval is how many pages run between forced collections.
const DefaultGCInterval = 3

// PageLoader renders a 1-based physical page.
type PageLoader interface {
	LoadPage(ctx context.Context, n int) (image.Image, error)
}

// Config configures a Stream.
type Config struct {
	Pages      PageLoader
	Layout     providers.LayoutDetector
	Reader     providers.BoxReader
	Classifier *semantics.Classifier
	Finder     *pagination.Finder
	Strategy   pagination.Strategy
	Tracker    *pagination.Tracker
	Matcher    *toc.Matcher // nil when TOC extraction failed

	// StartPage and EndPage bound the physical pages processed, inclusive.
	StartPage int
	EndPage   int

	OverlapThreshold float64
	RowTolerance     int
	GCInterval       int

	Debug  *debugexport.Collector
	Logger *slog.Logger
}

// Batch is the output released by one call to Next.
type Batch struct {
	// PDFPage is the physical page processed by this call. Zero for the
	// final flush.
	PDFPage int

	// Records are ready for output, in document order. Empty while pages
	// are buffered.
	Records []semantics.Record

	// Pending is the number of pages still buffered.
	Pending int

	// Err is set when the page failed and was skipped.
	Err error

	Duration time.Duration
	Stages   map[string]time.Duration
}

// Stream yields extraction batches one page at a time. It is finite and
// cannot be restarted.
type Stream struct {
	cfg       Config
	router    *Router
	context   *semantics.ContextTracker
	paginator *Paginator
	logger    *slog.Logger

	next      int
	processed int
	index     int
	done      bool
}

// NewStream creates a stream over cfg.StartPage..cfg.EndPage.
func NewStream(cfg Config) *Stream {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = pagination.NewTracker(cfg.Logger)
	}
	if cfg.Finder == nil {
		cfg.Finder = pagination.NewFinder(cfg.Classifier, pagination.FinderConfig{Logger: cfg.Logger})
	}
	if cfg.Strategy == "" {
		cfg.Strategy = pagination.StrategyAuto
	}
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = layout.DefaultOverlapThreshold
	}
	if cfg.RowTolerance <= 0 {
		cfg.RowTolerance = layout.DefaultRowTolerance
	}
	if cfg.GCInterval == 0 {
		cfg.GCInterval = DefaultGCInterval
	}
	if cfg.StartPage < 1 {
		cfg.StartPage = 1
	}
	return &Stream{
		cfg:       cfg,
		router:    NewRouter(cfg.Reader, cfg.Classifier, cfg.Logger),
		context:   semantics.NewContextTracker(),
		paginator: NewPaginator(cfg.Tracker, cfg.Matcher, cfg.Logger),
		logger:    cfg.Logger,
		next:      cfg.StartPage,
	}
}

// Next processes the next page and returns what it released. After the last
// page, Next flushes any buffered pages; once nothing is left it returns
// io.EOF. Cancellation is checked only between pages.
func (s *Stream) Next(ctx context.Context) (*Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next > s.cfg.EndPage {
		s.done = true
		if b := s.Flush(); b != nil {
			return b, nil
		}
		return nil, io.EOF
	}

	n := s.next
	s.next++
	start := time.Now()
	stages := make(map[string]time.Duration)

	page, err := s.processPage(context.WithoutCancel(ctx), n, stages)
	batch := &Batch{PDFPage: n, Stages: stages}
	if err != nil {
		s.logger.Error("page failed, skipping", "pdf_page", n, "error", err)
		batch.Err = err
	} else {
		batch.Records = s.records(s.paginator.Add(page))
	}
	batch.Pending = s.paginator.Pending()
	batch.Duration = time.Since(start)

	s.processed++
	if s.cfg.GCInterval > 0 && s.processed%s.cfg.GCInterval == 0 {
		runtime.GC()
	}
	return batch, nil
}

// Flush releases buffered pages without processing further pages. It
// returns nil when nothing is buffered. Used on end of document and
// interruption.
func (s *Stream) Flush() *Batch {
	pages := s.paginator.Flush()
	if len(pages) == 0 {
		return nil
	}
	return &Batch{Records: s.records(pages)}
}

func (s *Stream) records(pages []Page) []semantics.Record {
	var out []semantics.Record
	for _, p := range pages {
		for _, b := range p.Blocks {
			s.index++
			out = append(out, semantics.ToRecord(b, s.index))
		}
	}
	return out
}

func (s *Stream) processPage(ctx context.Context, n int, stages map[string]time.Duration) (Page, error) {
	t := time.Now()
	img, err := s.cfg.Pages.LoadPage(ctx, n)
	if err != nil {
		return Page{}, fmt.Errorf("render page %d: %w", n, err)
	}
	stages["render"] = time.Since(t)

	t = time.Now()
	raw, err := s.cfg.Layout.Detect(ctx, img)
	if err != nil {
		return Page{}, fmt.Errorf("detect layout on page %d: %w", n, err)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	boxes := layout.Prepare(raw, w, h, s.cfg.OverlapThreshold, s.cfg.RowTolerance)
	stages["layout"] = time.Since(t)

	s.cfg.Debug.Add(debugexport.Frame{
		Title:    fmt.Sprintf("page %d", n),
		Image:    img,
		Overlays: debugexport.BoxOverlays(boxes),
	})

	texts := NewPageTexts(img, boxes, s.cfg.Reader)

	t = time.Now()
	detected, found, err := s.cfg.Finder.Find(ctx, s.cfg.Strategy, boxes, w, h, texts.Text)
	if err != nil {
		s.logger.Warn("page number search failed", "pdf_page", n, "error", err)
		found = false
	}
	if !found {
		detected = 0
	}
	printed, hasPrinted := s.cfg.Tracker.Resolve(n, detected)
	stages["pagination"] = time.Since(t)

	t = time.Now()
	var blocks []semantics.Block
	for i, box := range boxes {
		routed, ok, err := s.router.Route(ctx, texts, i)
		if err != nil {
			s.logger.Warn("block read failed, skipping", "pdf_page", n, "block", i, "label", box.Label, "error", err)
			continue
		}
		if !ok {
			continue
		}

		s.context.Update(routed.Role, routed.Text)
		snap := s.context.Snapshot()

		b := semantics.Block{
			PDFPage:      n,
			ContentLabel: box.Label,
			Class:        box.Class(),
			Text:         routed.Text,
			BBox:         box.BBox,
			Role:         routed.Role,
			Context:      snap,
		}
		if hasPrinted {
			p := printed
			b.PrintedPage = &p
		}
		if e, ok := s.cfg.Matcher.Resolve(printed, hasPrinted, snap.ChapterVerify); ok {
			b.Link = e.Link()
		}
		blocks = append(blocks, b)
	}
	stages["blocks"] = time.Since(t)

	s.logger.Debug("page extracted", "pdf_page", n, "printed", printed, "located", hasPrinted, "blocks", len(blocks))
	return Page{PDFPage: n, Blocks: semantics.BindFigures(blocks)}, nil
}
