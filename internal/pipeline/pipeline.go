// Package pipeline drives one document through scouting, TOC buffering and
// deep extraction, and owns every artifact the run writes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/Malay-RB/Document-parsing/internal/debugexport"
	"github.com/Malay-RB/Document-parsing/internal/extract"
	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/metrics"
	"github.com/Malay-RB/Document-parsing/internal/output"
	"github.com/Malay-RB/Document-parsing/internal/pagination"
	"github.com/Malay-RB/Document-parsing/internal/pdfsource"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/scout"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

var (
	// ErrTriggerNotFound means no TOC trigger appeared within the scout limit.
	ErrTriggerNotFound = errors.New("table of contents trigger not found")

	// ErrAnchorNotFound means the first chapter title never reappeared
	// after the TOC.
	ErrAnchorNotFound = errors.New("sync anchor not found")
)

// Default front-matter limits, in pages.
const (
	DefaultScoutLimit = 15
	DefaultSyncLimit  = 40
)

// Options configures an Orchestrator.
type Options struct {
	// Source renders pages. It is opened and closed by each run.
	Source pdfsource.Source
	Models providers.Models
	// Reader overrides the crop reader built from Models.
	Reader providers.BoxReader

	Classifier      *semantics.Classifier
	Strategy        pagination.Strategy
	Keywords        []string
	TOCRules        toc.Rules
	TOCRowTolerance int

	ScoutLimit       int
	SyncLimit        int
	GCInterval       int
	OverlapThreshold float64
	RowTolerance     int

	// Debug writes layout debug PDFs for each phase.
	Debug bool
	// Validate runs a structural PDF check before rendering.
	Validate bool

	RunID   string
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Result summarizes a full extraction run.
type Result struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Document    string        `json:"document" yaml:"document"`
	TotalPages  int           `json:"total_pages" yaml:"total_pages"`
	TOCPages    []int         `json:"toc_pages" yaml:"toc_pages"`
	Anchor      string        `json:"anchor" yaml:"anchor"`
	StartPage   int           `json:"content_start_page" yaml:"content_start_page"`
	TOCEntries  int           `json:"toc_entries" yaml:"toc_entries"`
	Pages       int           `json:"pages" yaml:"pages"`
	FailedPages []int         `json:"failed_pages,omitempty" yaml:"failed_pages,omitempty"`
	Records     int           `json:"records" yaml:"records"`
	// Dropped counts staged records that failed validation at consolidation.
	Dropped     int           `json:"dropped_records,omitempty" yaml:"dropped_records,omitempty"`
	ResultPath  string        `json:"result_path,omitempty" yaml:"result_path,omitempty"`
	Interrupted bool          `json:"interrupted" yaml:"interrupted"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Orchestrator runs the pipeline. It processes one document at a time.
type Orchestrator struct {
	opts    Options
	models  providers.Models
	reader  providers.BoxReader
	scout   *scout.Scout
	syncer  *scout.Syncer
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// New validates opts, fills defaults and instruments the models for
// telemetry.
func New(opts Options) (*Orchestrator, error) {
	if opts.Source == nil {
		return nil, errors.New("pipeline: page source is required")
	}
	if opts.Models.Layout == nil || opts.Models.OCR == nil {
		return nil, errors.New("pipeline: layout detector and OCR engine are required")
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRecorder(opts.RunID)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Classifier == nil {
		opts.Classifier = semantics.NewClassifier(semantics.DefaultPatterns())
	}
	if opts.Strategy == "" {
		opts.Strategy = pagination.StrategyAuto
	}
	if opts.ScoutLimit <= 0 {
		opts.ScoutLimit = DefaultScoutLimit
	}
	if opts.SyncLimit <= 0 {
		opts.SyncLimit = DefaultSyncLimit
	}
	if opts.GCInterval == 0 {
		opts.GCInterval = extract.DefaultGCInterval
	}
	if opts.OverlapThreshold <= 0 {
		opts.OverlapThreshold = layout.DefaultOverlapThreshold
	}
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = layout.DefaultRowTolerance
	}

	logger := opts.Logger.With("run_id", opts.RunID)
	models := providers.Instrument(opts.Models, opts.Metrics.RecordCall)
	reader := opts.Reader
	if reader == nil {
		reader = providers.NewCropReader(models)
	}
	return &Orchestrator{
		opts:    opts,
		models:  models,
		reader:  reader,
		scout:   scout.NewScout(reader, opts.Keywords, logger),
		syncer:  scout.NewSyncer(reader, logger),
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// RunID returns the identifier stamped on this orchestrator's artifacts.
func (o *Orchestrator) RunID() string { return o.opts.RunID }

// session is one open document.
type session struct {
	source pdfsource.Source
	paths  output.Paths
	total  int
	// prepared is set once artifact directories exist.
	prepared bool

	scoutDebug  *debugexport.Collector
	tocDebug    *debugexport.Collector
	layoutDebug *debugexport.Collector
}

func (o *Orchestrator) open(pdfPath, outRoot string) (*session, error) {
	done := o.metrics.Time(metrics.StageOpen, "")
	s, err := o.openSession(pdfPath, outRoot)
	done(err)
	return s, err
}

func (o *Orchestrator) openSession(pdfPath, outRoot string) (*session, error) {
	if o.opts.Validate {
		if err := pdfsource.Validate(pdfPath); err != nil {
			return nil, err
		}
	}
	if err := o.opts.Source.Open(pdfPath); err != nil {
		return nil, err
	}
	s := &session{
		source:      o.opts.Source,
		paths:       output.NewPaths(outRoot, pdfPath),
		total:       o.opts.Source.TotalPages(),
		scoutDebug:  debugexport.NewCollector(o.opts.Debug),
		tocDebug:    debugexport.NewCollector(o.opts.Debug),
		layoutDebug: debugexport.NewCollector(o.opts.Debug),
	}
	o.logger.Info("document opened", "path", pdfPath, "pages", s.total)
	return s, nil
}

// prepare creates the artifact directories. Until it runs, a session
// leaves no artifacts behind apart from opt-in debug PDFs.
func (o *Orchestrator) prepare(s *session) error {
	if err := s.paths.EnsureDirs(); err != nil {
		return err
	}
	s.prepared = true
	return nil
}

func (o *Orchestrator) close(s *session) {
	if err := s.source.Close(); err != nil {
		o.logger.Warn("failed to close PDF", "error", err)
	}
}

// Run extracts the document at pdfPath into outRoot. Buffered pages are
// flushed and staged records consolidated on every exit path once
// extraction has started, including cancellation.
func (o *Orchestrator) Run(ctx context.Context, pdfPath, outRoot string) (res *Result, err error) {
	start := time.Now()
	s, err := o.open(pdfPath, outRoot)
	if err != nil {
		return nil, err
	}
	defer o.close(s)
	defer o.saveMetrics(s)

	res = &Result{RunID: o.opts.RunID, Document: s.paths.Name(), TotalPages: s.total}
	defer func() { res.Elapsed = time.Since(start) }()
	o.logger.Info("pipeline starting", "document", res.Document)

	found, err := o.synchronize(ctx, s)
	o.saveDebug(s.paths.Debug(output.PhaseScout), s.scoutDebug)
	if err != nil {
		return res, fmt.Errorf("synchronize %s: %w", res.Document, err)
	}
	res.TOCPages, res.Anchor, res.StartPage = found.tocPages, found.anchor, found.contentStart
	if err := o.prepare(s); err != nil {
		return res, err
	}

	entries, err := o.extractTOC(ctx, s, found.tocPages)
	if err != nil {
		o.logger.Error("TOC extraction failed, continuing without hierarchy", "error", err)
		entries = nil
	}
	if err := output.WriteTOC(s.paths.TOC(), entries); err != nil {
		o.logger.Error("failed to save TOC, continuing without hierarchy", "error", err)
		entries = nil
	}
	res.TOCEntries = len(entries)
	if err := output.WriteSyncReport(s.paths.SyncReport(), o.syncReport(s, found)); err != nil {
		return res, err
	}

	stager, err := output.OpenStager(s.paths.Staging())
	if err != nil {
		return res, err
	}
	stream := extract.NewStream(extract.Config{
		Pages:            s.source,
		Layout:           o.models.Layout,
		Reader:           o.reader,
		Classifier:       o.opts.Classifier,
		Finder:           pagination.NewFinder(o.opts.Classifier, pagination.FinderConfig{Logger: o.logger}),
		Strategy:         o.opts.Strategy,
		Tracker:          pagination.NewTracker(o.logger),
		Matcher:          toc.NewMatcher(entries),
		StartPage:        found.contentStart,
		EndPage:          s.total,
		OverlapThreshold: o.opts.OverlapThreshold,
		RowTolerance:     o.opts.RowTolerance,
		GCInterval:       o.opts.GCInterval,
		Debug:            s.layoutDebug,
		Logger:           o.logger,
	})
	defer func() {
		if ferr := o.finalize(s, stream, stager, res); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	o.logger.Info("scholar mode active", "start_page", found.contentStart, "end_page", s.total)
	for {
		b, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Interrupted = true
			o.logger.Warn("extraction interrupted", "error", err)
			return res, err
		}
		o.recordBatch(b, res)
		if err := stager.Write(b.Records); err != nil {
			return res, err
		}
	}
	o.logger.Info("pipeline finished", "pages", res.Pages, "failed", len(res.FailedPages), "elapsed", time.Since(start))
	return res, nil
}

func (o *Orchestrator) recordBatch(b *extract.Batch, res *Result) {
	res.Records += len(b.Records)
	if b.PDFPage == 0 {
		return
	}
	key := metrics.PageKey(b.PDFPage)
	for stage, d := range b.Stages {
		o.metrics.RecordStage(stage, key, d, nil)
	}
	o.metrics.RecordStage(metrics.StagePage, key, b.Duration, b.Err)

	res.Pages++
	if b.Err != nil {
		res.FailedPages = append(res.FailedPages, b.PDFPage)
	}
	o.logger.Info("page processed",
		"pdf_page", b.PDFPage,
		"released", len(b.Records),
		"pending", b.Pending,
		"duration", b.Duration.Round(time.Millisecond))
}

// finalize releases buffered pages, consolidates the staging file and
// writes the layout debug PDF.
func (o *Orchestrator) finalize(s *session, stream *extract.Stream, stager *output.Stager, res *Result) error {
	var errs []error
	if b := stream.Flush(); b != nil {
		o.logger.Warn("flushing buffered pages before exit", "records", len(b.Records))
		res.Records += len(b.Records)
		if err := stager.Write(b.Records); err != nil {
			errs = append(errs, err)
		}
	}
	if err := stager.Close(); err != nil {
		errs = append(errs, err)
	}

	done := o.metrics.Time(metrics.StageOutput, "")
	c, err := output.Consolidate(stager.Path(), s.paths.Result(), o.logger)
	done(err)
	if err != nil {
		errs = append(errs, err)
	} else {
		res.Records = c.Records
		res.Dropped = len(c.Skipped)
		res.ResultPath = s.paths.Result()
	}
	if res.Dropped > 0 {
		o.logger.Error("staged records dropped at consolidation", "dropped", res.Dropped, "lines", c.Skipped)
	}

	o.saveDebug(s.paths.Debug(output.PhaseLayout), s.layoutDebug)
	return errors.Join(errs...)
}

// Sync runs scouting and buffering only and writes the sync report.
func (o *Orchestrator) Sync(ctx context.Context, pdfPath, outRoot string) (*output.SyncReport, error) {
	s, err := o.open(pdfPath, outRoot)
	if err != nil {
		return nil, err
	}
	defer o.close(s)
	defer o.saveMetrics(s)

	found, err := o.synchronize(ctx, s)
	o.saveDebug(s.paths.Debug(output.PhaseScout), s.scoutDebug)
	if err != nil {
		return nil, fmt.Errorf("synchronize %s: %w", s.paths.Name(), err)
	}
	if err := o.prepare(s); err != nil {
		return nil, err
	}
	report := o.syncReport(s, found)
	if err := output.WriteSyncReport(s.paths.SyncReport(), report); err != nil {
		return nil, err
	}
	o.logger.Info("sync report saved", "path", s.paths.SyncReport())
	return &report, nil
}

// TOC extracts the table of contents from the given physical pages and
// writes the TOC JSON.
func (o *Orchestrator) TOC(ctx context.Context, pdfPath, outRoot string, pages []int) ([]toc.Entry, error) {
	if len(pages) == 0 {
		return nil, errors.New("no TOC pages given")
	}
	s, err := o.open(pdfPath, outRoot)
	if err != nil {
		return nil, err
	}
	defer o.close(s)
	defer o.saveMetrics(s)

	entries, err := o.extractTOC(ctx, s, pages)
	if err != nil {
		return nil, err
	}
	if err := o.prepare(s); err != nil {
		return nil, err
	}
	if err := output.WriteTOC(s.paths.TOC(), entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (o *Orchestrator) syncReport(s *session, found scholar) output.SyncReport {
	return output.SyncReport{
		PDFFilename:      s.paths.Name(),
		TOCPages:         found.tocPages,
		ContentStartPage: found.contentStart,
		AnchorUsed:       found.anchor,
		RunID:            o.opts.RunID,
	}
}

// synchronize walks the front matter until the anchor page is found. The
// returned state names the TOC pages and the first content page.
func (o *Orchestrator) synchronize(ctx context.Context, s *session) (scholar, error) {
	work := context.WithoutCancel(ctx)
	var st state = scouting{}

	for n := 1; n <= s.total; n++ {
		if err := ctx.Err(); err != nil {
			return scholar{}, err
		}
		page, boxes, err := o.analyze(work, s.source, n)
		if err != nil {
			o.logger.Error("front matter page failed, skipping", "pdf_page", n, "phase", st.Phase().String(), "error", err)
		} else {
			s.scoutDebug.Add(debugexport.Frame{
				Title:    fmt.Sprintf("%s page %d", st.Phase(), n),
				Image:    page,
				Overlays: debugexport.BoxOverlays(boxes),
			})
		}

		st, err = o.step(work, st, page, boxes, n)
		if err != nil {
			return scholar{}, err
		}
		if done, ok := st.(scholar); ok {
			o.logger.Info("sync complete", "content_start_page", done.contentStart, "toc_pages", done.tocPages)
			return done, nil
		}
		if o.opts.GCInterval > 0 && n%o.opts.GCInterval == 0 {
			runtime.GC()
		}
	}

	switch cur := st.(type) {
	case buffering:
		return scholar{}, fmt.Errorf("%w: %q not seen before end of document", ErrAnchorNotFound, cur.anchor)
	default:
		return scholar{}, fmt.Errorf("%w: document ended after %d pages", ErrTriggerNotFound, s.total)
	}
}

// step advances the state machine by one page. A nil page is a page that
// could not be read; it never triggers and never matches.
func (o *Orchestrator) step(ctx context.Context, st state, page image.Image, boxes []layout.Box, n int) (state, error) {
	key := metrics.PageKey(n)
	switch cur := st.(type) {
	case scouting:
		found := false
		if page != nil {
			done := o.metrics.Time(metrics.StageScout, key)
			var err error
			found, _, err = o.scout.Scout(ctx, page, boxes, n)
			done(err)
			if err != nil {
				o.logger.Warn("scout read failed", "pdf_page", n, "error", err)
			}
		}
		if found {
			if anchor, ok := o.probe(ctx, page, n); ok {
				return buffering{anchor: anchor, tocPages: []int{n}}, nil
			}
			cur.rejected++
			o.logger.Warn("TOC trigger discarded: no anchor captured", "pdf_page", n, "rejected", cur.rejected)
		}
		if n >= o.opts.ScoutLimit {
			return cur, fmt.Errorf("%w within the first %d pages", ErrTriggerNotFound, o.opts.ScoutLimit)
		}
		return cur, nil

	case buffering:
		matched := false
		if page != nil {
			done := o.metrics.Time(metrics.StageSync, key)
			var err error
			matched, err = o.syncer.Sync(ctx, page, boxes, cur.anchor)
			done(err)
			if errors.Is(err, scout.ErrNoAnchor) {
				return cur, fmt.Errorf("buffering: %w", err)
			}
			if err != nil {
				o.logger.Warn("sync read failed", "pdf_page", n, "error", err)
			}
		}
		if matched {
			return scholar{anchor: cur.anchor, tocPages: cur.tocPages, contentStart: n}, nil
		}
		cur.tocPages = append(cur.tocPages, n)
		o.logger.Debug("page added to TOC buffer", "pdf_page", n, "buffered", cur.buffered())
		if cur.buffered() >= o.opts.SyncLimit {
			return cur, fmt.Errorf("%w: %q not seen within %d pages", ErrAnchorNotFound, cur.anchor, o.opts.SyncLimit)
		}
		return cur, nil

	default:
		return st, fmt.Errorf("unexpected phase %s", st.Phase())
	}
}

// probe reads the trigger page as a TOC and captures the first chapter
// name as the sync anchor. The entries themselves are discarded.
func (o *Orchestrator) probe(ctx context.Context, page image.Image, n int) (string, bool) {
	entries, err := o.extractor(nil).Run(ctx, []image.Image{page})
	if err != nil {
		o.logger.Warn("TOC probe failed", "pdf_page", n, "error", err)
		return "", false
	}
	anchor, ok := scout.CaptureAnchor(entries)
	if ok {
		o.logger.Info("anchor captured", "pdf_page", n, "anchor", anchor)
	}
	return anchor, ok
}

// extractTOC re-renders the TOC pages and extracts their entries.
func (o *Orchestrator) extractTOC(ctx context.Context, s *session, pages []int) ([]toc.Entry, error) {
	done := o.metrics.Time(metrics.StageTOC, "")
	entries, err := o.readTOC(context.WithoutCancel(ctx), s, pages)
	done(err)
	o.saveDebug(s.paths.Debug(output.PhaseTOC), s.tocDebug)
	return entries, err
}

func (o *Orchestrator) readTOC(ctx context.Context, s *session, pages []int) ([]toc.Entry, error) {
	images := make([]image.Image, 0, len(pages))
	for _, n := range pages {
		img, err := s.source.LoadPage(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("render TOC page %d: %w", n, err)
		}
		images = append(images, img)
	}
	return o.extractor(s.tocDebug).Run(ctx, images)
}

func (o *Orchestrator) extractor(debug *debugexport.Collector) *toc.Extractor {
	return toc.NewExtractor(o.models.OCR, toc.Config{
		RowTolerance: o.opts.TOCRowTolerance,
		Rules:        o.opts.TOCRules,
		Logger:       o.logger,
		Debug:        debug,
	})
}

// analyze renders page n and returns its deduplicated boxes in reading
// order.
func (o *Orchestrator) analyze(ctx context.Context, src pdfsource.Source, n int) (image.Image, []layout.Box, error) {
	img, err := src.LoadPage(ctx, n)
	if err != nil {
		return nil, nil, fmt.Errorf("render page %d: %w", n, err)
	}
	raw, err := o.models.Layout.Detect(ctx, img)
	if err != nil {
		return nil, nil, fmt.Errorf("detect layout on page %d: %w", n, err)
	}
	b := img.Bounds()
	return img, layout.Prepare(raw, b.Dx(), b.Dy(), o.opts.OverlapThreshold, o.opts.RowTolerance), nil
}

func (o *Orchestrator) saveDebug(path string, c *debugexport.Collector) {
	saved, err := c.Save(path)
	if err != nil {
		o.logger.Warn("failed to save debug PDF", "path", path, "error", err)
		return
	}
	if saved {
		o.logger.Info("debug PDF saved", "path", path, "pages", c.Len())
	}
}

func (o *Orchestrator) saveMetrics(s *session) {
	if !s.prepared {
		return
	}
	if err := o.metrics.Save(s.paths.Metrics(), s.paths.Name()); err != nil {
		o.logger.Warn("failed to save metrics", "error", err)
	}
}
