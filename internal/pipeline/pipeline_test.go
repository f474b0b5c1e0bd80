package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"os"
	"reflect"
	"testing"

	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/output"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
)

type fakeSource struct {
	pages  int
	opened string
	closed bool
	loads  []int
	onLoad func(n int)
}

func (f *fakeSource) Open(path string) error { f.opened = path; return nil }
func (f *fakeSource) TotalPages() int        { return f.pages }
func (f *fakeSource) Close() error           { f.closed = true; return nil }

func (f *fakeSource) LoadPage(ctx context.Context, n int) (image.Image, error) {
	f.loads = append(f.loads, n)
	if f.onLoad != nil {
		f.onLoad(n)
	}
	return image.NewGray(image.Rect(0, 0, 1000, 1000)), nil
}

var (
	rCover = layout.R(100, 100, 900, 200)
	rHead  = layout.R(100, 40, 900, 100)
	rHead3 = layout.R(100, 50, 900, 110)
	rNum   = layout.R(450, 20, 550, 60)
	rTitle = layout.R(100, 200, 900, 260)
	rBody  = layout.R(100, 300, 900, 400)
)

func box(r layout.Rect, label string) layout.Box {
	return layout.Box{BBox: r, Label: label, Score: 0.9}
}

var (
	tocPage1 = []providers.Element{
		{Text: "Contents", BBox: layout.R(60, 10, 200, 30)},
		{Text: "1. Matter", BBox: layout.R(60, 60, 300, 80)},
		{Text: "1", BBox: layout.R(700, 62, 710, 80)},
		{Text: "2. Motion", BBox: layout.R(60, 110, 300, 130)},
		{Text: "3", BBox: layout.R(700, 112, 710, 130)},
	}
	tocPage2 = []providers.Element{
		{Text: "3. Force", BBox: layout.R(60, 60, 300, 80)},
		{Text: "9", BBox: layout.R(700, 62, 710, 80)},
	}
)

// book is a six page document: a cover, two TOC pages and three content
// pages printed as 1, 2 and 3.
type book struct {
	src *fakeSource
	lay *providers.MockLayout
	ocr *providers.MockOCR
	rd  *providers.MockBoxReader
}

func newBook(pages ...[]layout.Box) *book {
	rd := providers.NewMockBoxReader()
	rd.Text[rCover] = "My Science Book"
	rd.Text[rHead] = "Contents"
	rd.Text[rHead3] = "Answers and hints"
	rd.Text[rNum] = "1"
	rd.Text[rTitle] = "MATTER"
	rd.Text[rBody] = "Everything around us is made of matter."
	return &book{
		src: &fakeSource{pages: 6},
		lay: &providers.MockLayout{Pages: pages},
		ocr: &providers.MockOCR{Elements: [][]providers.Element{tocPage1, tocPage1, tocPage2}},
		rd:  rd,
	}
}

var (
	pCover   = []layout.Box{box(rCover, layout.LabelTitle)}
	pTOC1    = []layout.Box{box(rHead, layout.LabelSectionHeader)}
	pTOC2    = []layout.Box{box(rHead3, layout.LabelSectionHeader)}
	pOpening = []layout.Box{box(rNum, layout.LabelPageHeader), box(rTitle, layout.LabelTitle), box(rBody, layout.LabelText)}
	pBody    = []layout.Box{box(rBody, layout.LabelText)}
)

// standardBook scripts layout calls in order: four front matter pages,
// then the stream's pages starting again at the anchor page.
func standardBook() *book {
	return newBook(pCover, pTOC1, pTOC2, pOpening, pOpening, pBody, pBody)
}

func newTestOrchestrator(t *testing.T, b *book, mod func(*Options)) *Orchestrator {
	t.Helper()
	opts := Options{
		Source:     b.src,
		Models:     providers.Models{Layout: b.lay, OCR: b.ocr},
		Reader:     b.rd,
		GCInterval: -1,
		RunID:      "run-1",
		Logger:     slog.New(slog.DiscardHandler),
	}
	if mod != nil {
		mod(&opts)
	}
	o, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func readRecords(t *testing.T, path string) []semantics.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var records []semantics.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return records
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestOrchestrator_Run(t *testing.T) {
	b := standardBook()
	out := t.TempDir()
	o := newTestOrchestrator(t, b, func(opts *Options) { opts.Debug = true })

	res, err := o.Run(context.Background(), "input/book.pdf", out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !b.src.closed || b.src.opened != "input/book.pdf" {
		t.Errorf("source opened=%q closed=%v", b.src.opened, b.src.closed)
	}
	if !reflect.DeepEqual(res.TOCPages, []int{2, 3}) || res.StartPage != 4 || res.Anchor != "matter" {
		t.Errorf("sync = pages %v start %d anchor %q", res.TOCPages, res.StartPage, res.Anchor)
	}
	if res.TOCEntries != 3 || res.Pages != 3 || res.Records != 4 || res.Interrupted {
		t.Errorf("unexpected result: %+v", res)
	}

	records := readRecords(t, res.ResultPath)
	wantIDs := []string{"uNone_c1_p1_b1", "uNone_c1_p1_b2", "uNone_c1_p2_b3", "uNone_c2_p3_b4"}
	if len(records) != len(wantIDs) {
		t.Fatalf("expected %d records, got %d", len(wantIDs), len(records))
	}
	for i, id := range wantIDs {
		if records[i].ID != id {
			t.Errorf("record %d id = %q, want %q", i, records[i].ID, id)
		}
	}
	if records[0].SemanticRole != semantics.RoleChapter || records[0].PDFPage != 4 {
		t.Errorf("first record = %+v", records[0])
	}

	paths := output.NewPaths(out, "book.pdf")
	entries, err := output.ReadTOC(paths.TOC())
	if err != nil || len(entries) != 3 {
		t.Errorf("TOC file: %d entries, err %v", len(entries), err)
	}

	var report output.SyncReport
	data, err := os.ReadFile(paths.SyncReport())
	if err != nil {
		t.Fatalf("read sync report: %v", err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode sync report: %v", err)
	}
	if report.ContentStartPage != 4 || report.AnchorUsed != "matter" || report.RunID != "run-1" || report.PDFFilename != "book" {
		t.Errorf("sync report = %+v", report)
	}

	if exists(paths.Staging()) {
		t.Error("staging file should be removed after consolidation")
	}
	for _, p := range []string{
		paths.Metrics(),
		paths.Debug(output.PhaseScout),
		paths.Debug(output.PhaseTOC),
		paths.Debug(output.PhaseLayout),
	} {
		if !exists(p) {
			t.Errorf("missing artifact %s", p)
		}
	}
}

func TestOrchestrator_TriggerNotFound(t *testing.T) {
	b := newBook(pCover, pCover, pCover, pCover, pCover, pCover)
	out := t.TempDir()
	o := newTestOrchestrator(t, b, func(opts *Options) { opts.ScoutLimit = 3 })

	_, err := o.Run(context.Background(), "book.pdf", out)
	if !errors.Is(err, ErrTriggerNotFound) {
		t.Fatalf("expected ErrTriggerNotFound, got %v", err)
	}
	if !reflect.DeepEqual(b.src.loads, []int{1, 2, 3}) {
		t.Errorf("pages loaded = %v, want scouting to stop at the limit", b.src.loads)
	}
	if !b.src.closed {
		t.Error("source not closed")
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("unexpected artifact %s", e.Name())
	}
}

func TestOrchestrator_AnchorNotFound(t *testing.T) {
	b := newBook(pTOC1, pTOC2, pTOC2, pTOC2, pTOC2, pTOC2)
	o := newTestOrchestrator(t, b, func(opts *Options) { opts.SyncLimit = 2 })

	_, err := o.Run(context.Background(), "book.pdf", t.TempDir())
	if !errors.Is(err, ErrAnchorNotFound) {
		t.Fatalf("expected ErrAnchorNotFound, got %v", err)
	}
	if !reflect.DeepEqual(b.src.loads, []int{1, 2, 3}) {
		t.Errorf("pages loaded = %v", b.src.loads)
	}
}

func TestOrchestrator_AnchorNotFoundAtEnd(t *testing.T) {
	b := newBook(pTOC1, pTOC2, pTOC2, pTOC2, pTOC2, pTOC2)
	o := newTestOrchestrator(t, b, nil)

	_, err := o.Sync(context.Background(), "book.pdf", t.TempDir())
	if !errors.Is(err, ErrAnchorNotFound) {
		t.Fatalf("expected ErrAnchorNotFound, got %v", err)
	}
}

func TestOrchestrator_AnchorCaptureFailure(t *testing.T) {
	b := newBook(pTOC1, pTOC1, pOpening)
	b.ocr.Elements = [][]providers.Element{nil, tocPage1}
	out := t.TempDir()
	o := newTestOrchestrator(t, b, nil)

	report, err := o.Sync(context.Background(), "book.pdf", out)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !reflect.DeepEqual(report.TOCPages, []int{2}) || report.ContentStartPage != 3 {
		t.Errorf("report = %+v, want the first trigger discarded", report)
	}
	if b.ocr.ElementCalls != 2 {
		t.Errorf("probe calls = %d, want 2", b.ocr.ElementCalls)
	}
}

func TestOrchestrator_Sync(t *testing.T) {
	b := standardBook()
	out := t.TempDir()
	o := newTestOrchestrator(t, b, nil)

	report, err := o.Sync(context.Background(), "book.pdf", out)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	want := output.SyncReport{PDFFilename: "book", TOCPages: []int{2, 3}, ContentStartPage: 4, AnchorUsed: "matter", RunID: "run-1"}
	if !reflect.DeepEqual(*report, want) {
		t.Errorf("report = %+v, want %+v", *report, want)
	}

	paths := output.NewPaths(out, "book.pdf")
	if !exists(paths.SyncReport()) {
		t.Error("sync report not written")
	}
	if exists(paths.Result()) || exists(paths.TOC()) {
		t.Error("sync should not write extraction artifacts")
	}
}

func TestOrchestrator_TOC(t *testing.T) {
	b := newBook()
	b.ocr.Elements = [][]providers.Element{tocPage1, tocPage2}
	out := t.TempDir()
	o := newTestOrchestrator(t, b, nil)

	if _, err := o.TOC(context.Background(), "book.pdf", out, nil); err == nil {
		t.Error("expected error without pages")
	}

	entries, err := o.TOC(context.Background(), "book.pdf", out, []int{2, 3})
	if err != nil {
		t.Fatalf("TOC() error = %v", err)
	}
	if len(entries) != 3 || entries[2].ChapterName != "Force" {
		t.Errorf("entries = %+v", entries)
	}
	if !reflect.DeepEqual(b.src.loads, []int{2, 3}) {
		t.Errorf("pages loaded = %v", b.src.loads)
	}
	if !exists(output.NewPaths(out, "book.pdf").TOC()) {
		t.Error("TOC JSON not written")
	}
}

func TestOrchestrator_InterruptFlushesBuffer(t *testing.T) {
	pUnnumbered := []layout.Box{box(rTitle, layout.LabelTitle), box(rBody, layout.LabelText)}
	b := newBook(pCover, pTOC1, pTOC2, pUnnumbered, pUnnumbered, pBody, pBody)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.src.onLoad = func(n int) {
		if n == 5 {
			cancel()
		}
	}
	o := newTestOrchestrator(t, b, nil)

	res, err := o.Run(ctx, "book.pdf", t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !res.Interrupted || res.Pages != 2 {
		t.Errorf("result = %+v", res)
	}

	records := readRecords(t, res.ResultPath)
	wantPages := []int{4, 4, 5}
	if len(records) != len(wantPages) {
		t.Fatalf("expected %d flushed records, got %d", len(wantPages), len(records))
	}
	for i, p := range wantPages {
		if records[i].PageNumber == nil || *records[i].PageNumber != p {
			t.Errorf("record %d page = %v, want physical %d", i, records[i].PageNumber, p)
		}
	}
}

func TestOrchestrator_LateFolioNumbersBelowOne(t *testing.T) {
	// The first folio appears on physical page 6 as "1", so the buffered
	// pages 4 and 5 resolve to -1 and 0.
	pUnnumbered := []layout.Box{box(rTitle, layout.LabelTitle), box(rBody, layout.LabelText)}
	b := newBook(pCover, pTOC1, pTOC2, pUnnumbered, pUnnumbered, pUnnumbered, pOpening)
	o := newTestOrchestrator(t, b, nil)

	res, err := o.Run(context.Background(), "book.pdf", t.TempDir())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Dropped != 0 {
		t.Errorf("dropped %d records", res.Dropped)
	}

	records := readRecords(t, res.ResultPath)
	wantPages := []int{-1, -1, 0, 0, 1, 1}
	if len(records) != len(wantPages) || res.Records != len(wantPages) {
		t.Fatalf("expected %d records, got %d (result says %d)", len(wantPages), len(records), res.Records)
	}
	for i, p := range wantPages {
		if records[i].PageNumber == nil || *records[i].PageNumber != p {
			t.Errorf("record %d page = %v, want %d", i, records[i].PageNumber, p)
		}
	}
}

func TestNew(t *testing.T) {
	b := standardBook()
	if _, err := New(Options{Models: providers.Models{Layout: b.lay, OCR: b.ocr}}); err == nil {
		t.Error("expected error without a source")
	}
	if _, err := New(Options{Source: b.src, Models: providers.Models{OCR: b.ocr}}); err == nil {
		t.Error("expected error without a layout detector")
	}

	o, err := New(Options{Source: b.src, Models: providers.Models{Layout: b.lay, OCR: b.ocr}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if o.RunID() == "" {
		t.Error("expected a generated run id")
	}
	if o.opts.ScoutLimit != DefaultScoutLimit || o.opts.SyncLimit != DefaultSyncLimit {
		t.Errorf("limits = %d/%d", o.opts.ScoutLimit, o.opts.SyncLimit)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhaseScouting:  "scouting",
		PhaseBuffering: "buffering",
		PhaseScholar:   "scholar",
		Phase(9):       "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
