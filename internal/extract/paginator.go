package extract

import (
	"log/slog"
	"slices"

	"github.com/Malay-RB/Document-parsing/internal/pagination"
	"github.com/Malay-RB/Document-parsing/internal/semantics"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

// Page is one processed physical page.
type Page struct {
	PDFPage int
	Blocks  []semantics.Block
}

// Paginator holds pages back until the page-number offset is known.
//
// While the tracker is unlocked, pages are buffered. On the first page
// processed after the lock, the buffered pages get printed numbers
// (physical + offset), their hierarchy is resolved again with those
// numbers, and they are released in order ahead of the current page.
// From then on pages pass straight through.
type Paginator struct {
	tracker *pagination.Tracker
	matcher *toc.Matcher
	buffer  []Page
	logger  *slog.Logger
}

// NewPaginator creates a paginator. matcher may be nil.
func NewPaginator(tracker *pagination.Tracker, matcher *toc.Matcher, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{tracker: tracker, matcher: matcher, logger: logger}
}

// Add queues a page and returns the pages now ready for output.
func (p *Paginator) Add(page Page) []Page {
	if !p.tracker.Locked() {
		p.buffer = append(p.buffer, page)
		p.logger.Debug("page buffered until offset is known", "pdf_page", page.PDFPage, "pending", len(p.buffer))
		return nil
	}
	if len(p.buffer) == 0 {
		return []Page{page}
	}

	offset, _ := p.tracker.Offset()
	p.logger.Info("offset locked, releasing buffered pages", "offset", offset, "pages", len(p.buffer))
	out := make([]Page, 0, len(p.buffer)+1)
	for _, b := range p.buffer {
		out = append(out, p.renumber(b, b.PDFPage+offset, true))
	}
	p.buffer = nil
	return append(out, page)
}

// Flush releases any buffered pages numbered by their physical index. It is
// used at end of document (or on interruption) when no offset was found.
func (p *Paginator) Flush() []Page {
	if len(p.buffer) == 0 {
		return nil
	}
	if p.tracker.Locked() {
		offset, _ := p.tracker.Offset()
		out := make([]Page, len(p.buffer))
		for i, b := range p.buffer {
			out[i] = p.renumber(b, b.PDFPage+offset, true)
		}
		p.buffer = nil
		return out
	}

	p.logger.Warn("no printed page number found, using physical page numbers", "pages", len(p.buffer))
	out := make([]Page, len(p.buffer))
	for i, b := range p.buffer {
		out[i] = p.renumber(b, b.PDFPage, false)
	}
	p.buffer = nil
	return out
}

// Pending returns the number of buffered pages.
func (p *Paginator) Pending() int {
	return len(p.buffer)
}

// renumber stamps printed on every block of the page. With relink the
// hierarchy is resolved again against the new number.
func (p *Paginator) renumber(page Page, printed int, relink bool) Page {
	blocks := slices.Clone(page.Blocks)
	for i := range blocks {
		n := printed
		blocks[i].PrintedPage = &n
		if !relink {
			continue
		}
		if e, ok := p.matcher.Resolve(printed, true, blocks[i].Context.ChapterVerify); ok {
			blocks[i].Link = e.Link()
		} else {
			blocks[i].Link = semantics.TOCLink{}
		}
	}
	return Page{PDFPage: page.PDFPage, Blocks: blocks}
}
