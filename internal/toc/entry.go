// Package toc turns table-of-contents pages into an ordered chapter index and
// resolves content pages against it.
package toc

import (
	"github.com/Malay-RB/Document-parsing/internal/semantics"
)

// Entry is one chapter of the table of contents. Page numbers are printed
// page numbers; a nil EndPage means "until the next chapter" (or the end of
// the book for the last entry).
type Entry struct {
	UnitID      *int    `json:"unit_id"`
	UnitName    *string `json:"unit_name"`
	ChapterID   int     `json:"chapter_id"`
	ChapterName string  `json:"chapter_name"`
	StartPage   *int    `json:"start_page"`
	EndPage     *int    `json:"end_page"`
}

// Contains reports whether printed page p lies in the entry's range.
// Entries without a start page contain nothing.
func (e Entry) Contains(p int) bool {
	if e.StartPage == nil || p < *e.StartPage {
		return false
	}
	return e.EndPage == nil || p <= *e.EndPage
}

// Link converts the entry to the hierarchy fields attached to blocks.
func (e Entry) Link() semantics.TOCLink {
	id, name := e.ChapterID, e.ChapterName
	return semantics.TOCLink{
		UnitID:      e.UnitID,
		UnitName:    e.UnitName,
		ChapterID:   &id,
		ChapterName: &name,
	}
}

// BackfillEndPages sets each missing end page to the next entry's start page
// minus one. Entries followed by an entry without a start page are left
// open. Applying it twice changes nothing.
func BackfillEndPages(entries []Entry) {
	for i := 0; i+1 < len(entries); i++ {
		if entries[i].EndPage != nil {
			continue
		}
		next := entries[i+1].StartPage
		if next == nil || *next <= 0 {
			continue
		}
		end := *next - 1
		entries[i].EndPage = &end
	}
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
