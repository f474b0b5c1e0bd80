package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Malay-RB/Document-parsing/internal/toc"
)

// SyncReport records where the table of contents and the content begin.
type SyncReport struct {
	PDFFilename      string `json:"pdf_filename"`
	TOCPages         []int  `json:"toc_pages"`
	ContentStartPage int    `json:"content_start_page"`
	AnchorUsed       string `json:"anchor_used"`
	RunID            string `json:"run_id,omitempty"`
}

// WriteTOC validates and writes the TOC entries as a JSON array.
func WriteTOC(path string, entries []toc.Entry) error {
	if entries == nil {
		entries = []toc.Entry{}
	}
	if err := ValidateValue(SchemaTOC, entries); err != nil {
		return err
	}
	return writeJSONAtomic(path, entries)
}

// ReadTOC loads TOC entries written by WriteTOC.
func ReadTOC(path string) ([]toc.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read TOC: %w", err)
	}
	if err := Validate(SchemaTOC, data); err != nil {
		return nil, err
	}
	var entries []toc.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode TOC: %w", err)
	}
	return entries, nil
}

// WriteSyncReport validates and writes the sync report.
func WriteSyncReport(path string, r SyncReport) error {
	if r.TOCPages == nil {
		r.TOCPages = []int{}
	}
	if err := ValidateValue(SchemaSyncReport, r); err != nil {
		return err
	}
	return writeJSONAtomic(path, r)
}
