package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Malay-RB/Document-parsing/internal/semantics"
)

// maxLineSize bounds one staged record.
const maxLineSize = 16 << 20

// Stager appends extraction records to a JSON lines file as pages are
// released, so an interrupted run keeps everything written so far.
type Stager struct {
	path  string
	f     *os.File
	w     *bufio.Writer
	enc   *json.Encoder
	count int
}

// OpenStager creates (or truncates) the staging file at path.
func OpenStager(path string) (*Stager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Stager{path: path, f: f, w: w, enc: enc}, nil
}

// Write appends records and flushes them to the file.
func (s *Stager) Write(records []semantics.Record) error {
	for _, r := range records {
		if err := s.enc.Encode(r); err != nil {
			return fmt.Errorf("failed to stage record %s: %w", r.ID, err)
		}
		s.count++
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush staging file: %w", err)
	}
	return nil
}

// Count returns the number of records written.
func (s *Stager) Count() int { return s.count }

// Path returns the staging file path.
func (s *Stager) Path() string { return s.path }

// Close flushes and closes the staging file. It is safe to call twice.
func (s *Stager) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.w.Flush()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	s.f = nil
	return err
}

// Consolidation reports what Consolidate wrote.
type Consolidation struct {
	Records int
	// Skipped lists the staging line numbers that were dropped because they
	// were truncated or failed the record schema.
	Skipped []int
}

// Consolidate converts the staging file into the final JSON array at
// resultPath. Every line is validated against the record schema; invalid
// or truncated lines are skipped and reported in the returned
// Consolidation. The result is written to a temporary file and renamed
// into place, and the staging file is removed only after that succeeds.
func Consolidate(stagingPath, resultPath string, logger *slog.Logger) (Consolidation, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var c Consolidation
	f, err := os.Open(stagingPath)
	if err != nil {
		return c, fmt.Errorf("failed to open staging file: %w", err)
	}
	defer f.Close()

	records := []json.RawMessage{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := Validate(SchemaRecord, raw); err != nil {
			logger.Error("dropping invalid staged record", "line", line, "error", err)
			c.Skipped = append(c.Skipped, line)
			continue
		}
		records = append(records, json.RawMessage(bytes.Clone(raw)))
	}
	if err := scanner.Err(); err != nil {
		return c, fmt.Errorf("failed to read staging file: %w", err)
	}

	if err := writeJSONAtomic(resultPath, records); err != nil {
		return c, err
	}
	c.Records = len(records)
	f.Close()
	if err := os.Remove(stagingPath); err != nil {
		logger.Warn("failed to remove staging file", "path", stagingPath, "error", err)
	}
	logger.Info("results consolidated", "path", resultPath, "records", c.Records, "skipped", len(c.Skipped))
	return c, nil
}

// writeJSONAtomic writes v as indented JSON through a temporary file in the
// target directory.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
