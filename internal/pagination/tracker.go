// Package pagination resolves printed page numbers from physical PDF page
// indices and noisy OCR detections.
package pagination

import (
	"log/slog"
)

// MaxPrintedPage bounds plausible printed page numbers; larger detections are
// treated as OCR noise.
const MaxPrintedPage = 2000

// Tracker locks the offset between physical and printed page numbers on the
// first plausible detection and enforces it afterwards. It never unlocks, so
// a wrong first detection propagates for the rest of the document.
type Tracker struct {
	offset int
	locked bool
	logger *slog.Logger
}

// NewTracker creates an unlocked tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger}
}

// Resolve returns the printed page for a physical page. detected <= 0 means
// no page number was detected. The boolean is false only while the offset is
// still unknown.
func (t *Tracker) Resolve(physical, detected int) (int, bool) {
	if detected > MaxPrintedPage {
		t.logger.Debug("ignoring implausible page number", "physical", physical, "detected", detected)
		detected = 0
	}
	if detected < 0 {
		detected = 0
	}

	if !t.locked {
		if detected == 0 {
			return 0, false
		}
		t.offset = detected - physical
		t.locked = true
		t.logger.Info("pagination offset locked", "offset", t.offset, "physical", physical, "printed", detected)
		return detected, true
	}

	expected := physical + t.offset
	if detected != 0 && detected != expected {
		t.logger.Warn("suspicious page number, using inferred",
			"physical", physical, "detected", detected, "expected", expected)
	}
	return expected, true
}

// Offset returns the locked offset.
func (t *Tracker) Offset() (int, bool) {
	return t.offset, t.locked
}

// Locked reports whether the offset is known.
func (t *Tracker) Locked() bool {
	return t.locked
}
