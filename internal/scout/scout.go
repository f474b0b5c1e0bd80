// Package scout locates the table of contents at the front of a book and
// the first content page that follows it.
package scout

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Malay-RB/Document-parsing/internal/layout"
	"github.com/Malay-RB/Document-parsing/internal/providers"
	"github.com/Malay-RB/Document-parsing/internal/toc"
)

// ErrNoAnchor is returned by Sync when no anchor was captured.
var ErrNoAnchor = errors.New("sync anchor is empty")

// DefaultKeywords trigger TOC discovery when found in a page's first box.
var DefaultKeywords = []string{"content", "contents", "index"}

// Crop padding for the scout header read and the sync heading reads.
var (
	ScoutPadding = providers.Padding{X: 5, Y: 5}
	SyncPadding  = providers.Padding{X: 5, Y: 20}
)

// Sync search window: the first SyncBoxes boxes whose top lies in the upper
// SyncBand of the page.
const (
	SyncBoxes = 3
	SyncBand  = 0.3
)

var headingLabels = map[string]bool{
	layout.LabelSectionHeader: true,
	layout.LabelText:          true,
	layout.LabelTitle:         true,
	layout.LabelPageHeader:    true,
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Scout detects TOC trigger pages.
type Scout struct {
	reader   providers.BoxReader
	keywords []string
	logger   *slog.Logger
}

// NewScout creates a scout. Empty keywords use DefaultKeywords.
func NewScout(reader providers.BoxReader, keywords []string, logger *slog.Logger) *Scout {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if logger == nil {
		logger = slog.Default()
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return &Scout{reader: reader, keywords: lower, logger: logger}
}

// Scout reads the page's first box and reports whether it contains a
// trigger keyword. The header text is returned on a trigger.
func (s *Scout) Scout(ctx context.Context, page image.Image, boxes []layout.Box, pageNo int) (bool, string, error) {
	if len(boxes) == 0 {
		return false, "", nil
	}
	text, err := s.reader.ReadText(ctx, page, boxes[0].BBox, ScoutPadding)
	if err != nil {
		return false, "", fmt.Errorf("scout page %d: %w", pageNo, err)
	}
	header := strings.ToLower(strings.TrimSpace(text))
	s.logger.Info("scouted page header", "page", pageNo, "header", header)

	for _, k := range s.keywords {
		if k != "" && strings.Contains(header, k) {
			s.logger.Info("TOC trigger found", "page", pageNo, "keyword", k)
			return true, header, nil
		}
	}
	return false, "", nil
}

// Syncer finds the first content page by looking for the anchor (the first
// chapter's title) near the top of each page.
type Syncer struct {
	reader providers.BoxReader
	logger *slog.Logger
}

// NewSyncer creates a syncer.
func NewSyncer(reader providers.BoxReader, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{reader: reader, logger: logger}
}

// Sync reports whether the anchor appears in one of the page's top heading
// boxes.
func (s *Syncer) Sync(ctx context.Context, page image.Image, boxes []layout.Box, anchor string) (bool, error) {
	anchor = strings.ToLower(strings.TrimSpace(anchor))
	if anchor == "" {
		return false, ErrNoAnchor
	}
	limit := float64(page.Bounds().Dy()) * SyncBand

	for i, b := range boxes[:min(len(boxes), SyncBoxes)] {
		if !headingLabels[b.Label] || float64(b.BBox.Y1) >= limit {
			continue
		}
		text, err := s.reader.ReadText(ctx, page, b.BBox, SyncPadding)
		if err != nil {
			return false, fmt.Errorf("sync box %d: %w", i+1, err)
		}
		detected := strings.ToLower(strings.TrimSpace(text))
		if utf8.RuneCountInString(detected) <= 3 {
			continue
		}
		s.logger.Debug("sync candidate", "box", i+1, "anchor", anchor, "detected", detected)
		if AnchorMatches(anchor, detected) {
			s.logger.Info("sync anchor matched", "anchor", anchor, "detected", detected)
			return true, nil
		}
	}
	return false, nil
}

// AnchorMatches compares lower-cased anchor and detected heading text: either
// contains the other, or every word of the anchor occurs in the heading.
func AnchorMatches(anchor, detected string) bool {
	if anchor == "" || detected == "" {
		return false
	}
	if strings.Contains(detected, anchor) || strings.Contains(anchor, detected) {
		return true
	}
	want := wordRe.FindAllString(anchor, -1)
	if len(want) == 0 {
		return false
	}
	have := make(map[string]bool)
	for _, w := range wordRe.FindAllString(detected, -1) {
		have[w] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}

// CaptureAnchor returns the lower-cased name of the first TOC entry.
func CaptureAnchor(entries []toc.Entry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	anchor := strings.ToLower(strings.TrimSpace(entries[0].ChapterName))
	return anchor, anchor != ""
}
