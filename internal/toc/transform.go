package toc

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Defaults for line filtering.
const (
	DefaultMinLineLength  = 6
	DefaultMaxChapterJump = 5
	minNameLength         = 2
)

// DefaultNoise matches print-production lines that appear on scanned TOC
// pages: InDesign slugs, dates, clock times, roman folios, reprint notes
// and template placeholders such as "MONTH" or "CHAPTER TITLE".
var DefaultNoise = []string{
	`(?i)\.indd`,
	`\d{1,2}/\d{1,2}/\d{4}`,
	`\d{1,2}:\d{1,2}:\d{2}`,
	`(?i)^\(v+\)$`,
	`(?i)\b(?:preliminary|reprint)\b`,
	`(?i)month|chapter title`,
}

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	leaderRe     = regexp.MustCompile(`\.{2,}`)
	monthRe      = regexp.MustCompile(`(?i)\b(?:june|july|august|september|october|november|december)\b`)
	decimalRe    = regexp.MustCompile(`^\d+\.\d+`)
	chapterIDRe  = regexp.MustCompile(`^(\d+)\.?\s+`)
	pageRefRe    = regexp.MustCompile(`(?i)(\d+)(?:\s*(?:-|–|—|to)\s*(\d+))?$`)
	pageOnlyRe   = regexp.MustCompile(`(?i)^\d{1,4}(?:\s*(?:-|–|—|to)\s*\d{1,4})?$`)
	unitSplitRe  = regexp.MustCompile(`^([A-Za-z\s]+?)\s+(\d+)\.?\s+(.+)`)
	ctrlSpaceRe  = regexp.MustCompile(`[\n\r\t]+`)
	slashRe      = regexp.MustCompile(`[\\/]`)
	nameStripRe  = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\-&()]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// Rules controls how TOC lines become entries.
type Rules struct {
	MinLineLength  int
	MaxChapterJump int
	Noise          []*regexp.Regexp
}

// DefaultRules returns the rules tuned for school textbooks.
func DefaultRules() Rules {
	r, _ := NewRules(DefaultMinLineLength, DefaultMaxChapterJump, DefaultNoise)
	return r
}

// NewRules compiles noise patterns into Rules. Zero limits take defaults.
func NewRules(minLineLength, maxJump int, noise []string) (Rules, error) {
	if minLineLength <= 0 {
		minLineLength = DefaultMinLineLength
	}
	if maxJump <= 0 {
		maxJump = DefaultMaxChapterJump
	}
	r := Rules{MinLineLength: minLineLength, MaxChapterJump: maxJump}
	for _, p := range noise {
		re, err := regexp.Compile(p)
		if err != nil {
			return Rules{}, fmt.Errorf("invalid TOC noise pattern %q: %w", p, err)
		}
		r.Noise = append(r.Noise, re)
	}
	return r, nil
}

// Transform applies DefaultRules to lines grouped by page.
func Transform(pages [][]string) []Entry {
	return DefaultRules().Transform(pages, nil)
}

// Transform turns TOC lines (one slice per page, in reading order) into
// entries with back-filled end pages.
//
// A line becomes an entry when it starts with a chapter number no smaller
// than the previous one and at most MaxChapterJump above it. A trailing
// number or range is taken as the page reference. Lines of the form
// "<words> <n> <title>" open a unit; the unit stays active for the
// entries that follow.
func (r Rules) Transform(pages [][]string, logger *slog.Logger) []Entry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		entries  []Entry
		unitID   *int
		unitName *string
		last     int
	)

	for _, lines := range pages {
		for _, line := range mergePageRefs(lines) {
			if r.isNoise(line) {
				logger.Debug("skipping TOC noise line", "line", line)
				continue
			}
			cleaned := cleanLine(line)
			if utf8.RuneCountInString(cleaned) < r.MinLineLength || decimalRe.MatchString(cleaned) {
				continue
			}

			idm := chapterIDRe.FindStringSubmatchIndex(cleaned)
			if idm == nil {
				continue
			}
			candidate, err := strconv.Atoi(cleaned[idm[2]:idm[3]])
			if err != nil || candidate < last || candidate > last+r.MaxChapterJump {
				continue
			}

			var start, end *int
			rawName := cleaned[idm[1]:]
			if pm := pageRefRe.FindStringSubmatchIndex(cleaned); pm != nil {
				start = atoiPtr(cleaned[pm[2]:pm[3]])
				if pm[4] >= 0 {
					end = atoiPtr(cleaned[pm[4]:pm[5]])
				}
				if pm[0] >= idm[1] {
					rawName = cleaned[idm[1]:pm[0]]
				} else {
					rawName = ""
				}
			}

			name := SanitizeTitle(strings.Trim(strings.TrimSpace(rawName), " .-_"))
			if name == "" {
				continue
			}

			chapterID := candidate
			if m := unitSplitRe.FindStringSubmatch(name); m != nil {
				unitID = intPtr(candidate)
				unitName = strPtr(SanitizeTitle(strings.TrimSpace(m[1])))
				chapterID, _ = strconv.Atoi(m[2])
				name = SanitizeTitle(strings.TrimSpace(m[3]))
			}
			if utf8.RuneCountInString(name) < minNameLength {
				continue
			}

			e := Entry{
				UnitID:      unitID,
				UnitName:    unitName,
				ChapterID:   chapterID,
				ChapterName: name,
				StartPage:   start,
				EndPage:     end,
			}
			logger.Debug("identified TOC entry", "chapter", chapterID, "name", name, "start_page", ptrAttr(start))
			entries = append(entries, e)
			last = chapterID
		}
	}

	BackfillEndPages(entries)
	return entries
}

// mergePageRefs appends page-number-only lines to a preceding line that
// starts with a chapter number. OCR often splits the page column from the
// title when the leader dots are faint.
func mergePageRefs(lines []string) []string {
	var out []string
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if pageOnlyRe.MatchString(s) && len(out) > 0 {
			prev := strings.TrimSpace(out[len(out)-1])
			if chapterIDRe.MatchString(prev) {
				out[len(out)-1] = prev + " " + s
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func (r Rules) isNoise(line string) bool {
	for _, re := range r.Noise {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func cleanLine(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = leaderRe.ReplaceAllString(s, " ")
	// Reprint dates in the slug line ("December 2023") leak into rows.
	s = monthRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeTitle keeps letters, digits, whitespace, '_', '-', '&' and
// parentheses, and collapses runs of whitespace.
func SanitizeTitle(s string) string {
	s = ctrlSpaceRe.ReplaceAllString(s, " ")
	s = slashRe.ReplaceAllString(s, " ")
	s = nameStripRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func ptrAttr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
