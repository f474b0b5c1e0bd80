package toc

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultFuzzyCutoff is the minimum similarity ratio for a chapter-name match.
const DefaultFuzzyCutoff = 0.6

var chapterPrefixRe = regexp.MustCompile(`CHAPTER\s+\d+\s+`)

// Matcher resolves content pages to TOC entries. It never fails: no match
// yields ok=false.
type Matcher struct {
	entries []Entry
	names   []string
	byName  map[string]int
	cutoff  float64
}

// NewMatcher indexes entries. Later entries win when two chapter names
// normalize to the same key.
func NewMatcher(entries []Entry) *Matcher {
	m := &Matcher{
		entries: entries,
		byName:  make(map[string]int),
		cutoff:  DefaultFuzzyCutoff,
	}
	for i, e := range entries {
		if e.ChapterName == "" {
			continue
		}
		key := chapterPrefixRe.ReplaceAllString(strings.ToUpper(e.ChapterName), "")
		if _, seen := m.byName[key]; !seen {
			m.names = append(m.names, key)
		}
		m.byName[key] = i
	}
	return m
}

// Len returns the number of indexed entries.
func (m *Matcher) Len() int {
	return len(m.entries)
}

// Entries returns the indexed entries.
func (m *Matcher) Entries() []Entry {
	return m.entries
}

// Resolve finds the entry for a block. The printed page is tried first
// against entry ranges; failing that, verify (the running chapter heading)
// is fuzzy-matched against chapter names.
func (m *Matcher) Resolve(printed int, hasPrinted bool, verify string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	if hasPrinted {
		for _, e := range m.entries {
			if e.Contains(printed) {
				return e, true
			}
		}
	}
	if strings.TrimSpace(verify) == "" {
		return Entry{}, false
	}
	query := strings.TrimSpace(chapterPrefixRe.ReplaceAllString(strings.ToUpper(verify), ""))
	if key, ok := closestMatch(query, m.names, m.cutoff); ok {
		return m.entries[m.byName[key]], true
	}
	return Entry{}, false
}

// closestMatch returns the candidate most similar to word by
// SequenceMatcher ratio, if it reaches cutoff. Ties go to the
// lexicographically greater candidate.
func closestMatch(word string, candidates []string, cutoff float64) (string, bool) {
	b := chars(word)
	best, bestScore := "", -1.0
	for _, c := range candidates {
		score := difflib.NewMatcher(chars(c), b).Ratio()
		if score < cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && c > best) {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= 0
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
