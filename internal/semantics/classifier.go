// Package semantics classifies OCR text into semantic roles and tracks the
// running chapter/section hierarchy of a document.
package semantics

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// pageNumberMaxRunes bounds the length of text that may be read as a page number.
const pageNumberMaxRunes = 15

// mathChars mark text as LaTeX-structured.
const mathChars = `\^_{}`

var (
	tagRe        = regexp.MustCompile(`<.*?>`)
	latexSigRe   = regexp.MustCompile(`\\[a-zA-Z]+|[\^{}$]`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
	digitRunRe   = regexp.MustCompile(`\d+`)
	mathrmRe     = regexp.MustCompile(`\\mathrm\{+(.*?)\}+`)
	noiseTailRe  = regexp.MustCompile(`[\s~\\{}]{5,}$`)
	tildeRunRe   = regexp.MustCompile(`~+`)
	emptyGroupRe = regexp.MustCompile(`\{+\s*\}+`)
)

// Result is the outcome of classifying one block of text.
type Result struct {
	Role      Role
	CleanText string
	// PageNumber is set only when Role is RolePageNumber.
	PageNumber int
}

// Classifier assigns semantic roles to block text. It is stateless per call.
type Classifier struct {
	patterns Patterns
}

// NewClassifier creates a classifier over the given pattern table.
func NewClassifier(p Patterns) *Classifier {
	if p.byRole == nil {
		p = DefaultPatterns()
	}
	return &Classifier{patterns: p}
}

// Classify cleans raw OCR text and assigns it a role. Checks run in order:
// short numeric text is a page number, math-structured text is an equation,
// then the pattern table, then BODY. Empty text is UNKNOWN.
//
// A short label that matches the pattern table ("Exercise 4.1") or carries
// math structure is never read as a page number.
func (c *Classifier) Classify(raw string) Result {
	cleaned := CleanText(raw)
	if cleaned == "" {
		return Result{Role: RoleUnknown}
	}

	role, matched := c.patterns.Match(cleaned)
	hasMath := strings.ContainsAny(cleaned, mathChars)

	if !matched && !hasMath && utf8.RuneCountInString(cleaned) < pageNumberMaxRunes {
		if run := digitRunRe.FindString(cleaned); run != "" {
			if n, err := strconv.Atoi(run); err == nil {
				return Result{Role: RolePageNumber, CleanText: cleaned, PageNumber: n}
			}
		}
	}

	if hasMath {
		return Result{Role: RoleEquation, CleanText: cleaned}
	}
	if matched {
		return Result{Role: role, CleanText: cleaned}
	}
	return Result{Role: RoleBody, CleanText: cleaned}
}

// CleanText strips markup and control characters, repairs LaTeX OCR noise
// when the text looks like LaTeX, and collapses whitespace.
func CleanText(raw string) string {
	text := tagRe.ReplaceAllString(raw, "")
	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, text)

	if latexSigRe.MatchString(text) {
		text = CleanLaTeXNoise(text)
	}

	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanLaTeXNoise removes artifacts LaTeX OCR engines commonly emit:
// \mathrm wrappers, trailing brace/tilde runs, alignment spacing and empty
// groups.
func CleanLaTeXNoise(text string) string {
	if text == "" {
		return text
	}
	text = mathrmRe.ReplaceAllString(text, "$1")
	text = noiseTailRe.ReplaceAllString(text, "")
	text = tildeRunRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, `\qquad`, " ")
	text = strings.ReplaceAll(text, `\quad`, " ")
	text = strings.ReplaceAll(text, "&", " ")
	text = emptyGroupRe.ReplaceAllString(text, "")
	return text
}
