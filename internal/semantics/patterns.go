package semantics

import (
	"fmt"
	"regexp"
)

// Role is the semantic role assigned to a block of text.
type Role string

const (
	RoleUnknown       Role = "UNKNOWN"
	RolePageNumber    Role = "PAGE_NUMBER"
	RoleEquation      Role = "EQUATION"
	RoleChapter       Role = "CHAPTER"
	RoleSection       Role = "SECTION"
	RoleActivity      Role = "ACTIVITY"
	RoleExample       Role = "EXAMPLE"
	RoleFigureCaption Role = "FIGURE_CAPTION"
	RoleBody          Role = "BODY"

	// Sentinel roles for blocks that never go through OCR.
	RoleFigureBlock Role = "FIGURE_BLOCK"
	RoleTableBlock  Role = "TABLE_BLOCK"
)

// patternOrder is the priority in which the pattern table is consulted.
var patternOrder = []Role{
	RoleChapter,
	RoleSection,
	RoleActivity,
	RoleExample,
	RoleFigureCaption,
}

// Default expressions, tuned to CBSE/NCERT typography: all-caps chapter
// titles and "N.N" section numbering.
var defaultPatternSources = map[Role]string{
	RoleChapter:       `^[A-Z\s]{5,25}$`,
	RoleSection:       `^(?:\d+\.\d+|\d+\.\d+\.\d+|Exercise\s+\d+\.\d+)`,
	RoleActivity:      `(?i)^Activity\s+\d+`,
	RoleExample:       `(?i)^Example\s+\d+`,
	RoleFigureCaption: `(?i)^(?:Fig\.?|Figure)\s+\d+\.\d+`,
}

// Patterns is the ordered pattern table used by the classifier.
type Patterns struct {
	byRole map[Role]*regexp.Regexp
}

// DefaultPatterns returns the built-in pattern table.
func DefaultPatterns() Patterns {
	p, err := CompilePatterns(nil)
	if err != nil {
		panic(err)
	}
	return p
}

// CompilePatterns builds a pattern table. Overrides are keyed by role name
// (CHAPTER, SECTION, ACTIVITY, EXAMPLE, FIGURE_CAPTION); roles without an
// override use the default expression.
func CompilePatterns(overrides map[string]string) (Patterns, error) {
	p := Patterns{byRole: make(map[Role]*regexp.Regexp, len(patternOrder))}
	for _, role := range patternOrder {
		src := defaultPatternSources[role]
		if o, ok := overrides[string(role)]; ok && o != "" {
			src = o
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return Patterns{}, fmt.Errorf("invalid %s pattern %q: %w", role, src, err)
		}
		p.byRole[role] = re
	}
	for name := range overrides {
		if _, ok := defaultPatternSources[Role(name)]; !ok {
			return Patterns{}, fmt.Errorf("unknown pattern role: %s", name)
		}
	}
	return p, nil
}

// Match returns the first role whose pattern matches text.
func (p Patterns) Match(text string) (Role, bool) {
	for _, role := range patternOrder {
		if re := p.byRole[role]; re != nil && re.MatchString(text) {
			return role, true
		}
	}
	return "", false
}
