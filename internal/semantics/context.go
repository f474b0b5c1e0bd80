package semantics

import (
	"strings"
	"unicode/utf8"
)

// Context is a snapshot of the running document hierarchy.
// Empty strings mean "not yet seen".
type Context struct {
	Chapter       string `json:"chapter,omitempty"`
	Section       string `json:"section,omitempty"`
	Activity      string `json:"activity,omitempty"`
	Example       string `json:"example,omitempty"`
	ChapterVerify string `json:"current_chapter_verify,omitempty"`
}

// ContextTracker advances the hierarchy as classified blocks arrive in
// document order.
type ContextTracker struct {
	state Context
}

func NewContextTracker() *ContextTracker {
	return &ContextTracker{}
}

// Update applies one classified block. Text shorter than two characters
// after trimming is ignored.
//
// A new chapter resets section, activity and example; a repeated chapter
// (running page headers) changes nothing. A new section resets activity and
// example.
func (t *ContextTracker) Update(role Role, text string) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 2 {
		return
	}
	switch role {
	case RoleChapter:
		if t.state.Chapter == text {
			return
		}
		t.state = Context{Chapter: text, ChapterVerify: text}
	case RoleSection:
		if t.state.Section == text {
			return
		}
		t.state.Section = text
		t.state.Activity = ""
		t.state.Example = ""
	case RoleActivity:
		t.state.Activity = text
	case RoleExample:
		t.state.Example = text
	}
}

// Snapshot returns a copy of the current state.
func (t *ContextTracker) Snapshot() Context {
	return t.state
}
