package learn

import (
	"strings"
	"unicode"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
)

// Matcher resolves a free-text element description against a snapshot.
// It is a swappable strategy: the default is fuzzy keyword matching, but
// better matchers (embeddings, learned rankers) can be substituted without
// touching the session manager.
type Matcher interface {
	// Match returns the first element satisfying the description, in
	// snapshot order (first-match, not best-scored).
	Match(description string, els []browser.Element) (browser.Element, bool)
	// MatchAll returns every element satisfying the description, used to
	// seed multiple training examples of the same field at once.
	MatchAll(description string, els []browser.Element) []browser.Element
}

// KeywordMatcher matches in strict priority order:
//
//  1. case-insensitive substring match of the description against the
//     element's visible text or accessible name;
//  2. role fallback keyed on description keywords ("link"/"title" → link,
//     "button" → button, "score"/"point" → element containing digits);
//  3. no match.
//
// The tiers do not mix: if tier 1 matches anything, tier 2 is never
// consulted.
type KeywordMatcher struct{}

func (KeywordMatcher) Match(description string, els []browser.Element) (browser.Element, bool) {
	if m := textMatches(description, els); len(m) > 0 {
		return m[0], true
	}
	if m := roleMatches(description, els); len(m) > 0 {
		return m[0], true
	}
	return browser.Element{}, false
}

func (KeywordMatcher) MatchAll(description string, els []browser.Element) []browser.Element {
	if m := textMatches(description, els); len(m) > 0 {
		return m
	}
	return roleMatches(description, els)
}

func textMatches(description string, els []browser.Element) []browser.Element {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return nil
	}
	var out []browser.Element
	for _, el := range els {
		if strings.Contains(strings.ToLower(el.Text), desc) ||
			strings.Contains(strings.ToLower(el.Name), desc) {
			out = append(out, el)
		}
	}
	return out
}

func roleMatches(description string, els []browser.Element) []browser.Element {
	desc := strings.ToLower(description)

	switch {
	case strings.Contains(desc, "link") || strings.Contains(desc, "title"):
		return withRole(els, browser.RoleLink)
	case strings.Contains(desc, "button"):
		return withRole(els, browser.RoleButton)
	case strings.Contains(desc, "score") || strings.Contains(desc, "point"):
		var out []browser.Element
		for _, el := range els {
			if containsDigits(el.Text) {
				out = append(out, el)
			}
		}
		return out
	}
	return nil
}

func withRole(els []browser.Element, role browser.Role) []browser.Element {
	var out []browser.Element
	for _, el := range els {
		if el.Role == role {
			out = append(out, el)
		}
	}
	return out
}

func containsDigits(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
