// Package learn implements the pattern-learning and extraction-inference
// engine: learning-session lifecycle, interaction capture, selector
// generalization, extraction-rule synthesis, and pattern validation with
// confidence scoring.
//
// A learning session records a user teaching the system how to extract
// content from one site. From at least two concrete examples per field the
// synthesizer derives a generalized CSS selector and an extraction rule;
// the validator re-tests synthesized patterns against live pages and
// maintains a confidence score per pattern.
package learn

import (
	"time"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
)

// ActionKind discriminates the browser action recorded in an interaction.
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionClick      ActionKind = "click"
	ActionType       ActionKind = "type"
	ActionScreenshot ActionKind = "screenshot"
	ActionClose      ActionKind = "close"
	ActionExtract    ActionKind = "extract"
	ActionWait       ActionKind = "wait"
	ActionEvaluate   ActionKind = "evaluate"
)

// Action is the tagged-union parameter record of one browser step.
// Only fields relevant to the Kind are set.
type Action struct {
	Kind     ActionKind `json:"kind"`
	URL      string     `json:"url,omitempty"`
	Selector string     `json:"selector,omitempty"`
	Text     string     `json:"text,omitempty"`
	Field    string     `json:"field,omitempty"`
}

// Result is the outcome of one executed action.
type Result struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PageContext is the page state captured right after an action executed.
type PageContext struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Elements []browser.Element `json:"elements"`
}

// Interaction is the atomic recorded unit: one action, the element it
// targeted, its result, and the page context at capture time. Immutable
// once appended; owned exclusively by the session that recorded it.
type Interaction struct {
	At      time.Time        `json:"at"`
	Action  Action           `json:"action"`
	Element *browser.Element `json:"element,omitempty"`
	Result  Result           `json:"result"`
	Context PageContext      `json:"context"`
}

// Status is a session's lifecycle state. The machine progresses strictly
// forward: recording → analyzing → completed, with an error edge from
// recording or analyzing to failed. Completed and failed are terminal.
type Status string

const (
	StatusRecording Status = "recording"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// SessionMeta carries a session's counters and environment echo.
type SessionMeta struct {
	TotalInteractions     int    `json:"total_interactions"`
	SuccessfulExtractions int    `json:"successful_extractions"`
	ViewportWidth         int    `json:"viewport_width,omitempty"`
	ViewportHeight        int    `json:"viewport_height,omitempty"`
	UserAgent             string `json:"user_agent,omitempty"`
}

// Session is the unit of work for teaching one site. Interactions are
// appended in order while Status is recording; Patterns are filled by
// AnalyzeSession. Sessions live in the service's in-memory registry for
// the life of the process and are not persisted across restarts.
type Session struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Site         string        `json:"site"`
	URL          string        `json:"url"`
	Status       Status        `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Interactions []Interaction `json:"interactions"`
	Patterns     []*Pattern    `json:"patterns"`
	Meta         SessionMeta   `json:"meta"`
}

// SelectorType discriminates how a selector value is interpreted.
type SelectorType string

const (
	SelectorCSS           SelectorType = "css"
	SelectorXPath         SelectorType = "xpath"
	SelectorAccessibility SelectorType = "accessibility"
	SelectorText          SelectorType = "text"
)

// Selector is a generalized element locator with ordered fallbacks (the
// original concrete selectors it was derived from, at most three).
type Selector struct {
	Type       SelectorType `json:"type"`
	Value      string       `json:"value"`
	Role       string       `json:"role"` // semantic field name it targets
	Confidence float64      `json:"confidence"`
	Fallbacks  []string     `json:"fallbacks,omitempty"`
}

// Transform is the value coercion applied to a matched element's content.
type Transform string

const (
	TransformText   Transform = "text"
	TransformHref   Transform = "href"
	TransformNumber Transform = "number"
	TransformDate   Transform = "date"
)

// Rule is the executable part of a pattern: one extracted field.
type Rule struct {
	Field     string    `json:"field"`
	Selector  Selector  `json:"selector"`
	Transform Transform `json:"transform"`
	Required  bool      `json:"required"`
	Validate  string    `json:"validate,omitempty"` // optional regexp on extracted values
}

// PatternMeta tracks where a pattern came from and how it has fared.
type PatternMeta struct {
	LearnedFrom   int     `json:"learned_from"` // interaction count it was derived from
	SuccessRate   float64 `json:"success_rate"`
	LastValidated int64   `json:"last_validated,omitempty"` // unix millis
}

// Pattern is the synthesized, reusable artifact. After analysis completes,
// ownership transfers from the originating session to the process-wide
// pattern registry; Validations is append-only and Confidence is
// recomputed on every append.
type Pattern struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Confidence  float64      `json:"confidence"`
	Selectors   []Selector   `json:"selectors"`
	Rules       []Rule       `json:"rules"`
	Validations []Validation `json:"validations"`
	Meta        PatternMeta  `json:"meta"`
}

// Validation is one re-test of a pattern against a URL. Immutable once
// appended.
type Validation struct {
	At             int64    `json:"at"` // unix millis
	URL            string   `json:"url"`
	Success        bool     `json:"success"`
	ExtractedCount int      `json:"extracted_count"`
	ExpectedCount  int      `json:"expected_count,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// Extracted is one value pulled out of a page by ApplyPattern.
type Extracted struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Kind  string `json:"kind"` // element tag
}
