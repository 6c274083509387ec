package learn

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(d *fakeDriver, sink PatternSink) *Service {
	return NewService(d, sink, Config{Logger: quietLogger()})
}

func singleRulePattern(id, selector string) *Pattern {
	sel := Selector{Type: SelectorCSS, Value: selector, Role: "title", Confidence: initialConfidence}
	return &Pattern{
		ID:         id,
		Name:       "test title",
		Confidence: initialConfidence,
		Selectors:  []Selector{sel},
		Rules:      []Rule{{Field: "title", Selector: sel, Transform: TransformText, Required: true}},
	}
}

func TestRunValidation_NavigationFailure(t *testing.T) {
	// WHAT: Navigation failure short-circuits to zero confidence with the
	// error recorded.
	// WHY: A page that cannot load proves nothing about the selectors.
	d := &fakeDriver{failNav: map[string]bool{"https://down.example/": true}}
	s := testService(d, nil)

	v := s.runValidation(context.Background(), singleRulePattern("p1", "div.post h3"), "https://down.example/")
	if v.Success {
		t.Error("success: got true")
	}
	if v.ExtractedCount != 0 {
		t.Errorf("extracted: got %d", v.ExtractedCount)
	}
	if v.Confidence != 0 {
		t.Errorf("confidence: got %v", v.Confidence)
	}
	if len(v.Errors) != 1 || !strings.Contains(v.Errors[0], "down.example") {
		t.Errorf("errors: got %v", v.Errors)
	}
}

func TestRunValidation_CountsAndConfidence(t *testing.T) {
	// WHAT: Confidence scales linearly with match count, saturating at 10.
	d := &fakeDriver{counts: map[string]int{"div.post h3": 5}}
	s := testService(d, nil)

	v := s.runValidation(context.Background(), singleRulePattern("p1", "div.post h3"), "https://ok.example/")
	if !v.Success {
		t.Fatalf("success: got false, errors %v", v.Errors)
	}
	if v.ExtractedCount != 5 {
		t.Errorf("extracted: got %d, want 5", v.ExtractedCount)
	}
	if math.Abs(v.Confidence-0.5) > 1e-9 {
		t.Errorf("confidence: got %v, want 0.5", v.Confidence)
	}

	d.counts["div.post h3"] = 40
	v = s.runValidation(context.Background(), singleRulePattern("p2", "div.post h3"), "https://ok.example/")
	if v.Confidence != 1.0 {
		t.Errorf("saturated confidence: got %v, want 1.0", v.Confidence)
	}
}

func TestRunValidation_PartialRuleFailure(t *testing.T) {
	// WHAT: One bad selector doesn't abort the remaining rules, but any
	// rule error fails the validation as a whole.
	d := &fakeDriver{
		counts:   map[string]int{"div.post h3": 5},
		evalErrs: map[string]string{"div.bogus": "SyntaxError: invalid selector"},
	}
	s := testService(d, nil)

	p := singleRulePattern("p1", "div.post h3")
	badSel := Selector{Type: SelectorCSS, Value: "div.bogus", Role: "score"}
	p.Rules = append([]Rule{{Field: "score", Selector: badSel, Transform: TransformNumber, Required: true}}, p.Rules...)

	v := s.runValidation(context.Background(), p, "https://ok.example/")
	if len(v.Errors) != 1 {
		t.Fatalf("errors: got %v", v.Errors)
	}
	if v.ExtractedCount != 5 {
		t.Errorf("extracted: got %d, want 5 (good rule still counted)", v.ExtractedCount)
	}
	if v.Success {
		t.Error("success: got true, want false on any rule error")
	}
	if v.Confidence != 0 {
		t.Errorf("confidence: got %v, want 0", v.Confidence)
	}
}

func TestPatternConfidence_UnvalidatedPrior(t *testing.T) {
	// WHAT: Zero validations means the 0.5 uninformed prior.
	// WHY: An unvalidated-but-plausible pattern must stay listable.
	if got := patternConfidence(nil); got != 0.5 {
		t.Errorf("prior: got %v, want 0.5", got)
	}
}

func TestPatternConfidence_Blend(t *testing.T) {
	// WHAT: 0.7 x average run confidence + 0.3 x success fraction.
	vs := []Validation{
		{Success: true, Confidence: 1.0},
		{Success: false, Confidence: 0},
	}
	want := 0.7*0.5 + 0.3*0.5
	if got := patternConfidence(vs); math.Abs(got-want) > 1e-9 {
		t.Errorf("blend: got %v, want %v", got, want)
	}

	// All validations successful at full confidence reaches exactly 1.0.
	full := []Validation{
		{Success: true, Confidence: 1.0},
		{Success: true, Confidence: 1.0},
		{Success: true, Confidence: 1.0},
	}
	if got := patternConfidence(full); got != 1.0 {
		t.Errorf("full: got %v, want 1.0", got)
	}
}

func TestPatternConfidence_Bounds(t *testing.T) {
	// WHAT: Confidence never leaves [0,1] for any validation history.
	histories := [][]Validation{
		nil,
		{{Success: false}},
		{{Success: true, Confidence: 1}, {Success: false}, {Success: true, Confidence: 0.3}},
	}
	for _, vs := range histories {
		got := patternConfidence(vs)
		if got < 0 || got > 1 {
			t.Errorf("confidence out of bounds: %v for %v", got, vs)
		}
	}
}

func TestAppendValidation_UpdatesMeta(t *testing.T) {
	p := singleRulePattern("p1", "div.post h3")
	appendValidation(p, Validation{At: 1234, Success: true, ExtractedCount: 10, Confidence: 1.0})

	if len(p.Validations) != 1 {
		t.Fatalf("validations: got %d", len(p.Validations))
	}
	if p.Meta.LastValidated != 1234 {
		t.Errorf("last_validated: got %d", p.Meta.LastValidated)
	}
	if p.Meta.SuccessRate != 1.0 {
		t.Errorf("success_rate: got %v", p.Meta.SuccessRate)
	}
	if p.Confidence != 1.0 {
		t.Errorf("confidence: got %v", p.Confidence)
	}
}
