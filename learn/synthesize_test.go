package learn

import (
	"testing"
)

func extractInteraction(field, selector string) Interaction {
	return Interaction{
		Action: Action{Kind: ActionExtract, Field: field, Selector: selector},
		Result: Result{Success: true},
	}
}

func testSession(interactions ...Interaction) *Session {
	return &Session{
		ID:           "20260101T000000Z_test",
		Site:         "news.ycombinator.com",
		URL:          "https://news.ycombinator.com/",
		Status:       StatusRecording,
		Interactions: interactions,
	}
}

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return "pat_" + string(rune('0'+n))
	}
}

func TestSynthesize_GeneralizesIndexedSelectors(t *testing.T) {
	// WHAT: Two examples with positional indexes collapse to one selector.
	// WHY: Stripping incidental indexes is the whole point of needing two
	// concrete examples per field.
	sess := testSession(
		extractInteraction("title", "div.post[0] h3"),
		extractInteraction("title", "div.post[1] h3"),
	)

	patterns := synthesize(sess, false, seqID())
	if len(patterns) != 1 {
		t.Fatalf("patterns: got %d, want 1", len(patterns))
	}
	p := patterns[0]
	if len(p.Rules) != 1 {
		t.Fatalf("rules: got %d, want 1", len(p.Rules))
	}
	r := p.Rules[0]
	if r.Selector.Value != "div.post h3" {
		t.Errorf("selector: got %q, want %q", r.Selector.Value, "div.post h3")
	}
	if r.Transform != TransformText {
		t.Errorf("transform: got %q, want text", r.Transform)
	}
	if !r.Required {
		t.Error("required: got false, want true")
	}
	if p.Confidence == 0 {
		t.Error("confidence: got 0, want initial placeholder")
	}
	if p.Meta.LearnedFrom != 2 {
		t.Errorf("learned_from: got %d, want 2", p.Meta.LearnedFrom)
	}
}

func TestSynthesize_DiscardsSingleExampleGroups(t *testing.T) {
	// WHAT: A field with one example yields no pattern.
	// WHY: One example cannot reveal which selector part is structural.
	sess := testSession(
		extractInteraction("title", "div.post[0] h3"),
		extractInteraction("score", "div.post[0] span.score"),
	)

	if got := synthesize(sess, false, seqID()); got != nil {
		t.Fatalf("patterns: got %d, want none", len(got))
	}
}

func TestSynthesize_SingleDistinctSelectorVerbatim(t *testing.T) {
	// WHAT: Multiple examples sharing one selector use it unchanged.
	sess := testSession(
		extractInteraction("headline", "main h1.hero"),
		extractInteraction("headline", "main h1.hero"),
	)

	patterns := synthesize(sess, false, seqID())
	if len(patterns) != 1 {
		t.Fatalf("patterns: got %d", len(patterns))
	}
	if got := patterns[0].Rules[0].Selector.Value; got != "main h1.hero" {
		t.Errorf("selector: got %q, want verbatim original", got)
	}
}

func TestSynthesize_FallbacksCappedInSourceOrder(t *testing.T) {
	// WHAT: At most three original concrete selectors are kept as fallbacks.
	sess := testSession(
		extractInteraction("title", "li.row[0] a"),
		extractInteraction("title", "li.row[1] a"),
		extractInteraction("title", "li.row[2] a"),
		extractInteraction("title", "li.row[3] a"),
	)

	patterns := synthesize(sess, false, seqID())
	fb := patterns[0].Rules[0].Selector.Fallbacks
	if len(fb) != 3 {
		t.Fatalf("fallbacks: got %d, want 3", len(fb))
	}
	want := []string{"li.row[0] a", "li.row[1] a", "li.row[2] a"}
	for i := range want {
		if fb[i] != want[i] {
			t.Errorf("fallbacks[%d]: got %q, want %q", i, fb[i], want[i])
		}
	}
}

func TestSynthesize_IgnoresNonExtractInteractions(t *testing.T) {
	// WHAT: Clicks and navigations never contribute to synthesis.
	sess := testSession(
		Interaction{Action: Action{Kind: ActionClick, Selector: "a.morelink"}},
		extractInteraction("title", "div.post[0] h3"),
		extractInteraction("title", "div.post[1] h3"),
	)

	patterns := synthesize(sess, false, seqID())
	if len(patterns) != 1 {
		t.Fatalf("patterns: got %d, want 1", len(patterns))
	}
}

func TestSynthesize_CombineBundlesAllFields(t *testing.T) {
	// WHAT: Combine mode yields one multi-rule pattern for the session.
	sess := testSession(
		extractInteraction("title", "div.post[0] h3"),
		extractInteraction("title", "div.post[1] h3"),
		extractInteraction("post_url", "div.post[0] a.story"),
		extractInteraction("post_url", "div.post[1] a.story"),
	)

	patterns := synthesize(sess, true, seqID())
	if len(patterns) != 1 {
		t.Fatalf("patterns: got %d, want 1", len(patterns))
	}
	p := patterns[0]
	if len(p.Rules) != 2 {
		t.Fatalf("rules: got %d, want 2", len(p.Rules))
	}
	if p.Rules[0].Field != "title" || p.Rules[1].Field != "post_url" {
		t.Errorf("rule order: got %q, %q", p.Rules[0].Field, p.Rules[1].Field)
	}
	if p.Rules[1].Transform != TransformHref {
		t.Errorf("post_url transform: got %q, want href", p.Rules[1].Transform)
	}
	if p.Meta.LearnedFrom != 4 {
		t.Errorf("learned_from: got %d, want 4", p.Meta.LearnedFrom)
	}
}

func TestCanonicalSelector_Deterministic(t *testing.T) {
	// WHAT: Same ordered input always picks the same canonical selector;
	// ties break by first occurrence after generalization.
	selectors := []string{"ul.feed[0] li a", "div.alt[0] a", "ul.feed[1] li a"}
	want := canonicalSelector(selectors)
	for range 5 {
		if got := canonicalSelector(selectors); got != want {
			t.Fatalf("nondeterministic: got %q then %q", want, got)
		}
	}
	if want != "ul.feed li a" {
		t.Errorf("canonical: got %q, want most-frequent %q", want, "ul.feed li a")
	}

	// Pure tie: first-seen wins.
	tied := canonicalSelector([]string{"div.b[0] a", "span.c[0] a"})
	if tied != "div.b a" {
		t.Errorf("tie break: got %q, want first-seen %q", tied, "div.b a")
	}
}

func TestGeneralizeSelector(t *testing.T) {
	cases := []struct{ in, want string }{
		{"div.post[0] h3", "div.post h3"},
		{"tr.athing[12] span.titleline a", "tr.athing span.titleline a"},
		{"main h1", "main h1"},
		{"", ""},
	}
	for _, c := range cases {
		if got := generalizeSelector(c.in); got != c.want {
			t.Errorf("generalizeSelector(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInferTransform(t *testing.T) {
	// WHAT: Transform inference is a pure function of the field name.
	cases := []struct {
		field string
		want  Transform
	}{
		{"post_url", TransformHref},
		{"link", TransformHref},
		{"vote_score", TransformNumber},
		{"points", TransformNumber},
		{"comment_count", TransformNumber},
		{"published_date", TransformDate},
		{"timestamp", TransformDate},
		{"headline", TransformText},
	}
	for _, c := range cases {
		if got := inferTransform(c.field); got != c.want {
			t.Errorf("inferTransform(%q): got %q, want %q", c.field, got, c.want)
		}
	}
}
