package learn

import (
	"context"
	"errors"
	"testing"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
)

type fakeSink struct {
	saved []struct {
		domain string
		rec    PatternRecord
	}
	err error
}

func (f *fakeSink) SavePattern(_ context.Context, domain string, rec PatternRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, struct {
		domain string
		rec    PatternRecord
	}{domain, rec})
	return nil
}

func listingDriver() *fakeDriver {
	return &fakeDriver{
		pageURL:   "https://news.ycombinator.com/",
		pageTitle: "Hacker News",
		elements: []browser.Element{
			{Role: browser.RoleLink, Name: "First story", Text: "First story", Selector: "tr.athing[0] span.titleline a"},
			{Role: browser.RoleLink, Name: "Second story", Text: "Second story", Selector: "tr.athing[1] span.titleline a"},
			{Role: browser.RoleText, Text: "99 points", Selector: "td.subtext span.score"},
			{Role: browser.RoleButton, Name: "More", Text: "More", Selector: "a.morelink"},
		},
		counts: map[string]int{"tr.athing span.titleline a": 30},
	}
}

func TestStartSession_NavigationFailure(t *testing.T) {
	// WHAT: Failed navigation fails session creation; nothing registered.
	d := &fakeDriver{failNav: map[string]bool{"https://down.example/": true}}
	s := testService(d, nil)

	_, err := s.StartSession(context.Background(), "hn", "https://down.example/")
	if !errors.Is(err, ErrNavigation) {
		t.Fatalf("error: got %v, want ErrNavigation", err)
	}
	if got := s.ActiveSessions(); len(got) != 0 {
		t.Fatalf("sessions registered: %d", len(got))
	}
}

func TestStartSession_RecordingState(t *testing.T) {
	// WHAT: A fresh session is in recording state, scoped to the URL's
	// domain, with no interactions.
	s := testService(listingDriver(), nil)

	sess, err := s.StartSession(context.Background(), "HN front page", "https://news.ycombinator.com/")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != StatusRecording {
		t.Errorf("status: got %q", sess.Status)
	}
	if sess.Site != "news.ycombinator.com" {
		t.Errorf("site: got %q", sess.Site)
	}
	if len(sess.Interactions) != 0 {
		t.Errorf("interactions: got %d, want 0 (baseline snapshot is not an interaction)", len(sess.Interactions))
	}
	if sess.ID == "" {
		t.Error("id: empty")
	}
}

func TestStartSession_SameNameDistinctIDs(t *testing.T) {
	// WHAT: Two same-named sessions started back-to-back get distinct ids
	// and both stay registered.
	// WHY: The registry is keyed by id; a collision would silently drop
	// the first session.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	a, err := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatalf("ids collide: %q", a.ID)
	}
	if got := s.ActiveSessions(); len(got) != 2 {
		t.Fatalf("sessions: got %d, want 2", len(got))
	}
}

func TestRecordClick(t *testing.T) {
	// WHAT: A matched click appends one interaction with fresh context.
	d := listingDriver()
	s := testService(d, nil)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")

	inter, err := s.RecordClick(ctx, sess.ID, "more")
	if err != nil {
		t.Fatal(err)
	}
	if inter.Action.Kind != ActionClick {
		t.Errorf("kind: got %q", inter.Action.Kind)
	}
	if !inter.Result.Success {
		t.Errorf("result: %+v", inter.Result)
	}
	if len(d.clicked) != 1 || d.clicked[0] != "a.morelink" {
		t.Errorf("clicked: %v", d.clicked)
	}
	if inter.Context.URL != "https://news.ycombinator.com/" || inter.Context.Title != "Hacker News" {
		t.Errorf("context: %+v", inter.Context)
	}
	if len(sess.Interactions) != 1 || sess.Meta.TotalInteractions != 1 {
		t.Errorf("bookkeeping: %d interactions, meta %d", len(sess.Interactions), sess.Meta.TotalInteractions)
	}
}

func TestRecordClick_Errors(t *testing.T) {
	// WHAT: Unknown session and unmatched description are caller errors.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	if _, err := s.RecordClick(ctx, "nope", "more"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session: got %v", err)
	}

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	if _, err := s.RecordClick(ctx, sess.ID, "flux capacitor"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("unmatched: got %v", err)
	}
	if len(sess.Interactions) != 0 {
		t.Errorf("failed match must not append: %d", len(sess.Interactions))
	}
}

func TestRecordExtraction_SeedsOnePerMatch(t *testing.T) {
	// WHAT: One extraction call appends one interaction per matching
	// element, all tagged with the field.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")

	n, err := s.RecordExtraction(ctx, sess.ID, "title", "story")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("examples: got %d, want 2", n)
	}
	if len(sess.Interactions) != 2 {
		t.Fatalf("interactions: got %d, want 2", len(sess.Interactions))
	}
	for _, inter := range sess.Interactions {
		if inter.Action.Kind != ActionExtract || inter.Action.Field != "title" {
			t.Errorf("interaction: %+v", inter.Action)
		}
	}
	if sess.Meta.SuccessfulExtractions != 2 {
		t.Errorf("successful extractions: got %d", sess.Meta.SuccessfulExtractions)
	}
}

func TestRecordExtraction_ZeroMatchesIsError(t *testing.T) {
	// WHAT: Zero matches throws NoElementsFound and leaves the session
	// interaction count unchanged.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")

	_, err := s.RecordExtraction(ctx, sess.ID, "title", "warp drive")
	if !errors.Is(err, ErrNoElementsFound) {
		t.Fatalf("error: got %v", err)
	}
	if len(sess.Interactions) != 0 {
		t.Errorf("interactions changed: %d", len(sess.Interactions))
	}
}

func TestInteractionCountProperty(t *testing.T) {
	// WHAT: After N successful record calls, interactions.length equals
	// the sum of elements matched per call.
	s := testService(listingDriver(), nil)
	ctx := context.Background()
	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")

	want := 0
	if _, err := s.RecordClick(ctx, sess.ID, "more"); err == nil {
		want++
	}
	if n, err := s.RecordExtraction(ctx, sess.ID, "title", "story"); err == nil {
		want += n
	}
	if n, err := s.RecordExtraction(ctx, sess.ID, "vote_score", "points"); err == nil {
		want += n
	}
	if len(sess.Interactions) != want {
		t.Fatalf("interactions: got %d, want %d", len(sess.Interactions), want)
	}
}

func TestAnalyzeSession(t *testing.T) {
	// WHAT: Analysis synthesizes, validates against the session URL,
	// persists through the sink, and completes the session.
	d := listingDriver()
	sink := &fakeSink{}
	s := testService(d, sink)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	if _, err := s.RecordExtraction(ctx, sess.ID, "title", "story"); err != nil {
		t.Fatal(err)
	}

	patterns, err := s.AnalyzeSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 1 {
		t.Fatalf("patterns: got %d, want 1", len(patterns))
	}
	p := patterns[0]
	if p.Rules[0].Selector.Value != "tr.athing span.titleline a" {
		t.Errorf("selector: got %q", p.Rules[0].Selector.Value)
	}
	if len(p.Validations) != 1 || !p.Validations[0].Success {
		t.Errorf("validations: %+v", p.Validations)
	}
	if p.Validations[0].ExtractedCount != 30 {
		t.Errorf("extracted: got %d", p.Validations[0].ExtractedCount)
	}
	if sess.Status != StatusCompleted || sess.CompletedAt == nil {
		t.Errorf("session: status %q, completedAt %v", sess.Status, sess.CompletedAt)
	}
	if len(sink.saved) != 1 || sink.saved[0].domain != "news.ycombinator.com" {
		t.Errorf("sink: %+v", sink.saved)
	}
	if got := s.GetPattern(p.ID); got == nil {
		t.Error("pattern not in registry after analysis")
	}
}

func TestAnalyzeSession_ReanalysisSupersedes(t *testing.T) {
	// WHAT: Re-analyzing a completed session replaces its pattern set in
	// the registry.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	s.RecordExtraction(ctx, sess.ID, "title", "story")

	first, err := s.AnalyzeSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.AnalyzeSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].ID == second[0].ID {
		t.Error("re-analysis produced the same pattern id")
	}
	if s.GetPattern(first[0].ID) != nil {
		t.Error("superseded pattern still registered")
	}
	if s.GetPattern(second[0].ID) == nil {
		t.Error("fresh pattern not registered")
	}
}

func TestEndSession_ForcesAnalysis(t *testing.T) {
	// WHAT: Ending a recording session runs a final analysis pass, then
	// removes it; later operations fail with SessionNotFound.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	s.RecordExtraction(ctx, sess.ID, "title", "story")

	if err := s.EndSession(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.Patterns()) != 1 {
		t.Errorf("patterns after end: got %d, want 1", len(s.Patterns()))
	}
	if s.GetSession(sess.ID) != nil {
		t.Error("session still registered")
	}
	if _, err := s.RecordClick(ctx, sess.ID, "more"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("post-end error: got %v", err)
	}
}

func TestActiveSessions_Idempotent(t *testing.T) {
	// WHAT: Two reads without intervening mutation return equal lists.
	s := testService(listingDriver(), nil)
	ctx := context.Background()

	s.StartSession(ctx, "one", "https://news.ycombinator.com/")
	s.StartSession(ctx, "two", "https://news.ycombinator.com/")

	a := s.ActiveSessions()
	b := s.ActiveSessions()
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("lengths: %d, %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("order differs at %d: %q vs %q", i, a[i].ID, b[i].ID)
		}
	}
}
