package learn

import (
	"context"
	"errors"
	"testing"
)

func TestApplyPattern_ReturnsRecordPerMatch(t *testing.T) {
	// WHAT: Applying a pattern to a page with 5 matching title elements
	// returns exactly 5 title records with unmodified text values.
	d := listingDriver()
	d.rows = map[string][]rawExtract{
		"tr.athing span.titleline a": {
			{Text: "Story one", Href: "https://a.example/1", Kind: "a"},
			{Text: "Story two", Href: "https://a.example/2", Kind: "a"},
			{Text: "Story three", Href: "https://a.example/3", Kind: "a"},
			{Text: "Story four", Href: "https://a.example/4", Kind: "a"},
			{Text: "Story five", Href: "https://a.example/5", Kind: "a"},
		},
	}
	s := testService(d, nil)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	s.RecordExtraction(ctx, sess.ID, "title", "story")
	patterns, err := s.AnalyzeSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.ApplyPattern(ctx, patterns[0].ID, "https://news.ycombinator.com/news?p=2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("records: got %d, want 5", len(got))
	}
	for i, rec := range got {
		if rec.Field != "title" {
			t.Errorf("field[%d]: got %q", i, rec.Field)
		}
		if rec.Kind != "a" {
			t.Errorf("kind[%d]: got %q", i, rec.Kind)
		}
	}
	if got[0].Value != "Story one" {
		t.Errorf("value: got %q, want plain text unmodified", got[0].Value)
	}
}

func TestApplyPattern_Errors(t *testing.T) {
	d := listingDriver()
	s := testService(d, nil)
	ctx := context.Background()

	if _, err := s.ApplyPattern(ctx, "pat_missing", "https://x.example/"); !errors.Is(err, ErrPatternNotFound) {
		t.Errorf("missing pattern: got %v", err)
	}

	sess, _ := s.StartSession(ctx, "hn", "https://news.ycombinator.com/")
	s.RecordExtraction(ctx, sess.ID, "title", "story")
	patterns, _ := s.AnalyzeSession(ctx, sess.ID)

	d.failNav = map[string]bool{"https://down.example/": true}
	if _, err := s.ApplyPattern(ctx, patterns[0].ID, "https://down.example/"); !errors.Is(err, ErrNavigation) {
		t.Errorf("nav failure: got %v", err)
	}
}

func TestApplyTransform(t *testing.T) {
	// WHAT: Transform coercion rules, including the number default of 0.
	cases := []struct {
		t    Transform
		text string
		href string
		dt   string
		want string
	}{
		{TransformText, "  Hello  ", "https://x/", "", "  Hello  "},
		{TransformHref, "click", "https://x/story", "", "https://x/story"},
		{TransformNumber, "142 points", "", "", "142"},
		{TransformNumber, "no digits here", "", "", "0"},
		{TransformDate, "yesterday", "", "2026-08-27T10:00:00Z", "2026-08-27T10:00:00Z"},
		{TransformDate, "August 27", "", "", "August 27"},
	}
	for _, c := range cases {
		if got := ApplyTransform(c.t, c.text, c.href, c.dt); got != c.want {
			t.Errorf("ApplyTransform(%q, %q): got %q, want %q", c.t, c.text, got, c.want)
		}
	}
}
