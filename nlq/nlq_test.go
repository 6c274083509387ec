package nlq

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/notactuallytreyanastasio/browser-mcp/dbopen"
	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// WHAT: each supported shape translates to the expected fragments and
// bound args.
// WHY: the rule table IS the feature; a rule that binds user text into
// SQL instead of args would be an injection hole.
func TestTranslate(t *testing.T) {
	cases := []struct {
		in        string
		wantShape string
		wantWhere string
		wantJoin  string
		wantArgs  []any
	}{
		{"unread links tagged go", "unread links tagged <tag>", "links.read = 0 AND t.name = ?", tagJoin, []any{"go"}},
		{"links tagged databases", "links tagged <tag>", "t.name = ?", tagJoin, []any{"databases"}},
		{"starred links tagged go", "starred links tagged <tag>", "links.starred = 1 AND t.name = ?", tagJoin, []any{"go"}},
		{"links from news.ycombinator.com", "links from <site>", "links.site LIKE ?", "", []any{"%news.ycombinator.com%"}},
		{"unread links from hn", "unread links from <site>", "links.read = 0 AND links.site LIKE ?", "", []any{"%hn%"}},
		{"links about sqlite", "links about <text>", "links_fts MATCH ?", ftsJoin, []any{`"sqlite"`}},
		{"unread links", "unread links", "links.read = 0", "", nil},
		{"starred", "starred links", "links.starred = 1", "", nil},
		{"read links", "read links", "links.read = 1", "", nil},
		{"top links", "top links", "", "", nil},
		{"top scored links", "top links", "", "", nil},
		{"best rated links", "top links", "", "", nil},
		{"recent links", "recent links", "", "", nil},
	}

	for _, tc := range cases {
		q, err := Translate(tc.in)
		if err != nil {
			t.Errorf("Translate(%q): %v", tc.in, err)
			continue
		}
		if q.Shape != tc.wantShape {
			t.Errorf("Translate(%q).Shape = %q, want %q", tc.in, q.Shape, tc.wantShape)
		}
		if q.Where != tc.wantWhere {
			t.Errorf("Translate(%q).Where = %q, want %q", tc.in, q.Where, tc.wantWhere)
		}
		if q.Join != tc.wantJoin {
			t.Errorf("Translate(%q).Join = %q, want %q", tc.in, q.Join, tc.wantJoin)
		}
		if len(q.Args) != len(tc.wantArgs) {
			t.Errorf("Translate(%q).Args = %v, want %v", tc.in, q.Args, tc.wantArgs)
			continue
		}
		for i := range q.Args {
			if q.Args[i] != tc.wantArgs[i] {
				t.Errorf("Translate(%q).Args[%d] = %v, want %v", tc.in, i, q.Args[i], tc.wantArgs[i])
			}
		}
	}
}

// WHAT: time-window shapes bind a saved_at cutoff computed from now, and
// a leading subject falls through to full-text search within the window.
func TestTranslate_TimeWindow(t *testing.T) {
	restore := timeNow
	defer func() { timeNow = restore }()
	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }

	q, err := Translate("links from last day")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got, want := q.Where, "links.saved_at >= ?"; got != want {
		t.Errorf("Where = %q, want %q", got, want)
	}
	if got, want := q.Args[0], any(fixed.AddDate(0, 0, -1).UnixMilli()); got != want {
		t.Errorf("Args[0] = %v, want %v", got, want)
	}

	q, err = Translate("show me python links from last week")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got, want := q.Join, ftsJoin; got != want {
		t.Errorf("Join = %q, want %q", got, want)
	}
	if got, want := q.Where, "links_fts MATCH ? AND links.saved_at >= ?"; got != want {
		t.Errorf("Where = %q, want %q", got, want)
	}
	if got, want := q.Args[0], any(`"python"`); got != want {
		t.Errorf("Args[0] = %v, want %v", got, want)
	}
	if got, want := q.Args[1], any(fixed.AddDate(0, 0, -7).UnixMilli()); got != want {
		t.Errorf("Args[1] = %v, want %v", got, want)
	}
}

// WHAT: filler prefixes and casing normalize away before matching.
func TestTranslate_Normalization(t *testing.T) {
	for _, in := range []string{
		"Show me the unread links tagged go",
		"list unread links tagged go",
		"UNREAD LINKS TAGGED GO",
		"  unread   links tagged go ",
		"unread links tagged go?",
	} {
		q, err := Translate(in)
		if err != nil {
			t.Errorf("Translate(%q): %v", in, err)
			continue
		}
		if got, want := q.Shape, "unread links tagged <tag>"; got != want {
			t.Errorf("Translate(%q).Shape = %q, want %q", in, got, want)
		}
		// Tag case folds with the rest of the query.
		if got, want := q.Args[0], any("go"); got != want {
			t.Errorf("Translate(%q).Args[0] = %v, want %v", in, got, want)
		}
	}
}

// WHAT: unrecognized input returns ErrNoMapping naming the supported
// shapes.
func TestTranslate_NoMapping(t *testing.T) {
	_, err := Translate("delete everything please")
	if !errors.Is(err, ErrNoMapping) {
		t.Fatalf("err = %v, want ErrNoMapping", err)
	}
	if !strings.Contains(err.Error(), "unread links tagged <tag>") {
		t.Errorf("error does not list supported shapes: %v", err)
	}

	if _, err := Translate(""); !errors.Is(err, ErrNoMapping) {
		t.Errorf("Translate(\"\") err = %v, want ErrNoMapping", err)
	}
}

// WHAT: end-to-end execution against a seeded store.
func TestExecute(t *testing.T) {
	ctx := context.Background()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(linkstore.Schema))
	store := linkstore.NewStore(db)

	save := func(url, title string) string {
		t.Helper()
		id, err := store.UpsertLink(ctx, &linkstore.Link{URL: url, Title: title, Site: "news.ycombinator.com"})
		if err != nil {
			t.Fatalf("UpsertLink: %v", err)
		}
		return id
	}

	goID := save("https://a.example/go", "Go generics in practice")
	readID := save("https://a.example/read", "Already read story")
	save("https://a.example/other", "Unrelated story")

	if err := store.Tag(ctx, goID, "go"); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	read := true
	if err := store.SetFlags(ctx, readID, linkstore.Flags{Read: &read}); err != nil {
		t.Fatalf("SetFlags: %v", err)
	}

	links, err := Execute(ctx, store, "unread links tagged go", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := len(links), 1; got != want {
		t.Fatalf("links = %d, want %d", got, want)
	}
	if got, want := links[0].URL, "https://a.example/go"; got != want {
		t.Errorf("url = %q, want %q", got, want)
	}

	links, err = Execute(ctx, store, "unread links", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := len(links), 2; got != want {
		t.Errorf("unread links = %d, want %d", got, want)
	}

	links, err = Execute(ctx, store, "links about generics", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := len(links), 1; got != want {
		t.Errorf("fts links = %d, want %d", got, want)
	}

	// Everything was saved just now, so a week-long window holds all three.
	links, err = Execute(ctx, store, "links from last week", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := len(links), 3; got != want {
		t.Errorf("window links = %d, want %d", got, want)
	}
}
