// Package nlq translates a small set of natural-language query shapes
// ("unread links tagged go", "starred links from hn") into parameterized
// SQL over the link store. It is a fixed rule table, not a language
// model: the first matching rule wins, and anything unrecognized returns
// ErrNoMapping listing the supported shapes.
package nlq

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// Query is a translated query: SQL fragments plus bound args, assembled
// and executed by the store.
type Query struct {
	Shape string // the rule that matched, for logging
	Join  string
	Where string
	Order string
	Args  []any
}

type rule struct {
	shape string
	re    *regexp.Regexp
	build func(m []string) Query
}

const (
	tagJoin = `JOIN link_tags lt ON lt.link_id = links.id JOIN tags t ON t.id = lt.tag_id`
	ftsJoin = `JOIN links_fts ON links_fts.rowid = links.rowid`
)

// Rules are tried in order; put the most specific shapes first.
var rules = []rule{
	{
		shape: "unread links tagged <tag>",
		re:    regexp.MustCompile(`^unread links tagged ([\w][\w-]*)$`),
		build: func(m []string) Query {
			return Query{Join: tagJoin, Where: "links.read = 0 AND t.name = ?", Args: []any{m[1]}}
		},
	},
	{
		shape: "starred links tagged <tag>",
		re:    regexp.MustCompile(`^starred links tagged ([\w][\w-]*)$`),
		build: func(m []string) Query {
			return Query{Join: tagJoin, Where: "links.starred = 1 AND t.name = ?", Args: []any{m[1]}}
		},
	},
	{
		shape: "links tagged <tag>",
		re:    regexp.MustCompile(`^links tagged ([\w][\w-]*)$`),
		build: func(m []string) Query {
			return Query{Join: tagJoin, Where: "t.name = ?", Args: []any{m[1]}}
		},
	},
	{
		shape: "links from last <day|week|month>",
		re:    regexp.MustCompile(`^links from (?:the )?last (day|week|month)$`),
		build: func(m []string) Query {
			return Query{Where: "links.saved_at >= ?", Args: []any{windowStart(m[1])}}
		},
	},
	{
		shape: "<text> links from last <day|week|month>",
		re:    regexp.MustCompile(`^(.+?) links from (?:the )?last (day|week|month)$`),
		build: func(m []string) Query {
			return Query{
				Join:  ftsJoin,
				Where: "links_fts MATCH ? AND links.saved_at >= ?",
				Args:  []any{linkstore.FTSQuery(m[1]), windowStart(m[2])},
			}
		},
	},
	{
		shape: "unread links from <site>",
		re:    regexp.MustCompile(`^unread links from ([\w.-]+)$`),
		build: func(m []string) Query {
			return Query{Where: "links.read = 0 AND links.site LIKE ?", Args: []any{"%" + m[1] + "%"}}
		},
	},
	{
		shape: "links from <site>",
		re:    regexp.MustCompile(`^links from ([\w.-]+)$`),
		build: func(m []string) Query {
			return Query{Where: "links.site LIKE ?", Args: []any{"%" + m[1] + "%"}}
		},
	},
	{
		shape: "links about <text>",
		re:    regexp.MustCompile(`^links (?:about|mentioning|matching) (.+)$`),
		build: func(m []string) Query {
			return Query{Join: ftsJoin, Where: "links_fts MATCH ?", Args: []any{linkstore.FTSQuery(m[1])}}
		},
	},
	{
		shape: "unread links",
		re:    regexp.MustCompile(`^unread(?: links)?$`),
		build: func(m []string) Query {
			return Query{Where: "links.read = 0"}
		},
	},
	{
		shape: "read links",
		re:    regexp.MustCompile(`^read links$`),
		build: func(m []string) Query {
			return Query{Where: "links.read = 1"}
		},
	},
	{
		shape: "starred links",
		re:    regexp.MustCompile(`^starred(?: links)?$`),
		build: func(m []string) Query {
			return Query{Where: "links.starred = 1"}
		},
	},
	{
		shape: "top links",
		re:    regexp.MustCompile(`^(?:top|best)(?: scored| rated)?(?: links)?$`),
		build: func(m []string) Query {
			return Query{Order: "links.points DESC, links.saved_at DESC"}
		},
	},
	{
		shape: "highly rated links",
		re:    regexp.MustCompile(`^(?:highly rated|rated)(?: links)?$`),
		build: func(m []string) Query {
			return Query{Where: "links.score > 0", Order: "links.score DESC, links.saved_at DESC"}
		},
	},
	{
		shape: "recent links",
		re:    regexp.MustCompile(`^(?:recent(?: links)?|all links|everything)$`),
		build: func(m []string) Query {
			return Query{}
		},
	},
}

// Translate maps input onto the first matching rule. Returns an error
// carrying the supported shapes when nothing matches.
func Translate(input string) (*Query, error) {
	q := normalize(input)
	if q == "" {
		return nil, noMappingError(input)
	}
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(q); m != nil {
			out := r.build(m)
			out.Shape = r.shape
			return &out, nil
		}
	}
	return nil, noMappingError(input)
}

// normalize lowercases and strips filler so "Show me the unread links"
// and "unread links" hit the same rule.
func normalize(input string) string {
	q := strings.ToLower(strings.TrimSpace(input))
	q = strings.TrimSuffix(q, "?")
	q = strings.TrimSuffix(q, ".")
	for _, prefix := range []string{"show me ", "show ", "list ", "find ", "what are ", "give me "} {
		q = strings.TrimPrefix(q, prefix)
	}
	q = strings.TrimPrefix(q, "the ")
	q = strings.TrimPrefix(q, "my ")
	return strings.Join(strings.Fields(q), " ")
}

// timeNow is swapped out in tests.
var timeNow = time.Now

// windowStart returns the UnixMilli cutoff for a "last <window>" phrase.
func windowStart(window string) int64 {
	now := timeNow()
	switch window {
	case "day":
		return now.AddDate(0, 0, -1).UnixMilli()
	case "week":
		return now.AddDate(0, 0, -7).UnixMilli()
	default: // month
		return now.AddDate(0, -1, 0).UnixMilli()
	}
}

func noMappingError(input string) error {
	shapes := make([]string, len(rules))
	for i, r := range rules {
		shapes[i] = r.shape
	}
	return fmt.Errorf("%w: %q (supported: %s)", ErrNoMapping, input, strings.Join(shapes, "; "))
}

// Execute translates input and runs it against the store.
func Execute(ctx context.Context, store *linkstore.Store, input string, limit int) ([]*linkstore.Link, error) {
	q, err := Translate(input)
	if err != nil {
		return nil, err
	}
	return store.QueryLinks(ctx, q.Join, q.Where, q.Order, limit, q.Args...)
}
