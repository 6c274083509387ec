package sites

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// IngestFeed fetches an RSS/Atom feed and upserts its entries as links.
// Returns the number of entries saved.
func (s *Service) IngestFeed(ctx context.Context, feedURL string) (int, error) {
	body, err := s.fetcher.fetch(ctx, feedURL)
	if err != nil {
		return 0, fmt.Errorf("sites: fetch feed %s: %w", feedURL, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return 0, fmt.Errorf("sites: parse feed %s: %w", feedURL, err)
	}

	site := feedSite(feedURL)
	saved := 0
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		l := &linkstore.Link{URL: item.Link, Title: item.Title, Site: site}
		if _, err := s.store.UpsertLink(ctx, l); err != nil {
			s.log.Warn("sites: feed upsert failed", "url", item.Link, "error", err)
			continue
		}
		saved++
	}
	if err := s.store.LogActivity(ctx, "feed", fmt.Sprintf("%s (%d entries)", feedURL, saved), ""); err != nil {
		s.log.Debug("sites: activity log failed", "error", err)
	}

	s.log.Info("sites: ingested feed", "url", feedURL, "title", feed.Title, "saved", saved)
	return saved, nil
}

func feedSite(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	return u.Hostname()
}
