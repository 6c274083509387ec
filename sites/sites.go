// Package sites extracts story listings (title/URL/score) from known
// sites with canned selector sets, ingests RSS/Atom feeds, clips story
// pages to markdown notes, and applies learned extraction patterns to
// static HTML. Fetching goes through the browser when a driver is wired,
// or through a polite static HTTP path otherwise.
package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// SiteConfig is one known site's canned selector set.
type SiteConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Domain string `yaml:"domain"`
	Item   string `yaml:"item"`  // listing row container
	Title  string `yaml:"title"` // relative to Item; also carries the href
	Score  string `yaml:"score"` // document-level, zipped with items by index
}

// defaultSites are the sites this tool knows out of the box.
func defaultSites() map[string]SiteConfig {
	return map[string]SiteConfig{
		"hn": {
			Name:   "hn",
			URL:    "https://news.ycombinator.com/",
			Domain: "news.ycombinator.com",
			Item:   "tr.athing",
			Title:  "span.titleline a",
			Score:  "span.score",
		},
		"reddit": {
			Name:   "reddit",
			URL:    "https://old.reddit.com/",
			Domain: "old.reddit.com",
			Item:   "div.thing",
			Title:  "p.title a.title",
			Score:  "div.score.unvoted",
		},
	}
}

// Config configures the sites service.
type Config struct {
	UserAgent string
	DelayMin  time.Duration // polite delay window before static fetches
	DelayMax  time.Duration
	MaxBytes  int64
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	if c.DelayMin <= 0 {
		c.DelayMin = 500 * time.Millisecond
	}
	if c.DelayMax <= c.DelayMin {
		c.DelayMax = c.DelayMin + 1500*time.Millisecond
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service runs the scrape pipeline against the link store.
type Service struct {
	cfg     Config
	store   *linkstore.Store
	driver  browser.Driver // nil = static path only
	fetcher *fetcher
	sites   map[string]SiteConfig
	log     *slog.Logger
}

// NewService creates the sites service. driver may be nil, restricting
// fetches to the static HTTP path.
func NewService(store *linkstore.Store, driver browser.Driver, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		cfg:     cfg,
		store:   store,
		driver:  driver,
		fetcher: newFetcher(cfg),
		sites:   defaultSites(),
		log:     cfg.Logger,
	}
}

// Sites lists the known site names.
func (s *Service) Sites() []string {
	out := make([]string, 0, len(s.sites))
	for name := range s.sites {
		out = append(out, name)
	}
	return out
}

// Story is one extracted listing entry.
type Story struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Points int    `json:"points"`
}

// Scrape fetches a known site's listing, extracts stories, and upserts
// them into the link store. Uses the browser when one is wired, falling
// back to the static path on browser failure.
func (s *Service) Scrape(ctx context.Context, siteName string) ([]Story, error) {
	cfg, ok := s.sites[siteName]
	if !ok {
		return nil, fmt.Errorf("sites: unknown site %q (known: %v)", siteName, s.Sites())
	}

	htmlStr, err := s.fetchHTML(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("sites: fetch %s: %w", cfg.URL, err)
	}

	stories, err := parseListing(htmlStr, cfg)
	if err != nil {
		return nil, fmt.Errorf("sites: parse %s: %w", siteName, err)
	}

	for _, st := range stories {
		l := &linkstore.Link{URL: st.URL, Title: st.Title, Site: cfg.Domain, Points: st.Points}
		if _, err := s.store.UpsertLink(ctx, l); err != nil {
			s.log.Warn("sites: upsert failed", "url", st.URL, "error", err)
		}
	}
	if err := s.store.LogActivity(ctx, "scrape", siteName, ""); err != nil {
		s.log.Debug("sites: activity log failed", "error", err)
	}

	s.log.Info("sites: scraped", "site", siteName, "stories", len(stories))
	return stories, nil
}

// fetchHTML prefers the browser path and degrades to static HTTP.
func (s *Service) fetchHTML(ctx context.Context, url string) (string, error) {
	if s.driver != nil {
		htmlStr, err := s.fetchBrowser(ctx, url)
		if err == nil {
			return htmlStr, nil
		}
		s.log.Warn("sites: browser fetch failed, using static path", "url", url, "error", err)
	}
	body, err := s.fetcher.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

const outerHTMLJS = `() => JSON.stringify(document.documentElement.outerHTML)`

func (s *Service) fetchBrowser(ctx context.Context, url string) (string, error) {
	if err := s.driver.Navigate(ctx, url); err != nil {
		return "", err
	}
	raw, err := s.driver.Evaluate(ctx, outerHTMLJS)
	if err != nil {
		return "", err
	}
	var htmlStr string
	if err := json.Unmarshal([]byte(raw), &htmlStr); err != nil {
		return "", fmt.Errorf("decode outer html: %w", err)
	}
	return htmlStr, nil
}
