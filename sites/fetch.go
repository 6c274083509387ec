package sites

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

// fetcher is the static HTTP path: browser-like headers and a randomized
// polite delay before each request, so personal-scale scraping looks like
// a person refreshing a page.
type fetcher struct {
	client    *http.Client
	userAgent string
	delayMin  time.Duration
	delayMax  time.Duration
	maxBytes  int64
}

func newFetcher(cfg Config) *fetcher {
	return &fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: cfg.UserAgent,
		delayMin:  cfg.DelayMin,
		delayMax:  cfg.DelayMax,
		maxBytes:  cfg.MaxBytes,
	}
}

func (f *fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.politeDelay(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (f *fetcher) politeDelay(ctx context.Context) error {
	span := f.delayMax - f.delayMin
	d := f.delayMin + rand.N(span)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
