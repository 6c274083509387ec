package sites

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// maxClipRunes caps the stored note. Clips are reading notes, not
// archives.
const maxClipRunes = 20000

// Clip fetches a page, converts it to markdown, and stores the result as
// the link's note (creating the link if it isn't saved yet). Returns the
// markdown.
func (s *Service) Clip(ctx context.Context, pageURL string) (string, error) {
	htmlStr, err := s.fetchHTML(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("sites: fetch %s: %w", pageURL, err)
	}

	md, err := htmltomarkdown.ConvertString(htmlStr)
	if err != nil {
		return "", fmt.Errorf("sites: convert %s: %w", pageURL, err)
	}
	md = truncateRunes(strings.TrimSpace(md), maxClipRunes)

	id, err := s.store.UpsertLink(ctx, &linkstore.Link{URL: pageURL, Site: feedSite(pageURL)})
	if err != nil {
		return "", fmt.Errorf("sites: save link: %w", err)
	}
	if err := s.store.SetNote(ctx, id, md); err != nil {
		return "", fmt.Errorf("sites: save note: %w", err)
	}
	if err := s.store.LogActivity(ctx, "clip", pageURL, id); err != nil {
		s.log.Debug("sites: activity log failed", "error", err)
	}

	s.log.Info("sites: clipped", "url", pageURL, "runes", utf8.RuneCountInString(md))
	return md, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "\n\n[truncated]"
}
