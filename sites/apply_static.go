package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/notactuallytreyanastasio/browser-mcp/learn"
)

// ApplyPatternStatic runs a pattern's extraction rules against static
// HTML without a browser. Relative hrefs resolve against baseURL. Output
// is flat: rule order, then DOM order within each rule, matching the
// browser path.
func ApplyPatternStatic(rules []learn.Rule, htmlStr, baseURL string) ([]learn.Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("sites: parse html: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("sites: parse base url: %w", err)
		}
	}

	var out []learn.Extracted
	for _, rule := range rules {
		doc.Find(rule.Selector.Value).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			href, _ := sel.Attr("href")
			if href != "" && base != nil {
				href = resolveURL(base, href)
			}
			datetime, _ := sel.Attr("datetime")
			kind := goquery.NodeName(sel)
			out = append(out, learn.Extracted{
				Field: rule.Field,
				Value: learn.ApplyTransform(rule.Transform, text, href, datetime),
				Kind:  kind,
			})
		})
	}
	return out, nil
}

// ApplySavedPattern loads a saved pattern from the store, fetches the
// URL, and applies its rules offline.
func (s *Service) ApplySavedPattern(ctx context.Context, patternID, pageURL string) ([]learn.Extracted, error) {
	row, err := s.store.GetPattern(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("sites: load pattern: %w", err)
	}
	if row == nil {
		return nil, learn.ErrPatternNotFound
	}

	var p learn.Pattern
	if err := json.Unmarshal([]byte(row.Sample), &p); err != nil {
		return nil, fmt.Errorf("sites: decode pattern %s: %w", patternID, err)
	}

	htmlStr, err := s.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("sites: fetch %s: %w", pageURL, err)
	}
	return ApplyPatternStatic(p.Rules, htmlStr, pageURL)
}
