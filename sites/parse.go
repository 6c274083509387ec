package sites

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var digits = regexp.MustCompile(`\d+`)

// parseListing extracts stories from a listing page using the site's
// canned selectors. Score elements live outside the item rows on some
// sites (HN puts them in a sibling row), so they are collected at the
// document level and zipped with items by index.
func parseListing(htmlStr string, cfg SiteConfig) ([]Story, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var scores []int
	doc.Find(cfg.Score).Each(func(_ int, sel *goquery.Selection) {
		scores = append(scores, parseScore(sel.Text()))
	})

	var stories []Story
	doc.Find(cfg.Item).Each(func(i int, item *goquery.Selection) {
		a := item.Find(cfg.Title).First()
		title := strings.TrimSpace(a.Text())
		href, _ := a.Attr("href")
		if title == "" || href == "" {
			return
		}
		st := Story{Title: title, URL: resolveURL(base, href)}
		if i < len(scores) {
			st.Points = scores[i]
		}
		stories = append(stories, st)
	})
	return stories, nil
}

func parseScore(text string) int {
	m := digits.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
