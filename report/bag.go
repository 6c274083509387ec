package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// bagLimit caps how many links one digest covers.
const bagLimit = 500

type bagLink struct {
	Title   string
	URL     string
	Site    string
	Points  int
	Score   int
	Tags    []string
	Read    bool
	Excerpt string
}

type bagDay struct {
	Date  string
	Links []bagLink
}

type bagData struct {
	GeneratedAt string
	Total       int
	Starred     []bagLink
	Days        []bagDay
}

// BagOfLinks renders the digest: starred links pinned at the top, then
// everything else grouped by the day it was saved, newest day first.
func (g *Generator) BagOfLinks(ctx context.Context) (string, error) {
	links, err := g.store.ListLinks(ctx, linkstore.Filter{Limit: bagLimit})
	if err != nil {
		return "", fmt.Errorf("report: list links: %w", err)
	}

	data := bagData{
		GeneratedAt: g.now().Format("January 2, 2006 15:04"),
		Total:       len(links),
	}

	var dayOrder []string
	byDay := map[string][]bagLink{}
	for _, l := range links {
		bl := g.bagLink(l)
		if l.Starred {
			data.Starred = append(data.Starred, bl)
			continue
		}
		day := time.UnixMilli(l.SavedAt).Format("Monday, January 2, 2006")
		if _, seen := byDay[day]; !seen {
			dayOrder = append(dayOrder, day)
		}
		byDay[day] = append(byDay[day], bl)
	}
	for _, day := range dayOrder {
		data.Days = append(data.Days, bagDay{Date: day, Links: byDay[day]})
	}

	var buf bytes.Buffer
	if err := bagTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: render bag-of-links: %w", err)
	}
	return g.write("bag-of-links.html", buf.Bytes())
}

func (g *Generator) bagLink(l *linkstore.Link) bagLink {
	return bagLink{
		Title:   g.sanitize(l.Title),
		URL:     l.URL,
		Site:    l.Site,
		Points:  l.Points,
		Score:   l.Score,
		Tags:    l.Tags,
		Read:    l.Read,
		Excerpt: excerpt(g.sanitize(l.Note), 200),
	}
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

var bagTmpl = template.Must(template.New("bag").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>bag of links</title>
<style>
body { font-family: Verdana, Geneva, sans-serif; font-size: 13px; max-width: 52em; margin: 2em auto; color: #222; }
h1 { font-size: 1.3em; }
h2 { font-size: 1em; border-bottom: 1px solid #ddd; padding-bottom: 2px; margin-top: 1.5em; }
ul { list-style: none; padding-left: 0; }
li { margin: 0.5em 0; }
.site { color: #828282; font-size: 0.85em; }
.meta { color: #828282; font-size: 0.85em; }
.tag { background: #f0f0f0; border-radius: 3px; padding: 0 4px; font-size: 0.8em; margin-left: 3px; }
.read a { color: #828282; }
.excerpt { color: #555; font-size: 0.9em; margin: 2px 0 0 1em; }
.star { color: #ff6600; }
</style>
</head>
<body>
<h1>bag of links</h1>
<p class="meta">{{.Total}} links · generated {{.GeneratedAt}}</p>
{{if .Starred}}
<h2><span class="star">★</span> starred</h2>
<ul>
{{range .Starred}}{{template "link" .}}{{end}}
</ul>
{{end}}
{{range .Days}}
<h2>{{.Date}}</h2>
<ul>
{{range .Links}}{{template "link" .}}{{end}}
</ul>
{{end}}
</body>
</html>
{{define "link"}}<li{{if .Read}} class="read"{{end}}>
<a href="{{.URL}}">{{.Title}}</a>
<span class="site">({{.Site}})</span>
<span class="meta">{{if .Points}}{{.Points}} points{{end}}{{if .Score}} · rated {{.Score}}/5{{end}}</span>
{{range .Tags}}<span class="tag">{{.}}</span>{{end}}
{{if .Excerpt}}<div class="excerpt">{{.Excerpt}}</div>{{end}}
</li>
{{end}}`))
