package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

const (
	cloudMinFont = 12
	cloudMaxFont = 36
	cloudBuckets = 5
)

type cloudTag struct {
	Name  string
	Count int
	Size  int // font size in px
}

type cloudData struct {
	GeneratedAt string
	Tags        []cloudTag
}

// TagCloud renders the tag cloud: every tag sized by how many links
// carry it, bucketed so one runaway tag doesn't flatten the rest.
func (g *Generator) TagCloud(ctx context.Context) (string, error) {
	tags, err := g.store.ListTags(ctx)
	if err != nil {
		return "", fmt.Errorf("report: list tags: %w", err)
	}

	data := cloudData{GeneratedAt: g.now().Format("January 2, 2006 15:04")}
	for _, t := range tags {
		data.Tags = append(data.Tags, cloudTag{
			Name:  t.Name,
			Count: t.Count,
			Size:  fontSize(t.Count, tags),
		})
	}

	var buf bytes.Buffer
	if err := cloudTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: render tag-cloud: %w", err)
	}
	return g.write("tag-cloud.html", buf.Bytes())
}

// fontSize maps a tag's count onto one of cloudBuckets sizes between the
// min and max font. The mapping is linear over the observed count range,
// so equal counts always get equal sizes and a higher count never gets a
// smaller font.
func fontSize(count int, tags []linkstore.TagCount) int {
	lo, hi := count, count
	for _, t := range tags {
		if t.Count < lo {
			lo = t.Count
		}
		if t.Count > hi {
			hi = t.Count
		}
	}
	if hi == lo {
		return cloudMinFont
	}
	bucket := (count - lo) * cloudBuckets / (hi - lo + 1)
	return cloudMinFont + bucket*(cloudMaxFont-cloudMinFont)/(cloudBuckets-1)
}

var cloudTmpl = template.Must(template.New("cloud").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tag cloud</title>
<style>
body { font-family: Verdana, Geneva, sans-serif; max-width: 44em; margin: 2em auto; color: #222; text-align: center; }
h1 { font-size: 1.3em; }
.meta { color: #828282; font-size: 13px; }
.cloud { line-height: 2.2; }
.cloud span { margin: 0 6px; white-space: nowrap; }
</style>
</head>
<body>
<h1>tag cloud</h1>
<p class="meta">generated {{.GeneratedAt}}</p>
<div class="cloud">
{{range .Tags}}<span style="font-size: {{.Size}}px" title="{{.Count}} links">{{.Name}}</span>
{{end}}</div>
</body>
</html>`))
