// Package report renders static HTML reports from the link store: a
// bag-of-links digest grouped by day, and a tag cloud. Reports are plain
// files, meant to be opened in a browser or served by the web package.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

// Generator renders reports into a directory.
type Generator struct {
	store  *linkstore.Store
	dir    string
	policy *bluemonday.Policy
	now    func() time.Time
	log    *slog.Logger
}

// NewGenerator creates a report generator writing into dir.
func NewGenerator(store *linkstore.Store, dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		store:  store,
		dir:    dir,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
		log:    logger,
	}
}

// Generate renders a report by name ("bag-of-links" or "tag-cloud") and
// returns the written file path.
func (g *Generator) Generate(ctx context.Context, name string) (string, error) {
	switch name {
	case "bag-of-links":
		return g.BagOfLinks(ctx)
	case "tag-cloud":
		return g.TagCloud(ctx)
	default:
		return "", fmt.Errorf("report: unknown report %q (known: bag-of-links, tag-cloud)", name)
	}
}

func (g *Generator) write(name string, html []byte) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", name, err)
	}
	g.log.Info("report: wrote", "path", path, "bytes", len(html))
	return path, nil
}

// sanitize strips any markup carried in stored text. Titles and notes
// come from scraped pages; they never get to inject HTML into a report.
func (g *Generator) sanitize(s string) string {
	return g.policy.Sanitize(s)
}
