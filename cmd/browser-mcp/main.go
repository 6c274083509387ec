// Command browser-mcp is a personal link-curation tool: an MCP server
// exposing browser automation, pattern learning, scraping, and the link
// bag to an LLM client, plus one-shot CLI modes for scraping, clipping,
// reports, and queries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
	"github.com/notactuallytreyanastasio/browser-mcp/config"
	"github.com/notactuallytreyanastasio/browser-mcp/learn"
	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
	"github.com/notactuallytreyanastasio/browser-mcp/nlq"
	"github.com/notactuallytreyanastasio/browser-mcp/report"
	"github.com/notactuallytreyanastasio/browser-mcp/sites"
	"github.com/notactuallytreyanastasio/browser-mcp/web"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		mcpMode    = flag.Bool("mcp", false, "serve MCP over stdio")
		serveAddr  = flag.String("serve", "", "serve the local web UI on this address (e.g. 127.0.0.1:8077)")
		scrapeSite = flag.String("scrape", "", "scrape a known site (hn, reddit) and exit")
		feedURL    = flag.String("feed", "", "ingest an RSS/Atom feed and exit")
		clipURL    = flag.String("clip", "", "clip a page to markdown and exit")
		reportName = flag.String("report", "", "generate a report (bag-of-links, tag-cloud) and exit")
		queryText  = flag.String("query", "", "run a natural-language query and exit")
		logLevel   = flag.String("log-level", "info", "debug | info | warn | error")
	)
	flag.Parse()

	// Logs go to stderr: stdout belongs to the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	store, err := linkstore.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("open store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := sites.NewService(store, nil, sites.Config{
		UserAgent: cfg.Sites.UserAgent,
		DelayMin:  cfg.Sites.DelayMin,
		DelayMax:  cfg.Sites.DelayMax,
		MaxBytes:  cfg.Sites.MaxBytes,
		Logger:    logger,
	})
	gen := report.NewGenerator(store, cfg.Reports.Dir, logger)

	switch {
	case *scrapeSite != "":
		stories, err := svc.Scrape(ctx, *scrapeSite)
		exitOn(err)
		fmt.Printf("saved %d stories from %s\n", len(stories), *scrapeSite)

	case *feedURL != "":
		n, err := svc.IngestFeed(ctx, *feedURL)
		exitOn(err)
		fmt.Printf("saved %d feed entries\n", n)

	case *clipURL != "":
		md, err := svc.Clip(ctx, *clipURL)
		exitOn(err)
		fmt.Println(md)

	case *reportName != "":
		path, err := gen.Generate(ctx, *reportName)
		exitOn(err)
		fmt.Println(path)

	case *queryText != "":
		links, err := nlq.Execute(ctx, store, *queryText, 50)
		exitOn(err)
		for _, l := range links {
			fmt.Printf("%s\t%s\n", l.Title, l.URL)
		}

	case *serveAddr != "":
		srv := web.NewServer(*serveAddr, store, cfg.Reports.Dir, logger)
		exitOn(srv.ListenAndServe(ctx))

	case *mcpMode:
		exitOn(runMCP(ctx, cfg, store, gen, logger))

	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runMCP wires every tool set onto one MCP server and serves it over
// stdio until the context is canceled. Chrome starts lazily on the first
// browser-needing tool call, so list/query/report tools work without a
// browser installed.
func runMCP(ctx context.Context, cfg *config.Config, store *linkstore.Store, gen *report.Generator, logger *slog.Logger) error {
	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Headful:          cfg.Browser.Stealth == "headful",
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           logger,
	})
	defer mgr.Close()

	driver := &lazyDriver{ctx: ctx, mgr: mgr, inner: browser.NewPageDriver(mgr)}

	learnSvc := learn.NewService(driver, store, learn.Config{
		CombineFields:  cfg.Learn.CombineFields,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		UserAgent:      cfg.Browser.UserAgent,
		Logger:         logger,
	})
	defer learnSvc.Close()

	siteSvc := sites.NewService(store, driver, sites.Config{
		UserAgent: cfg.Sites.UserAgent,
		DelayMin:  cfg.Sites.DelayMin,
		DelayMax:  cfg.Sites.DelayMax,
		MaxBytes:  cfg.Sites.MaxBytes,
		Logger:    logger,
	})

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "browser-mcp",
		Version: "1.0.0",
	}, nil)

	learnSvc.RegisterMCP(srv)
	store.RegisterMCP(srv)
	siteSvc.RegisterMCP(srv)
	gen.RegisterMCP(srv)
	nlq.RegisterMCP(srv, store)

	logger.Info("mcp: serving on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func exitOn(err error) {
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
