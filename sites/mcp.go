package sites

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notactuallytreyanastasio/browser-mcp/kit"
)

// RegisterMCP registers the scraping and clipping tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerScrapeSiteTool(srv)
	s.registerIngestFeedTool(srv)
	s.registerClipLinkTool(srv)
	s.registerApplySavedPatternTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var rr T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &rr); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: &rr}, nil
}

// --- scrape_site ---

type scrapeSiteRequest struct {
	Site string `json:"site"`
}

func (s *Service) registerScrapeSiteTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrape_site",
		Description: "Scrape a known site's front page (hn, reddit) and save its stories into the link bag.",
		InputSchema: inputSchema(map[string]any{
			"site": map[string]any{"type": "string", "description": "Site name: hn or reddit"},
		}, []string{"site"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*scrapeSiteRequest)
		return s.Scrape(ctx, rr.Site)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[scrapeSiteRequest])
}

// --- ingest_feed ---

type ingestFeedRequest struct {
	URL string `json:"url"`
}

func (s *Service) registerIngestFeedTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "ingest_feed",
		Description: "Fetch an RSS/Atom feed and save its entries into the link bag.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Feed URL"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*ingestFeedRequest)
		n, err := s.IngestFeed(ctx, rr.URL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"saved": n}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[ingestFeedRequest])
}

// --- clip_link ---

type clipLinkRequest struct {
	URL string `json:"url"`
}

func (s *Service) registerClipLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clip_link",
		Description: "Fetch a page, convert it to markdown, and attach it as the saved link's note.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*clipLinkRequest)
		md, err := s.Clip(ctx, rr.URL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"markdown": md}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[clipLinkRequest])
}

// --- apply_saved_pattern ---

type applySavedPatternRequest struct {
	PatternID string `json:"pattern_id"`
	URL       string `json:"url"`
}

func (s *Service) registerApplySavedPatternTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "apply_saved_pattern",
		Description: "Apply a persisted extraction pattern to a URL without a browser, returning the extracted records.",
		InputSchema: inputSchema(map[string]any{
			"pattern_id": map[string]any{"type": "string"},
			"url":        map[string]any{"type": "string"},
		}, []string{"pattern_id", "url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*applySavedPatternRequest)
		return s.ApplySavedPattern(ctx, rr.PatternID, rr.URL)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[applySavedPatternRequest])
}
