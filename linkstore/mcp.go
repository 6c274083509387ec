package linkstore

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notactuallytreyanastasio/browser-mcp/kit"
)

// RegisterMCP registers the link store tools on an MCP server.
func (s *Store) RegisterMCP(srv *mcp.Server) {
	s.registerSaveLinkTool(srv)
	s.registerListLinksTool(srv)
	s.registerSearchLinksTool(srv)
	s.registerTagLinkTool(srv)
	s.registerUntagLinkTool(srv)
	s.registerRateLinkTool(srv)
	s.registerAnnotateLinkTool(srv)
	s.registerFlagLinkTool(srv)
	s.registerListTagsTool(srv)
	s.registerRecentActivityTool(srv)
	s.registerStatsTool(srv)
	s.registerListPatternsTool(srv)
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

// --- save_link ---

type saveLinkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Site  string `json:"site,omitempty"`
	Note  string `json:"note,omitempty"`
}

func (s *Store) registerSaveLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "save_link",
		Description: "Save a link to the bag. Saving an already-stored URL refreshes it and bumps its seen counter.",
		InputSchema: inputSchema(map[string]any{
			"url":   map[string]any{"type": "string"},
			"title": map[string]any{"type": "string"},
			"site":  map[string]any{"type": "string"},
			"note":  map[string]any{"type": "string"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*saveLinkRequest)
		l := &Link{URL: rr.URL, Title: rr.Title, Site: rr.Site, Note: rr.Note}
		if _, err := s.UpsertLink(ctx, l); err != nil {
			return nil, err
		}
		s.LogActivity(ctx, "save", rr.URL, l.ID)
		return s.GetLink(ctx, l.ID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[saveLinkRequest])
}

// --- list_links ---

type listLinksRequest struct {
	Tag     string `json:"tag,omitempty"`
	Site    string `json:"site,omitempty"`
	Starred bool   `json:"starred,omitempty"`
	Unread  bool   `json:"unread,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

func (s *Store) registerListLinksTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_links",
		Description: "List saved links newest-first, optionally filtered by tag, site, starred, or unread.",
		InputSchema: inputSchema(map[string]any{
			"tag":     map[string]any{"type": "string"},
			"site":    map[string]any{"type": "string"},
			"starred": map[string]any{"type": "boolean"},
			"unread":  map[string]any{"type": "boolean"},
			"limit":   map[string]any{"type": "integer", "description": "Max results (default 50)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*listLinksRequest)
		limit := rr.Limit
		if limit <= 0 {
			limit = 50
		}
		return s.ListLinks(ctx, Filter{
			Tag: rr.Tag, Site: rr.Site, Starred: rr.Starred, Unread: rr.Unread, Limit: limit,
		})
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[listLinksRequest])
}

// --- search_links ---

type searchLinksRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Store) registerSearchLinksTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "search_links",
		Description: "Full-text search over link titles and notes.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*searchLinksRequest)
		limit := rr.Limit
		if limit <= 0 {
			limit = 50
		}
		return s.ListLinks(ctx, Filter{Text: rr.Query, Limit: limit})
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[searchLinksRequest])
}

// --- tag_link / untag_link ---

type tagLinkRequest struct {
	LinkID string `json:"link_id"`
	Tag    string `json:"tag"`
}

func (s *Store) registerTagLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tag_link",
		Description: "Attach a tag to a saved link (the tag is created on first use).",
		InputSchema: inputSchema(map[string]any{
			"link_id": map[string]any{"type": "string"},
			"tag":     map[string]any{"type": "string"},
		}, []string{"link_id", "tag"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*tagLinkRequest)
		if err := s.Tag(ctx, rr.LinkID, rr.Tag); err != nil {
			return nil, err
		}
		s.LogActivity(ctx, "tag", rr.Tag, rr.LinkID)
		return s.GetLink(ctx, rr.LinkID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[tagLinkRequest])
}

func (s *Store) registerUntagLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "untag_link",
		Description: "Remove a tag from a saved link.",
		InputSchema: inputSchema(map[string]any{
			"link_id": map[string]any{"type": "string"},
			"tag":     map[string]any{"type": "string"},
		}, []string{"link_id", "tag"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*tagLinkRequest)
		if err := s.Untag(ctx, rr.LinkID, rr.Tag); err != nil {
			return nil, err
		}
		return s.GetLink(ctx, rr.LinkID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[tagLinkRequest])
}

// --- rate_link ---

type rateLinkRequest struct {
	LinkID string `json:"link_id"`
	Score  int    `json:"score"`
}

func (s *Store) registerRateLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "rate_link",
		Description: "Rate a link 0-5.",
		InputSchema: inputSchema(map[string]any{
			"link_id": map[string]any{"type": "string"},
			"score":   map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
		}, []string{"link_id", "score"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*rateLinkRequest)
		if err := s.SetScore(ctx, rr.LinkID, rr.Score); err != nil {
			return nil, err
		}
		s.LogActivity(ctx, "rate", "", rr.LinkID)
		return s.GetLink(ctx, rr.LinkID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[rateLinkRequest])
}

// --- annotate_link ---

type annotateLinkRequest struct {
	LinkID string `json:"link_id"`
	Note   string `json:"note"`
}

func (s *Store) registerAnnotateLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotate_link",
		Description: "Replace the free-text note on a link.",
		InputSchema: inputSchema(map[string]any{
			"link_id": map[string]any{"type": "string"},
			"note":    map[string]any{"type": "string"},
		}, []string{"link_id", "note"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*annotateLinkRequest)
		if err := s.SetNote(ctx, rr.LinkID, rr.Note); err != nil {
			return nil, err
		}
		return s.GetLink(ctx, rr.LinkID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[annotateLinkRequest])
}

// --- flag_link ---

type flagLinkRequest struct {
	LinkID  string `json:"link_id"`
	Read    *bool  `json:"read,omitempty"`
	Starred *bool  `json:"starred,omitempty"`
	Hidden  *bool  `json:"hidden,omitempty"`
}

func (s *Store) registerFlagLinkTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "flag_link",
		Description: "Set read/starred/hidden flags on a link. Omitted flags are left unchanged.",
		InputSchema: inputSchema(map[string]any{
			"link_id": map[string]any{"type": "string"},
			"read":    map[string]any{"type": "boolean"},
			"starred": map[string]any{"type": "boolean"},
			"hidden":  map[string]any{"type": "boolean"},
		}, []string{"link_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*flagLinkRequest)
		if err := s.SetFlags(ctx, rr.LinkID, Flags{Read: rr.Read, Starred: rr.Starred, Hidden: rr.Hidden}); err != nil {
			return nil, err
		}
		return s.GetLink(ctx, rr.LinkID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[flagLinkRequest])
}

// --- list_tags / recent_activity / bag_stats / list_patterns ---

func (s *Store) registerListTagsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_tags",
		Description: "List all tags with usage counts, most used first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.ListTags(ctx)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[struct{}])
}

type limitRequest struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Store) registerRecentActivityTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "recent_activity",
		Description: "Show recent scrape/curation/learning events.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*limitRequest)
		return s.RecentActivity(ctx, rr.Limit)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[limitRequest])
}

func (s *Store) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "bag_stats",
		Description: "Counts of links, starred, unread, tags, and learned patterns.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.GetStats(ctx)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[struct{}])
}

type domainRequest struct {
	Domain string `json:"domain,omitempty"`
}

func (s *Store) registerListPatternsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_saved_patterns",
		Description: "List persisted extraction patterns, optionally filtered by site domain.",
		InputSchema: inputSchema(map[string]any{
			"domain": map[string]any{"type": "string"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*domainRequest)
		return s.ListPatterns(ctx, rr.Domain)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[domainRequest])
}
