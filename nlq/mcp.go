package nlq

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notactuallytreyanastasio/browser-mcp/kit"
	"github.com/notactuallytreyanastasio/browser-mcp/linkstore"
)

const defaultLimit = 50

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// RegisterMCP registers the natural-language query tool on an MCP server.
func RegisterMCP(srv *mcp.Server, store *linkstore.Store) {
	tool := &mcp.Tool{
		Name:        "query_links",
		Description: "Query the link bag with a short natural phrase, e.g. 'unread links tagged go', 'links from hn', 'links about sqlite', 'top links'.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
				"limit": map[string]any{"type": "integer", "description": "Max results, default 50"},
			},
			"required": []string{"query"},
		},
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*queryRequest)
		limit := rr.Limit
		if limit <= 0 {
			limit = defaultLimit
		}
		return Execute(ctx, store, rr.Query, limit)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var rr queryRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &rr); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &rr}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
