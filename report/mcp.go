package report

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notactuallytreyanastasio/browser-mcp/kit"
)

type generateRequest struct {
	Report string `json:"report"`
}

// RegisterMCP registers the report tool on an MCP server.
func (g *Generator) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "generate_report",
		Description: "Render a static HTML report from the link bag: bag-of-links (daily digest) or tag-cloud.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"report": map[string]any{"type": "string", "description": "Report name: bag-of-links or tag-cloud"},
			},
			"required": []string{"report"},
		},
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*generateRequest)
		path, err := g.Generate(ctx, rr.Report)
		if err != nil {
			return nil, err
		}
		return map[string]any{"path": path}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var rr generateRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &rr); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &rr}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
