package learn

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notactuallytreyanastasio/browser-mcp/kit"
)

// RegisterMCP registers the learning-mode tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerStartSessionTool(srv)
	s.registerRecordClickTool(srv)
	s.registerRecordExtractionTool(srv)
	s.registerAnalyzeSessionTool(srv)
	s.registerListSessionsTool(srv)
	s.registerEndSessionTool(srv)
	s.registerValidatePatternTool(srv)
	s.registerApplyPatternTool(srv)
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

// --- learn_start_session ---

type startSessionRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Service) registerStartSessionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_start_session",
		Description: "Start a learning session: navigate to a URL and begin recording interactions that teach extraction patterns for that site.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Human name for the session"},
			"url":  map[string]any{"type": "string", "description": "Page to learn from"},
		}, []string{"name", "url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*startSessionRequest)
		return s.StartSession(ctx, rr.Name, rr.URL)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[startSessionRequest])
}

// --- learn_record_click ---

type recordClickRequest struct {
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
}

func (s *Service) registerRecordClickTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_record_click",
		Description: "Click the element matching a free-text description and record the interaction in the session.",
		InputSchema: inputSchema(map[string]any{
			"session_id":  map[string]any{"type": "string"},
			"description": map[string]any{"type": "string", "description": "Description of the element to click (visible text, name, or role keyword)"},
		}, []string{"session_id", "description"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*recordClickRequest)
		return s.RecordClick(ctx, rr.SessionID, rr.Description)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[recordClickRequest])
}

// --- learn_record_extraction ---

type recordExtractionRequest struct {
	SessionID   string `json:"session_id"`
	Field       string `json:"field"`
	Description string `json:"description"`
}

func (s *Service) registerRecordExtractionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_record_extraction",
		Description: "Tag every element matching a description as a training example for a named field. One call can seed many examples from a listing page.",
		InputSchema: inputSchema(map[string]any{
			"session_id":  map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string", "description": "Field name the examples teach (e.g. title, post_url, vote_score)"},
			"description": map[string]any{"type": "string"},
		}, []string{"session_id", "field", "description"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*recordExtractionRequest)
		n, err := s.RecordExtraction(ctx, rr.SessionID, rr.Field, rr.Description)
		if err != nil {
			return nil, err
		}
		return map[string]any{"examples": n}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[recordExtractionRequest])
}

// --- learn_analyze_session ---

type sessionIDRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Service) registerAnalyzeSessionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_analyze_session",
		Description: "Synthesize extraction patterns from the session's recorded examples, validate them against the session page, and persist them.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string"},
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*sessionIDRequest)
		return s.AnalyzeSession(ctx, rr.SessionID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[sessionIDRequest])
}

// --- learn_list_sessions ---

func (s *Service) registerListSessionsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_list_sessions",
		Description: "List all learning sessions in this process, oldest first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.ActiveSessions(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[struct{}])
}

// --- learn_end_session ---

func (s *Service) registerEndSessionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_end_session",
		Description: "End a learning session. A still-recording session gets a final analysis pass before removal.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string"},
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*sessionIDRequest)
		if err := s.EndSession(ctx, rr.SessionID); err != nil {
			return nil, err
		}
		return map[string]any{"ended": rr.SessionID}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[sessionIDRequest])
}

// --- learn_validate_pattern ---

type patternURLRequest struct {
	PatternID string `json:"pattern_id"`
	URL       string `json:"url"`
}

func (s *Service) registerValidatePatternTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_validate_pattern",
		Description: "Re-test a learned pattern against a URL and update its confidence score.",
		InputSchema: inputSchema(map[string]any{
			"pattern_id": map[string]any{"type": "string"},
			"url":        map[string]any{"type": "string", "description": "Page to validate against (may differ from the page the pattern was learned on)"},
		}, []string{"pattern_id", "url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*patternURLRequest)
		return s.ValidatePattern(ctx, rr.PatternID, rr.URL)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[patternURLRequest])
}

// --- learn_apply_pattern ---

func (s *Service) registerApplyPatternTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_apply_pattern",
		Description: "Apply a learned pattern to a URL and return the extracted field/value records.",
		InputSchema: inputSchema(map[string]any{
			"pattern_id": map[string]any{"type": "string"},
			"url":        map[string]any{"type": "string"},
		}, []string{"pattern_id", "url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*patternURLRequest)
		return s.ApplyPattern(ctx, rr.PatternID, rr.URL)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[patternURLRequest])
}

// --- learn_list_patterns ---

func (s *Service) registerListPatternsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "learn_list_patterns",
		Description: "List all patterns in the in-memory registry with their confidence scores.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.Patterns(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[struct{}])
}
