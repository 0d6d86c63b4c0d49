package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/allowlist"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/engine"
)

// handleSuggestDestination runs the engine for a single file event.
func (s *Server) handleSuggestDestination(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("path must not be empty"), nil
	}

	sg := s.engine.Suggest(ctx, engine.FileEvent{
		Path: path,
		Name: request.GetString("name", ""),
	})

	return jsonResult(sg)
}

// handleRecordFeedback applies an accept or correction verdict to a
// retained suggestion.
func (s *Server) handleRecordFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("suggestion_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: suggestion_id"), nil
	}
	accepted, err := request.RequireBool("accepted")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: accepted"), nil
	}

	ack := s.engine.Feedback(ctx, engine.FeedbackRequest{
		SuggestionID: id,
		Accepted:     accepted,
		ChosenFolder: request.GetString("chosen_folder", ""),
	})
	if ack.Status == engine.StatusUnknownSuggestion {
		return mcp.NewToolResultError(fmt.Sprintf("unknown suggestion id %q; it may have been evicted", id)), nil
	}

	return jsonResult(ack)
}

// handleEngineStatus reports learned associations, allow-list size and
// embedding readiness.
func (s *Server) handleEngineStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Status())
}

// handleListAllowlist returns the configured destination folders.
func (s *Server) handleListAllowlist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := s.engine.AllowlistEntries()
	if entries == nil {
		entries = []allowlist.Entry{}
	}
	return jsonResult(entries)
}

// jsonResult renders v as an indented JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
