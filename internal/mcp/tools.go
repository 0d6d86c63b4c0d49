package mcp

import "github.com/mark3labs/mcp-go/mcp"

// suggestDestinationTool defines the suggest_destination MCP tool.
var suggestDestinationTool = mcp.NewTool("suggest_destination",
	mcp.WithDescription("Suggest a destination folder for a file. Returns the folder, a confidence score, a rationale and the suggestion id to use with record_feedback."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path of the observed file"),
	),
	mcp.WithString("name",
		mcp.Description("File name override; defaults to the base name of path"),
	),
)

// recordFeedbackTool defines the record_feedback MCP tool.
var recordFeedbackTool = mcp.NewTool("record_feedback",
	mcp.WithDescription("Record the user's verdict on an earlier suggestion so future suggestions improve."),
	mcp.WithString("suggestion_id",
		mcp.Required(),
		mcp.Description("ID returned by suggest_destination"),
	),
	mcp.WithBoolean("accepted",
		mcp.Required(),
		mcp.Description("Whether the suggested folder was accepted"),
	),
	mcp.WithString("chosen_folder",
		mcp.Description("Folder the file actually went to, when not accepted"),
	),
)

// engineStatusTool defines the engine_status MCP tool.
var engineStatusTool = mcp.NewTool("engine_status",
	mcp.WithDescription("Report the strongest learned associations, the allow-list size and embedding readiness."),
)

// listAllowlistTool defines the list_allowlist MCP tool.
var listAllowlistTool = mcp.NewTool("list_allowlist",
	mcp.WithDescription("List the destination folders the engine is allowed to suggest."),
)
