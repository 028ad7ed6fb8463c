package mcp

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type ToolAdapter interface {
	ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

type Server struct {
	MCP     *server.MCPServer
	HTTP    *server.StreamableHTTPServer
	Handler http.Handler
}

var toolDefinitions = map[string]mcp.Tool{
	"list_pull_requests": mcp.NewTool("list_pull_requests",
		mcp.WithDescription("List the active Azure DevOps pull requests with build status, approvals, policy pass rate and comment counts from the latest poll."),
		mcp.WithString("repository",
			mcp.Description("Optional: only pull requests targeting this repository name"),
		),
		mcp.WithBoolean("include_drafts",
			mcp.Description("Include draft pull requests (default: true)"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort column (default: newest first)"),
			mcp.Enum("id", "title", "author", "repository", "approvals", "build", "created"),
		),
		mcp.WithString("order",
			mcp.Description("Sort direction (default: desc)"),
			mcp.Enum("asc", "desc"),
		),
	),
	"get_pull_request": mcp.NewTool("get_pull_request",
		mcp.WithDescription("Retrieve one active pull request with its reviewers, policy evaluations and rendered description."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The pull request id (e.g., 1234)"),
		),
	),
	"pull_request_history": mcp.NewTool("pull_request_history",
		mcp.WithDescription("Show how a pull request's build status, approvals and pass rate changed across recorded polls, newest first."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The pull request id"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return (default: 20)"),
		),
	),
}

func New(cfg Config) *Server {
	mcpServer := server.NewMCPServer(
		"azdo-pr-dashboard",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	for name, adapter := range cfg.ToolAdapters {
		tool, ok := toolDefinitions[name]
		if !ok {
			continue
		}
		mcpServer.AddTool(tool, adapter.ToolAdapter)
	}

	httpServer := server.NewStreamableHTTPServer(mcpServer, cfg.Options...)

	return &Server{
		MCP:     mcpServer,
		HTTP:    httpServer,
		Handler: httpServer,
	}
}
