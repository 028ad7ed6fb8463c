package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools"
)

const EndpointPath = "/mcp/jsonrpc"

type Config struct {
	ToolAdapters map[string]ToolAdapter
	Options      []server.StreamableHTTPOption
}

// DefaultConfig wires every dashboard tool to the given services.
func DefaultConfig(prs tools.PullRequestService, history tools.HistoryService) Config {
	return Config{
		ToolAdapters: map[string]ToolAdapter{
			"list_pull_requests":   &tools.ListPullRequestsHandler{Service: prs},
			"get_pull_request":     &tools.GetPullRequestHandler{Service: prs},
			"pull_request_history": &tools.PullRequestHistoryHandler{Service: history},
		},
		Options: []server.StreamableHTTPOption{
			server.WithEndpointPath(EndpointPath),
			server.WithStateLess(true),
		},
	}
}
