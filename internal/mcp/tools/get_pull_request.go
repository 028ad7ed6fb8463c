package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
)

type GetPullRequestHandler struct {
	Service PullRequestService
}

func (h *GetPullRequestHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := parseIntArgument("id", req.GetArguments()["id"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prs, err := h.Service.PullRequests(ctx)
	if err != nil {
		return nil, err
	}
	pr, ok := enrichment.Find(prs, id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("pull request %d is not active", id)), nil
	}
	return mcp.NewToolResultText(string(mustMarshal(ToDetail(pr)))), nil
}
