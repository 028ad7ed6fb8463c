package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools/types"
)

type ListPullRequestsHandler struct {
	Service PullRequestService
}

func (h *ListPullRequestsHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query := enrichment.Query{}
	query.Repository, _ = args["repository"].(string)
	if include, ok := args["include_drafts"].(bool); ok {
		query.ExcludeDrafts = !include
	}
	if sort, _ := args["sort"].(string); sort != "" {
		column, err := enrichment.ParseSortColumn(sort)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query.Sort = column
		order, _ := args["order"].(string)
		query.Descending = order != "asc"
	}

	prs, err := h.Service.PullRequests(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]types.PullRequestSummary, 0, len(prs))
	for _, pr := range query.Apply(prs) {
		results = append(results, ToSummary(pr))
	}
	return mcp.NewToolResultText(string(mustMarshal(results))), nil
}
