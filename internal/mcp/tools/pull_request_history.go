package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/roivaz/azdo-pr-dashboard/internal/db"
)

type PullRequestHistoryHandler struct {
	Service HistoryService
}

func (h *PullRequestHistoryHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := parseIntArgument("id", args["id"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := db.DefaultHistoryLimit
	if rawLimit, ok := args["limit"].(float64); ok && rawLimit > 0 {
		limit = int(rawLimit)
	}
	entries, err := h.Service.PullRequestHistory(ctx, id, limit)
	if errors.Is(err, ErrHistoryDisabled) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(mustMarshal(entries))), nil
}
