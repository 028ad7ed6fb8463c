package tools

import (
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/markdown"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools/types"
)

func ToSummary(pr enrichment.PullRequest) types.PullRequestSummary {
	created := ""
	if t := pr.CreatedAt(); !t.IsZero() {
		created = t.UTC().Format(time.RFC3339)
	}
	return types.PullRequestSummary{
		ID:         pr.PullRequestID,
		Title:      pr.Title,
		Author:     pr.CreatedBy.DisplayName,
		Repository: pr.Repository.Name,
		CreatedAt:  created,
		IsDraft:    pr.IsDraft,
		Build:      string(pr.Build),
		Approvals: types.Approvals{
			Received: pr.Approvals.Received,
			Required: pr.Approvals.Required,
			Complete: pr.Approvals.Complete,
		},
		PassRate: pr.PassRate,
		Comments: pr.Comments,
		Ready:    pr.Ready,
		WebURL:   pr.WebURL,
		Errors:   pr.Errors,
	}
}

func ToDetail(pr enrichment.PullRequest) types.PullRequestDetail {
	detail := types.PullRequestDetail{
		PullRequestSummary: ToSummary(pr),
		Description:        pr.Description,
		DescriptionHTML:    markdown.Render(pr.Description),
		SourceBranch:       pr.SourceRefName,
		TargetBranch:       pr.TargetRefName,
		Reviewers:          make([]types.Reviewer, 0, len(pr.Reviewers)),
		Policies:           make([]types.Policy, 0, len(pr.Policies)),
	}
	for _, r := range pr.Reviewers {
		detail.Reviewers = append(detail.Reviewers, types.Reviewer{
			Name:       r.DisplayName,
			Vote:       r.Vote,
			IsRequired: r.IsRequired,
		})
	}
	for _, p := range pr.Policies {
		policy := types.Policy{
			Name:       p.Configuration.Type.DisplayName,
			Status:     string(p.Status),
			IsBlocking: p.Configuration.IsBlocking,
		}
		if p.Context != nil {
			policy.Build = p.Context.BuildDefinitionName
			if preview := p.Context.BuildOutputPreview; preview != nil {
				for _, e := range preview.Errors {
					policy.Errors = append(policy.Errors, e.Message)
				}
			}
		}
		detail.Policies = append(detail.Policies, policy)
	}
	return detail
}
