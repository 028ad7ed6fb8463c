package enrichment

import "github.com/roivaz/azdo-pr-dashboard/internal/azdo"

// CalculateApprovals summarises required-reviewer votes. Complete is 0, not 1,
// when the pull request has no required reviewers.
func CalculateApprovals(reviewers []azdo.Reviewer) Approvals {
	var a Approvals
	for _, r := range reviewers {
		if !r.IsRequired {
			continue
		}
		a.Required++
		if r.Vote > 0 {
			a.Received++
		}
	}
	if a.Required > 0 {
		a.Complete = float64(a.Received) / float64(a.Required)
	}
	return a
}

// IsReady reports whether a pull request is mergeable at a glance: builds
// passing, every required reviewer approved and not a draft.
func IsReady(pr PullRequest) bool {
	return pr.Build == BuildPassing && pr.Approvals.Complete == 1 && !pr.IsDraft
}
