package enrichment

import (
	"context"
	"strings"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
)

// MergeStrategyPolicy is excluded from the dashboard; it never gates review.
const MergeStrategyPolicy = "Require a merge strategy"

// ResolvePolicies fetches every policy evaluation for the pull request.
func ResolvePolicies(ctx context.Context, src Source, projectID string, pullRequestID int) ([]azdo.PolicyEvaluationRecord, error) {
	return src.ListPolicyEvaluations(ctx, projectID, pullRequestID)
}

// FilterPolicies drops the merge-strategy policy. The result is a new slice.
func FilterPolicies(records []azdo.PolicyEvaluationRecord) []azdo.PolicyEvaluationRecord {
	out := make([]azdo.PolicyEvaluationRecord, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(strings.TrimSpace(r.Configuration.Type.DisplayName), MergeStrategyPolicy) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// PassRate is the fraction of policies in the approved state; 0 when empty.
func PassRate(records []azdo.PolicyEvaluationRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	approved := 0
	for _, r := range records {
		if r.Status == azdo.PolicyStatusApproved {
			approved++
		}
	}
	return float64(approved) / float64(len(records))
}
