package azdo

import (
	"context"
	"fmt"
	"net/url"
)

// CodeReviewArtifactID is the policy artifact identifying a pull request.
func CodeReviewArtifactID(projectID string, pullRequestID int) string {
	return fmt.Sprintf("vstfs:///CodeReview/CodeReviewId/%s/%d", projectID, pullRequestID)
}

// ListPolicyEvaluations returns all policy evaluation records for a pull request.
func (c *Client) ListPolicyEvaluations(ctx context.Context, projectID string, pullRequestID int) ([]PolicyEvaluationRecord, error) {
	query := url.Values{}
	query.Set("artifactId", CodeReviewArtifactID(projectID, pullRequestID))

	var env listEnvelope[PolicyEvaluationRecord]
	if err := c.getJSON(ctx, "policy/evaluations", query, c.cfg.PolicyAPIVersion, &env); err != nil {
		return nil, err
	}
	return env.Value, nil
}
