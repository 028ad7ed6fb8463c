package azdo

import (
	"context"
	"fmt"
	"net/url"
)

// ListActivePullRequests returns every active pull request in the project.
func (c *Client) ListActivePullRequests(ctx context.Context) ([]PullRequest, error) {
	query := url.Values{}
	query.Set("searchCriteria.status", "active")

	var env listEnvelope[PullRequest]
	if err := c.getJSON(ctx, "git/pullrequests", query, c.cfg.APIVersion, &env); err != nil {
		return nil, err
	}
	if env.Value == nil {
		return []PullRequest{}, nil
	}
	return env.Value, nil
}

// ListPullRequestThreads returns the comment threads of a pull request.
func (c *Client) ListPullRequestThreads(ctx context.Context, repoID string, pullRequestID int) ([]CommentThread, error) {
	path := fmt.Sprintf("git/repositories/%s/pullRequests/%d/threads", url.PathEscape(repoID), pullRequestID)

	var env listEnvelope[CommentThread]
	if err := c.getJSON(ctx, path, nil, c.cfg.APIVersion, &env); err != nil {
		return nil, err
	}
	return env.Value, nil
}
