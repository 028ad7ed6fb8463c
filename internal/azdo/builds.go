package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

const buildReasonPullRequest = "pullRequest"

// MergeRef is the synthetic ref a pull-request build runs against.
func MergeRef(pullRequestID int) string {
	return fmt.Sprintf("refs/pull/%d/merge", pullRequestID)
}

// ListPullRequestBuilds returns the builds triggered for a pull request's merge ref.
func (c *Client) ListPullRequestBuilds(ctx context.Context, pullRequestID int) ([]Build, error) {
	query := url.Values{}
	query.Set("branchName", MergeRef(pullRequestID))
	query.Set("reasonFilter", buildReasonPullRequest)

	body, err := c.getRaw(ctx, "build/builds", query, c.cfg.APIVersion)
	if err != nil {
		return nil, err
	}
	return parseBuilds(body), nil
}

// parseBuilds reads the build list leniently: definition ids, revisions and
// finish times are all optional and revisions may arrive as strings.
func parseBuilds(body []byte) []Build {
	values := gjson.GetBytes(body, "value").Array()
	builds := make([]Build, 0, len(values))
	for _, v := range values {
		b := Build{
			ID:             v.Get("id").Int(),
			BuildNumber:    v.Get("buildNumber").String(),
			DefinitionName: v.Get("definition.name").String(),
			Status:         v.Get("status").String(),
			Result:         v.Get("result").String(),
			FinishTime:     ParseTime(v.Get("finishTime").String()),
		}
		if def := v.Get("definition.id"); def.Exists() {
			b.DefinitionID = def.Int()
		}
		if rev := v.Get("buildNumberRevision"); rev.Exists() && rev.Type != gjson.Null {
			if n, err := strconv.ParseInt(rev.String(), 10, 64); err == nil {
				b.Revision = n
				b.HasRevision = true
			}
		}
		builds = append(builds, b)
	}
	return builds
}
