package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// LatestBranchCommitDate returns the committer date of the newest commit on
// branch. A missing date yields the zero time without error.
func (c *Client) LatestBranchCommitDate(ctx context.Context, repoID, branch string) (time.Time, error) {
	query := url.Values{}
	query.Set("name", strings.TrimPrefix(branch, "refs/heads/"))
	query.Set("$top", "1")

	path := fmt.Sprintf("git/repositories/%s/stats/branches", url.PathEscape(repoID))
	body, err := c.getRaw(ctx, path, query, c.cfg.APIVersion)
	if err != nil {
		return time.Time{}, err
	}
	return ParseTime(gjson.GetBytes(body, "commit.committer.date").String()), nil
}
