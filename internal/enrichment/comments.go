package enrichment

import (
	"context"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
)

// ResolveComments counts the live code-review threads on a pull request.
func ResolveComments(ctx context.Context, src Source, pr azdo.PullRequest) (int, error) {
	threads, err := src.ListPullRequestThreads(ctx, pr.Repository.ID, pr.PullRequestID)
	if err != nil {
		return 0, err
	}
	return CountCommentThreads(threads), nil
}

// CountCommentThreads skips system/general threads (no PR thread context) and
// soft-deleted threads.
func CountCommentThreads(threads []azdo.CommentThread) int {
	n := 0
	for _, t := range threads {
		if t.PullRequestThreadContext == nil || t.IsDeleted {
			continue
		}
		n++
	}
	return n
}
