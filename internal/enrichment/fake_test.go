package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
)

// fakeSource serves canned responses keyed by pull request id.
type fakeSource struct {
	mu sync.Mutex

	prs        []azdo.PullRequest
	listErr    error
	builds     map[int][]azdo.Build
	buildErr   map[int]error
	commitDate time.Time
	commitErr  error
	policies   map[int][]azdo.PolicyEvaluationRecord
	policyErr  map[int]error
	threads    map[int][]azdo.CommentThread
	threadErr  map[int]error

	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (f *fakeSource) track() func() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func (f *fakeSource) ListActivePullRequests(context.Context) ([]azdo.PullRequest, error) {
	return f.prs, f.listErr
}

func (f *fakeSource) ListPullRequestBuilds(_ context.Context, id int) ([]azdo.Build, error) {
	defer f.track()()
	return f.builds[id], f.buildErr[id]
}

func (f *fakeSource) LatestBranchCommitDate(context.Context, string, string) (time.Time, error) {
	return f.commitDate, f.commitErr
}

func (f *fakeSource) ListPolicyEvaluations(_ context.Context, _ string, id int) ([]azdo.PolicyEvaluationRecord, error) {
	return f.policies[id], f.policyErr[id]
}

func (f *fakeSource) ListPullRequestThreads(_ context.Context, _ string, id int) ([]azdo.CommentThread, error) {
	return f.threads[id], f.threadErr[id]
}

func (f *fakeSource) PullRequestWebURL(pr azdo.PullRequest) string {
	return fmt.Sprintf("https://example.test/pr/%d", pr.PullRequestID)
}

func completedBuild(id, revision, definition int64, result string, finished time.Time) azdo.Build {
	return azdo.Build{
		ID:           id,
		Revision:     revision,
		HasRevision:  true,
		DefinitionID: definition,
		Status:       "completed",
		Result:       result,
		FinishTime:   finished,
	}
}
