package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
)

func testPR(id int, created string, reviewers ...azdo.Reviewer) azdo.PullRequest {
	return azdo.PullRequest{
		PullRequestID: id,
		Title:         "pr",
		CreationDate:  created,
		TargetRefName: "refs/heads/main",
		Reviewers:     reviewers,
		Repository: azdo.RepositoryRef{
			ID:      "repo",
			Name:    "api",
			Project: azdo.ProjectRef{ID: "proj", Name: "Platform"},
		},
	}
}

func newTestPipeline(src Source, concurrency int) *Pipeline {
	return NewPipeline(src, concurrency, logging.New(logr.Discard()))
}

func TestPipelineRunEnrichesAndSorts(t *testing.T) {
	ctx := &azdo.PullRequestThreadContext{}
	src := &fakeSource{
		commitDate: commitAt,
		prs: []azdo.PullRequest{
			testPR(1, "2024-05-01T00:00:00Z",
				azdo.Reviewer{Vote: azdo.VoteApproved, IsRequired: true},
				azdo.Reviewer{Vote: azdo.VoteNone, IsRequired: true},
			),
			testPR(2, "2024-05-03T00:00:00Z", azdo.Reviewer{Vote: azdo.VoteApproved, IsRequired: true}),
			testPR(3, "not a date"),
		},
		builds: map[int][]azdo.Build{
			1: {completedBuild(10, 1, 1, "failed", after)},
			2: {completedBuild(20, 1, 1, "succeeded", after)},
		},
		policies: map[int][]azdo.PolicyEvaluationRecord{
			1: {
				policy(azdo.PolicyStatusApproved, "Build"),
				policy(azdo.PolicyStatusRejected, "Minimum number of reviewers"),
				policy(azdo.PolicyStatusApproved, MergeStrategyPolicy),
			},
			2: {policy(azdo.PolicyStatusApproved, "Build")},
		},
		threads: map[int][]azdo.CommentThread{
			1: {{ID: 1, PullRequestThreadContext: ctx}, {ID: 2}},
		},
	}

	res, err := newTestPipeline(src, 2).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.PullRequests, 3)
	assert.Empty(t, res.Failures)

	ids := []int{res.PullRequests[0].PullRequestID, res.PullRequests[1].PullRequestID, res.PullRequests[2].PullRequestID}
	assert.Equal(t, []int{2, 1, 3}, ids)

	first := res.PullRequests[1]
	assert.Equal(t, Approvals{Received: 1, Required: 2, Complete: 0.5}, first.Approvals)
	assert.Len(t, first.Policies, 2)
	assert.Equal(t, 0.5, first.PassRate)
	assert.Equal(t, 1, first.Comments)
	assert.Equal(t, BuildFailing, first.Build)
	assert.False(t, first.Ready)
	assert.Equal(t, "https://example.test/pr/1", first.WebURL)

	second := res.PullRequests[0]
	assert.Equal(t, BuildPassing, second.Build)
	assert.Equal(t, 1.0, second.PassRate)
	assert.True(t, second.Ready)

	third := res.PullRequests[2]
	assert.Equal(t, BuildPending, third.Build)
	assert.Equal(t, 0.0, third.PassRate)
	assert.NotNil(t, third.Policies)
}

func TestPipelineIsolatesFailingPullRequest(t *testing.T) {
	src := &fakeSource{
		prs: []azdo.PullRequest{
			testPR(1, "2024-05-01T00:00:00Z", azdo.Reviewer{Vote: azdo.VoteApproved, IsRequired: true}),
			testPR(2, "2024-05-02T00:00:00Z"),
		},
		policies:  map[int][]azdo.PolicyEvaluationRecord{2: {policy(azdo.PolicyStatusApproved, "Build")}},
		policyErr: map[int]error{1: errors.New("policy api down")},
		threadErr: map[int]error{1: errors.New("threads api down")},
	}

	res, err := newTestPipeline(src, 0).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.PullRequests, 2)
	require.Len(t, res.Failures, 2)

	degraded := res.PullRequests[1]
	assert.Equal(t, 1, degraded.PullRequestID)
	assert.True(t, degraded.Degraded())
	assert.Len(t, degraded.Errors, 2)
	assert.Equal(t, 1.0, degraded.Approvals.Complete)
	assert.Empty(t, degraded.Policies)

	healthy := res.PullRequests[0]
	assert.False(t, healthy.Degraded())
	assert.Equal(t, 1.0, healthy.PassRate)

	stages := []Stage{res.Failures[0].Stage, res.Failures[1].Stage}
	assert.ElementsMatch(t, []Stage{StagePolicies, StageComments}, stages)
	assert.Equal(t, 1, res.Failures[0].PullRequestID)
}

func TestPipelineListFailure(t *testing.T) {
	src := &fakeSource{listErr: errors.New("unauthorized")}
	p := newTestPipeline(src, 4)

	_, err := p.Run(context.Background())
	assert.Error(t, err)

	res := p.OpenPullRequests(context.Background())
	assert.NotNil(t, res.PullRequests)
	assert.Empty(t, res.PullRequests)
	assert.NotNil(t, res.Failures)
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	input := []azdo.PullRequest{
		testPR(1, "2024-05-01T00:00:00Z", azdo.Reviewer{DisplayName: "kim", Vote: azdo.VoteApproved, IsRequired: true}),
	}
	src := &fakeSource{}

	res := newTestPipeline(src, 1).Enrich(context.Background(), input)
	require.Len(t, res.PullRequests, 1)

	res.PullRequests[0].Reviewers[0].DisplayName = "changed"
	assert.Equal(t, "kim", input[0].Reviewers[0].DisplayName)
}

func TestPipelineRespectsConcurrencyLimit(t *testing.T) {
	var prs []azdo.PullRequest
	for i := 1; i <= 12; i++ {
		prs = append(prs, testPR(i, "2024-05-01T00:00:00Z"))
	}
	src := &fakeSource{prs: prs, delay: 10 * time.Millisecond}

	res := newTestPipeline(src, 3).Enrich(context.Background(), prs)
	assert.Len(t, res.PullRequests, 12)
	assert.LessOrEqual(t, src.maxInFlight, 3)
	assert.GreaterOrEqual(t, src.maxInFlight, 1)
}

func TestPipelineEmptyList(t *testing.T) {
	res, err := newTestPipeline(&fakeSource{prs: []azdo.PullRequest{}}, 4).Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res.PullRequests)
	assert.Empty(t, res.PullRequests)
}
