package enrichment

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
)

// Source is the slice of the REST API the pipeline depends on.
type Source interface {
	ListActivePullRequests(ctx context.Context) ([]azdo.PullRequest, error)
	ListPullRequestBuilds(ctx context.Context, pullRequestID int) ([]azdo.Build, error)
	LatestBranchCommitDate(ctx context.Context, repoID, branch string) (time.Time, error)
	ListPolicyEvaluations(ctx context.Context, projectID string, pullRequestID int) ([]azdo.PolicyEvaluationRecord, error)
	ListPullRequestThreads(ctx context.Context, repoID string, pullRequestID int) ([]azdo.CommentThread, error)
	PullRequestWebURL(pr azdo.PullRequest) string
}

type BuildStatus string

const (
	BuildPassing BuildStatus = "passing"
	BuildPending BuildStatus = "pending"
	BuildFailing BuildStatus = "failing"
	BuildExpired BuildStatus = "expired"
	BuildUnknown BuildStatus = "unknown"
)

type Approvals struct {
	Received int     `json:"received"`
	Required int     `json:"required"`
	Complete float64 `json:"complete"`
}

// PullRequest is an API pull request plus the values derived for the dashboard.
// It owns its reviewer slice; nothing is shared with the record it was built from.
type PullRequest struct {
	azdo.PullRequest

	Approvals Approvals                     `json:"approvals"`
	Policies  []azdo.PolicyEvaluationRecord `json:"policies"`
	Comments  int                           `json:"comments"`
	PassRate  float64                       `json:"passRate"`
	Build     BuildStatus                   `json:"build"`
	Ready     bool                          `json:"ready"`
	WebURL    string                        `json:"webUrl,omitempty"`
	Errors    []string                      `json:"errors,omitempty"`
}

// Degraded reports whether one of the PR's sub-requests failed.
func (p PullRequest) Degraded() bool { return len(p.Errors) > 0 }

// Stage names the sub-request that failed for a pull request.
type Stage string

const (
	StagePolicies Stage = "policies"
	StageComments Stage = "comments"
)

// Failure records why a single pull request could not be fully enriched.
type Failure struct {
	PullRequestID int
	Stage         Stage
	Err           error
}

func (f Failure) Error() string {
	return string(f.Stage) + ": " + f.Reason()
}

// Reason is the underlying error text.
func (f Failure) Reason() string {
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}

func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PullRequestID int    `json:"pullRequestId"`
		Stage         Stage  `json:"stage"`
		Reason        string `json:"reason"`
	}{f.PullRequestID, f.Stage, f.Reason()})
}

// Result is the outcome of one enrichment pass.
type Result struct {
	PullRequests []PullRequest
	Failures     []Failure
}

// newPullRequest copies base so later enrichment never writes through to it.
func newPullRequest(base azdo.PullRequest) PullRequest {
	base.Reviewers = slices.Clone(base.Reviewers)
	if base.LastMergeSourceCommit != nil {
		c := *base.LastMergeSourceCommit
		base.LastMergeSourceCommit = &c
	}
	if base.LastMergeTargetCommit != nil {
		c := *base.LastMergeTargetCommit
		base.LastMergeTargetCommit = &c
	}
	return PullRequest{PullRequest: base, Policies: []azdo.PolicyEvaluationRecord{}}
}
