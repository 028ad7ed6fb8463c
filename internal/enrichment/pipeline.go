package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
)

type Pipeline struct {
	src         Source
	concurrency int
	log         logging.Logger
}

func NewPipeline(src Source, concurrency int, log logging.Logger) *Pipeline {
	return &Pipeline{src: src, concurrency: concurrency, log: log.WithName("enrichment")}
}

// OpenPullRequests lists and enriches the active pull requests. Any top-level
// failure is logged and yields an empty result.
func (p *Pipeline) OpenPullRequests(ctx context.Context) Result {
	res, err := p.Run(ctx)
	if err != nil {
		p.log.Error(err, "fetch pull requests failed")
		return Result{PullRequests: []PullRequest{}, Failures: []Failure{}}
	}
	return res
}

// Run lists the active pull requests and enriches them.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	prs, err := p.src.ListActivePullRequests(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list active pull requests: %w", err)
	}

	res := p.Enrich(ctx, prs)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("enrich pull requests: %w", err)
	}
	p.log.Info("enriched pull requests",
		"count", len(res.PullRequests),
		"failures", len(res.Failures),
		"duration", time.Since(start).String(),
	)
	return res, nil
}

// Enrich computes the derived fields of every pull request. Each PR is
// isolated: a failed sub-request degrades that PR and is listed in Failures,
// the rest of the batch is unaffected. The output is ordered newest first.
func (p *Pipeline) Enrich(ctx context.Context, prs []azdo.PullRequest) Result {
	out := make([]PullRequest, len(prs))
	failures := make([][]Failure, len(prs))

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i := range prs {
		g.Go(func() error {
			out[i], failures[i] = p.enrichOne(ctx, prs[i])
			return nil
		})
	}
	_ = g.Wait()

	res := Result{PullRequests: SortByCreationDate(out), Failures: []Failure{}}
	for _, f := range failures {
		res.Failures = append(res.Failures, f...)
	}
	return res
}

func (p *Pipeline) enrichOne(ctx context.Context, base azdo.PullRequest) (PullRequest, []Failure) {
	pr := newPullRequest(base)
	pr.Approvals = CalculateApprovals(pr.Reviewers)
	pr.WebURL = p.src.PullRequestWebURL(base)

	var (
		wg       sync.WaitGroup
		build    BuildStatus
		policies []azdo.PolicyEvaluationRecord
		comments int
		polErr   error
		comErr   error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		build = ResolveBuildStatus(ctx, p.src, base, p.log)
	}()
	go func() {
		defer wg.Done()
		policies, polErr = ResolvePolicies(ctx, p.src, base.Repository.Project.ID, base.PullRequestID)
	}()
	go func() {
		defer wg.Done()
		comments, comErr = ResolveComments(ctx, p.src, base)
	}()
	wg.Wait()

	var failures []Failure
	pr.Build = build
	if polErr != nil {
		p.log.Error(polErr, "fetch policy evaluations failed", "pr", base.PullRequestID)
		failures = append(failures, Failure{PullRequestID: base.PullRequestID, Stage: StagePolicies, Err: polErr})
	} else {
		pr.Policies = FilterPolicies(policies)
		pr.PassRate = PassRate(pr.Policies)
	}
	if comErr != nil {
		p.log.Error(comErr, "fetch comment threads failed", "pr", base.PullRequestID)
		failures = append(failures, Failure{PullRequestID: base.PullRequestID, Stage: StageComments, Err: comErr})
	} else {
		pr.Comments = comments
	}
	for _, f := range failures {
		pr.Errors = append(pr.Errors, f.Error())
	}
	pr.Ready = IsReady(pr)
	return pr, failures
}
