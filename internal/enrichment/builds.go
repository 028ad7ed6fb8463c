package enrichment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
)

// ResolveBuildStatus derives the aggregate build state of a pull request.
// Request failures are logged and reported as BuildUnknown.
func ResolveBuildStatus(ctx context.Context, src Source, pr azdo.PullRequest, log logging.Logger) BuildStatus {
	latestCommit, err := src.LatestBranchCommitDate(ctx, pr.Repository.ID, pr.TargetRefName)
	if err != nil {
		log.Error(err, "fetch latest branch commit failed", "pr", pr.PullRequestID, "branch", pr.TargetRefName)
		return BuildUnknown
	}

	builds, err := src.ListPullRequestBuilds(ctx, pr.PullRequestID)
	if err != nil {
		log.Error(err, "fetch builds failed", "pr", pr.PullRequestID)
		return BuildUnknown
	}

	latest := LatestPerDefinition(builds)
	status := ReduceBuildStatus(latest, latestCommit)
	log.Debug("resolved build status", "pr", pr.PullRequestID, "builds", len(builds), "definitions", len(latest), "status", status)
	return status
}

// DefinitionKey groups builds by definition id, then name.
func DefinitionKey(b azdo.Build) string {
	if b.DefinitionID != 0 {
		return strconv.FormatInt(b.DefinitionID, 10)
	}
	if b.DefinitionName != "" {
		return b.DefinitionName
	}
	return "unknown"
}

// LatestPerDefinition keeps the build with the highest identity for each
// definition, preserving first-seen definition order. Ties keep the earlier build.
func LatestPerDefinition(builds []azdo.Build) []azdo.Build {
	index := make(map[string]int, len(builds))
	latest := make([]azdo.Build, 0, len(builds))
	for _, b := range builds {
		key := DefinitionKey(b)
		i, ok := index[key]
		if !ok {
			index[key] = len(latest)
			latest = append(latest, b)
			continue
		}
		if b.Identity() > latest[i].Identity() {
			latest[i] = b
		}
	}
	return latest
}

// ReduceBuildStatus folds the latest build of each definition into one state.
// Precedence: pending, expired, failing, passing. No builds at all is pending.
// The expiry check needs both the branch commit date and the build finish time.
func ReduceBuildStatus(latest []azdo.Build, latestCommit time.Time) BuildStatus {
	if len(latest) == 0 {
		return BuildPending
	}
	for _, b := range latest {
		if !strings.EqualFold(b.Status, "completed") {
			return BuildPending
		}
	}
	if !latestCommit.IsZero() {
		for _, b := range latest {
			if !b.FinishTime.IsZero() && b.FinishTime.Before(latestCommit) {
				return BuildExpired
			}
		}
	}
	for _, b := range latest {
		if !strings.EqualFold(b.Result, "succeeded") {
			return BuildFailing
		}
	}
	return BuildPassing
}
