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

var (
	commitAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	after    = commitAt.Add(time.Hour)
	before   = commitAt.Add(-time.Hour)
)

func TestLatestPerDefinition(t *testing.T) {
	builds := []azdo.Build{
		completedBuild(1, 10, 5, "failed", after),
		completedBuild(2, 12, 5, "succeeded", after),
		completedBuild(3, 11, 5, "failed", after),
		{ID: 4, DefinitionName: "lint", Status: "completed", Result: "failed"},
		{ID: 6, DefinitionName: "lint", Status: "completed", Result: "succeeded"},
		{ID: 7, Status: "inProgress"},
	}

	latest := LatestPerDefinition(builds)
	require.Len(t, latest, 3)
	assert.Equal(t, int64(2), latest[0].ID)
	assert.Equal(t, int64(6), latest[1].ID)
	assert.Equal(t, int64(7), latest[2].ID)
	assert.Equal(t, "unknown", DefinitionKey(latest[2]))
}

func TestLatestPerDefinitionTieKeepsFirst(t *testing.T) {
	builds := []azdo.Build{
		completedBuild(1, 3, 9, "failed", after),
		completedBuild(2, 3, 9, "succeeded", after),
	}
	latest := LatestPerDefinition(builds)
	require.Len(t, latest, 1)
	assert.Equal(t, int64(1), latest[0].ID)
}

func TestReduceBuildStatus(t *testing.T) {
	tests := []struct {
		name   string
		builds []azdo.Build
		commit time.Time
		want   BuildStatus
	}{
		{name: "no builds", want: BuildPending},
		{
			name: "running build wins over passing",
			builds: []azdo.Build{
				completedBuild(1, 1, 1, "succeeded", after),
				{ID: 2, DefinitionID: 2, Status: "inProgress"},
			},
			commit: commitAt,
			want:   BuildPending,
		},
		{
			name: "stale build is expired",
			builds: []azdo.Build{
				completedBuild(1, 1, 1, "succeeded", after),
				completedBuild(2, 1, 2, "failed", before),
			},
			commit: commitAt,
			want:   BuildExpired,
		},
		{
			name:   "failed build",
			builds: []azdo.Build{completedBuild(1, 1, 1, "partiallySucceeded", after)},
			commit: commitAt,
			want:   BuildFailing,
		},
		{
			name:   "case-insensitive passing",
			builds: []azdo.Build{{ID: 1, DefinitionID: 1, Status: "Completed", Result: "SUCCEEDED", FinishTime: after}},
			commit: commitAt,
			want:   BuildPassing,
		},
		{
			name:   "unknown commit date skips expiry",
			builds: []azdo.Build{completedBuild(1, 1, 1, "succeeded", before)},
			want:   BuildPassing,
		},
		{
			name:   "missing finish time skips expiry",
			builds: []azdo.Build{completedBuild(1, 1, 1, "succeeded", time.Time{})},
			commit: commitAt,
			want:   BuildPassing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReduceBuildStatus(tt.builds, tt.commit))
		})
	}
}

func TestResolveBuildStatusNewestOfThreeRevisions(t *testing.T) {
	src := &fakeSource{
		commitDate: commitAt,
		builds: map[int][]azdo.Build{
			42: {
				completedBuild(100, 10, 7, "failed", before),
				completedBuild(101, 11, 7, "failed", before),
				completedBuild(102, 12, 7, "succeeded", after),
			},
		},
	}
	pr := azdo.PullRequest{PullRequestID: 42, TargetRefName: "refs/heads/main"}

	got := ResolveBuildStatus(context.Background(), src, pr, logging.New(logr.Discard()))
	assert.Equal(t, BuildPassing, got)
}

func TestResolveBuildStatusUnknownOnError(t *testing.T) {
	log := logging.New(logr.Discard())
	pr := azdo.PullRequest{PullRequestID: 42}

	src := &fakeSource{commitErr: errors.New("boom")}
	assert.Equal(t, BuildUnknown, ResolveBuildStatus(context.Background(), src, pr, log))

	src = &fakeSource{buildErr: map[int]error{42: errors.New("boom")}}
	assert.Equal(t, BuildUnknown, ResolveBuildStatus(context.Background(), src, pr, log))
}
