package tools

import (
	"context"
	"errors"

	"github.com/roivaz/azdo-pr-dashboard/internal/db"
	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools/types"
	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

// ErrHistoryDisabled is returned when no database is configured.
var ErrHistoryDisabled = errors.New("snapshot history is not enabled")

type PullRequestService interface {
	PullRequests(ctx context.Context) ([]enrichment.PullRequest, error)
}

type HistoryService interface {
	PullRequestHistory(ctx context.Context, pullRequestID, limit int) ([]types.HistoryEntry, error)
}

// LatestSnapshot is the read side of the poller.
type LatestSnapshot interface {
	Latest() (poller.Snapshot, bool)
}

type snapshotService struct {
	source LatestSnapshot
}

func NewSnapshotService(source LatestSnapshot) PullRequestService {
	return &snapshotService{source: source}
}

// PullRequests is empty until the first refresh succeeds.
func (s *snapshotService) PullRequests(context.Context) ([]enrichment.PullRequest, error) {
	snap, _ := s.source.Latest()
	if snap.PullRequests == nil {
		return []enrichment.PullRequest{}, nil
	}
	return snap.PullRequests, nil
}

type dbHistoryService struct {
	repo *db.SnapshotRepository
}

// NewDBHistoryService serves history from repo; a nil repo disables history.
func NewDBHistoryService(repo *db.SnapshotRepository) HistoryService {
	return &dbHistoryService{repo: repo}
}

func (s *dbHistoryService) PullRequestHistory(ctx context.Context, pullRequestID, limit int) ([]types.HistoryEntry, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	rows, err := s.repo.PullRequestHistory(ctx, pullRequestID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]types.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, db.ToHistoryEntry(row))
	}
	return entries, nil
}
