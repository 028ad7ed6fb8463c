package db

import (
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools/types"
	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

// ToSnapshotRows flattens a poller snapshot into its table rows.
func ToSnapshotRows(snap poller.Snapshot) (*Snapshot, []*PullRequestSnapshot) {
	head := &Snapshot{
		ID:               snap.ID,
		TakenAt:          snap.TakenAt,
		PullRequestCount: len(snap.PullRequests),
		FailureCount:     len(snap.Failures),
	}
	rows := make([]*PullRequestSnapshot, 0, len(snap.PullRequests))
	for _, pr := range snap.PullRequests {
		rows = append(rows, toPullRequestRow(snap, pr))
	}
	return head, rows
}

func toPullRequestRow(snap poller.Snapshot, pr enrichment.PullRequest) *PullRequestSnapshot {
	row := &PullRequestSnapshot{
		SnapshotID:        snap.ID,
		TakenAt:           snap.TakenAt,
		PullRequestID:     pr.PullRequestID,
		RepositoryID:      pr.Repository.ID,
		RepositoryName:    pr.Repository.Name,
		Title:             pr.Title,
		Author:            pr.CreatedBy.DisplayName,
		IsDraft:           pr.IsDraft,
		BuildStatus:       string(pr.Build),
		ApprovalsReceived: pr.Approvals.Received,
		ApprovalsRequired: pr.Approvals.Required,
		ApprovalsComplete: pr.Approvals.Complete,
		PassRate:          pr.PassRate,
		Comments:          pr.Comments,
		Ready:             pr.Ready,
		Errors:            pr.Errors,
	}
	if created := pr.CreatedAt(); !created.IsZero() {
		row.CreatedAt = &created
	}
	return row
}

func ToHistoryEntry(row PullRequestSnapshot) types.HistoryEntry {
	return types.HistoryEntry{
		SnapshotID: row.SnapshotID.String(),
		TakenAt:    row.TakenAt.UTC().Format(time.RFC3339),
		Title:      row.Title,
		IsDraft:    row.IsDraft,
		Build:      row.BuildStatus,
		Approvals: types.Approvals{
			Received: row.ApprovalsReceived,
			Required: row.ApprovalsRequired,
			Complete: row.ApprovalsComplete,
		},
		PassRate: row.PassRate,
		Comments: row.Comments,
		Ready:    row.Ready,
		Errors:   row.Errors,
	}
}
