package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

type SnapshotRepository struct {
	HistoryMax int
	db         *bun.DB
}

// NewSnapshotRepository prunes to the database's configured HistoryMax.
func NewSnapshotRepository(database *Database) *SnapshotRepository {
	return &SnapshotRepository{db: database.Bun(), HistoryMax: database.HistoryMax()}
}

// SaveSnapshot stores a snapshot and its pull requests in one transaction,
// then prunes snapshots beyond HistoryMax (rows cascade).
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snap poller.Snapshot) error {
	head, rows := ToSnapshotRows(snap)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(head).Exec(ctx); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert pull request rows: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.prune(ctx)
}

func (r *SnapshotRepository) prune(ctx context.Context) error {
	if r.HistoryMax <= 0 {
		return nil
	}
	_, err := r.db.NewDelete().
		Model((*Snapshot)(nil)).
		Where("id IN (SELECT id FROM snapshots ORDER BY taken_at DESC OFFSET ?)", r.HistoryMax).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// DefaultHistoryLimit caps history lookups that do not ask for a size.
const DefaultHistoryLimit = 20

// PullRequestHistory returns the recorded states of a pull request, newest first.
func (r *SnapshotRepository) PullRequestHistory(ctx context.Context, pullRequestID, limit int) ([]PullRequestSnapshot, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rows []PullRequestSnapshot
	err := r.db.NewSelect().
		Model(&rows).
		Where("pull_request_id = ?", pullRequestID).
		OrderExpr("taken_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RecentSnapshots lists snapshot headers, newest first.
func (r *SnapshotRepository) RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var snaps []Snapshot
	err := r.db.NewSelect().
		Model(&snaps).
		OrderExpr("taken_at DESC").
		Limit(limit).
		Scan(ctx)
	return snaps, err
}
