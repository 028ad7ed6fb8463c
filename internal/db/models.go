package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Snapshot is one successful poll of the active pull requests.
type Snapshot struct {
	bun.BaseModel `bun:"table:snapshots"`

	ID               uuid.UUID `bun:"id,pk,type:uuid"`
	TakenAt          time.Time `bun:"taken_at"`
	PullRequestCount int       `bun:"pull_request_count"`
	FailureCount     int       `bun:"failure_count"`
}

// PullRequestSnapshot is the state of one pull request within a snapshot.
type PullRequestSnapshot struct {
	bun.BaseModel `bun:"table:pull_request_snapshots"`

	ID                int64      `bun:"id,pk,autoincrement"`
	SnapshotID        uuid.UUID  `bun:"snapshot_id,type:uuid"`
	TakenAt           time.Time  `bun:"taken_at"`
	PullRequestID     int        `bun:"pull_request_id"`
	RepositoryID      string     `bun:"repository_id"`
	RepositoryName    string     `bun:"repository_name"`
	Title             string     `bun:"title"`
	Author            string     `bun:"author"`
	CreatedAt         *time.Time `bun:"created_at"`
	IsDraft           bool       `bun:"is_draft"`
	BuildStatus       string     `bun:"build_status"`
	ApprovalsReceived int        `bun:"approvals_received"`
	ApprovalsRequired int        `bun:"approvals_required"`
	ApprovalsComplete float64    `bun:"approvals_complete"`
	PassRate          float64    `bun:"pass_rate"`
	Comments          int        `bun:"comments"`
	Ready             bool       `bun:"ready"`
	Errors            []string   `bun:"errors,array"`
}
