package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

// listResponse is empty, never absent, until the first refresh succeeds;
// LastError then says why.
type listResponse struct {
	SnapshotID   string                   `json:"snapshotId,omitempty"`
	TakenAt      *time.Time               `json:"takenAt,omitempty"`
	PullRequests []enrichment.PullRequest `json:"pullRequests"`
	Failures     []enrichment.Failure     `json:"failures"`
	LastError    string                   `json:"lastError,omitempty"`
}

func newListResponse(snap poller.Snapshot, prs []enrichment.PullRequest) listResponse {
	resp := listResponse{
		PullRequests: prs,
		Failures:     snap.Failures,
	}
	if resp.PullRequests == nil {
		resp.PullRequests = []enrichment.PullRequest{}
	}
	if resp.Failures == nil {
		resp.Failures = []enrichment.Failure{}
	}
	if !snap.TakenAt.IsZero() {
		taken := snap.TakenAt
		resp.SnapshotID = snap.ID.String()
		resp.TakenAt = &taken
	}
	return resp
}

type detailResponse struct {
	enrichment.PullRequest
	DescriptionHTML string `json:"descriptionHtml"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
