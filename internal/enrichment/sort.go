package enrichment

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortByCreationDate returns a new slice ordered newest first. The sort is
// stable and unparseable dates count as the Unix epoch.
func SortByCreationDate(prs []PullRequest) []PullRequest {
	sorted := slices.Clone(prs)
	slices.SortStableFunc(sorted, func(a, b PullRequest) int {
		return creationTime(b).Compare(creationTime(a))
	})
	return sorted
}

func creationTime(pr PullRequest) time.Time {
	t := pr.CreatedAt()
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t
}

type SortColumn string

const (
	SortByID         SortColumn = "id"
	SortByTitle      SortColumn = "title"
	SortByAuthor     SortColumn = "author"
	SortByRepository SortColumn = "repository"
	SortByApprovals  SortColumn = "approvals"
	SortByBuild      SortColumn = "build"
	SortByCreated    SortColumn = "created"
)

// ParseSortColumn validates a user supplied column name.
func ParseSortColumn(s string) (SortColumn, error) {
	c := SortColumn(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case SortByID, SortByTitle, SortByAuthor, SortByRepository, SortByApprovals, SortByBuild, SortByCreated:
		return c, nil
	default:
		return "", fmt.Errorf("unknown sort column %q", s)
	}
}

// SortBy returns a new slice ordered by column. Ties fall back to the pull
// request id in the same direction.
func SortBy(prs []PullRequest, column SortColumn, descending bool) []PullRequest {
	dir := 1
	if descending {
		dir = -1
	}
	sorted := slices.Clone(prs)
	slices.SortStableFunc(sorted, func(a, b PullRequest) int {
		if c := compareColumn(a, b, column); c != 0 {
			return c * dir
		}
		return cmp.Compare(a.PullRequestID, b.PullRequestID) * dir
	})
	return sorted
}

func compareColumn(a, b PullRequest, column SortColumn) int {
	switch column {
	case SortByID:
		return cmp.Compare(a.PullRequestID, b.PullRequestID)
	case SortByTitle:
		return compareFold(a.Title, b.Title)
	case SortByAuthor:
		return compareFold(a.CreatedBy.DisplayName, b.CreatedBy.DisplayName)
	case SortByRepository:
		return compareFold(a.Repository.Name, b.Repository.Name)
	case SortByApprovals:
		return cmp.Compare(a.Approvals.Complete, b.Approvals.Complete)
	case SortByBuild:
		return compareFold(string(a.Build), string(b.Build))
	case SortByCreated:
		return creationTime(a).Compare(creationTime(b))
	default:
		return 0
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
