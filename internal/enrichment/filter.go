package enrichment

import "strings"

// Query narrows and orders a pull-request list for presentation. The zero
// value keeps everything in creation-date order.
type Query struct {
	Repository    string
	ExcludeDrafts bool
	Sort          SortColumn
	Descending    bool
}

// Apply returns a filtered, sorted copy of prs.
func (q Query) Apply(prs []PullRequest) []PullRequest {
	out := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		if q.ExcludeDrafts && pr.IsDraft {
			continue
		}
		if q.Repository != "" && !strings.EqualFold(pr.Repository.Name, q.Repository) {
			continue
		}
		out = append(out, pr)
	}
	if q.Sort == "" {
		return SortByCreationDate(out)
	}
	return SortBy(out, q.Sort, q.Descending)
}

// Find returns the pull request with the given id.
func Find(prs []PullRequest, id int) (PullRequest, bool) {
	for _, pr := range prs {
		if pr.PullRequestID == id {
			return pr, true
		}
	}
	return PullRequest{}, false
}
