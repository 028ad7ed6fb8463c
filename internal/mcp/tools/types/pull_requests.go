package types

type Approvals struct {
	Received int     `json:"received"`
	Required int     `json:"required"`
	Complete float64 `json:"complete"`
}

type PullRequestSummary struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Repository string    `json:"repository"`
	CreatedAt  string    `json:"created_at"`
	IsDraft    bool      `json:"is_draft"`
	Build      string    `json:"build"`
	Approvals  Approvals `json:"approvals"`
	PassRate   float64   `json:"pass_rate"`
	Comments   int       `json:"comments"`
	Ready      bool      `json:"ready"`
	WebURL     string    `json:"web_url"`
	Errors     []string  `json:"errors,omitempty"`
}

type Reviewer struct {
	Name       string `json:"name"`
	Vote       int    `json:"vote"`
	IsRequired bool   `json:"is_required"`
}

type Policy struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	IsBlocking bool     `json:"is_blocking"`
	Build      string   `json:"build,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

type PullRequestDetail struct {
	PullRequestSummary
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"description_html"`
	SourceBranch    string     `json:"source_branch"`
	TargetBranch    string     `json:"target_branch"`
	Reviewers       []Reviewer `json:"reviewers"`
	Policies        []Policy   `json:"policies"`
}

// HistoryEntry is the recorded state of a pull request at one poll.
type HistoryEntry struct {
	SnapshotID string    `json:"snapshot_id"`
	TakenAt    string    `json:"taken_at"`
	Title      string    `json:"title"`
	IsDraft    bool      `json:"is_draft"`
	Build      string    `json:"build"`
	Approvals  Approvals `json:"approvals"`
	PassRate   float64   `json:"pass_rate"`
	Comments   int       `json:"comments"`
	Ready      bool      `json:"ready"`
	Errors     []string  `json:"errors,omitempty"`
}
