package azdo

import "time"

// listEnvelope is the collection wrapper returned by list endpoints.
type listEnvelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

type IdentityRef struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Links       struct {
		Avatar struct {
			Href string `json:"href"`
		} `json:"avatar"`
	} `json:"_links"`
}

// AvatarURL prefers the avatar link and falls back to imageUrl.
func (i IdentityRef) AvatarURL() string {
	if i.Links.Avatar.Href != "" {
		return i.Links.Avatar.Href
	}
	return i.ImageURL
}

// Reviewer votes: 10 approved, 5 approved with suggestions, 0 no vote,
// -5 waiting for author, -10 rejected.
type Reviewer struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
	Vote        int    `json:"vote"`
	IsRequired  bool   `json:"isRequired"`
	HasDeclined bool   `json:"hasDeclined,omitempty"`
}

const (
	VoteApproved                = 10
	VoteApprovedWithSuggestions = 5
	VoteNone                    = 0
	VoteWaitingForAuthor        = -5
	VoteRejected                = -10
)

type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RepositoryRef struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	WebURL  string     `json:"webUrl,omitempty"`
	Project ProjectRef `json:"project"`
}

type CommitRef struct {
	CommitID string `json:"commitId"`
}

// PullRequest mirrors the fields of GitPullRequest the dashboard reads.
// Dates are kept as the raw strings the API sent; callers parse them.
type PullRequest struct {
	PullRequestID         int           `json:"pullRequestId"`
	Title                 string        `json:"title"`
	Description           string        `json:"description"`
	CreatedBy             IdentityRef   `json:"createdBy"`
	CreationDate          string        `json:"creationDate"`
	ClosedDate            string        `json:"closedDate,omitempty"`
	Status                string        `json:"status"`
	IsDraft               bool          `json:"isDraft"`
	MergeStatus           string        `json:"mergeStatus,omitempty"`
	SourceRefName         string        `json:"sourceRefName"`
	TargetRefName         string        `json:"targetRefName"`
	Reviewers             []Reviewer    `json:"reviewers"`
	Repository            RepositoryRef `json:"repository"`
	LastMergeSourceCommit *CommitRef    `json:"lastMergeSourceCommit,omitempty"`
	LastMergeTargetCommit *CommitRef    `json:"lastMergeTargetCommit,omitempty"`
	URL                   string        `json:"url"`
}

// CreatedAt parses CreationDate. Missing or malformed dates yield the zero time.
func (pr PullRequest) CreatedAt() time.Time {
	return ParseTime(pr.CreationDate)
}

// Build is the subset of a build record needed to derive a PR's build state.
type Build struct {
	ID             int64     `json:"id"`
	BuildNumber    string    `json:"buildNumber"`
	Revision       int64     `json:"buildNumberRevision"`
	HasRevision    bool      `json:"-"`
	DefinitionID   int64     `json:"definitionId,omitempty"`
	DefinitionName string    `json:"definitionName,omitempty"`
	Status         string    `json:"status"`
	Result         string    `json:"result,omitempty"`
	FinishTime     time.Time `json:"finishTime,omitempty"`
}

// Identity is the number used to order builds of the same definition:
// buildNumberRevision when the API sent one, otherwise the build id.
func (b Build) Identity() int64 {
	if b.HasRevision {
		return b.Revision
	}
	return b.ID
}

type PolicyStatus string

const (
	PolicyStatusQueued        PolicyStatus = "queued"
	PolicyStatusRunning       PolicyStatus = "running"
	PolicyStatusApproved      PolicyStatus = "approved"
	PolicyStatusRejected      PolicyStatus = "rejected"
	PolicyStatusNotApplicable PolicyStatus = "notApplicable"
	PolicyStatusBroken        PolicyStatus = "broken"
)

type PolicyType struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName"`
}

type PolicyConfiguration struct {
	ID         int        `json:"id,omitempty"`
	IsBlocking bool       `json:"isBlocking"`
	IsEnabled  bool       `json:"isEnabled"`
	Type       PolicyType `json:"type"`
}

type PolicyMessage struct {
	Message string `json:"message"`
}

type BuildOutputPreview struct {
	JobName  string          `json:"jobName"`
	TaskName string          `json:"taskName"`
	Errors   []PolicyMessage `json:"errors"`
}

type PolicyEvaluationContext struct {
	BuildDefinitionName string              `json:"buildDefinitionName,omitempty"`
	BuildID             int                 `json:"buildId,omitempty"`
	BuildOutputPreview  *BuildOutputPreview `json:"buildOutputPreview,omitempty"`
}

type PolicyEvaluationRecord struct {
	EvaluationID  string                   `json:"evaluationId"`
	ArtifactID    string                   `json:"artifactId,omitempty"`
	StartedDate   string                   `json:"startedDate,omitempty"`
	CompletedDate string                   `json:"completedDate,omitempty"`
	Status        PolicyStatus             `json:"status"`
	Configuration PolicyConfiguration      `json:"configuration"`
	Context       *PolicyEvaluationContext `json:"context,omitempty"`
}

type PullRequestThreadContext struct {
	ChangeTrackingID int `json:"changeTrackingId"`
}

type CommentThread struct {
	ID                       int                       `json:"id"`
	Status                   string                    `json:"status,omitempty"`
	IsDeleted                bool                      `json:"isDeleted"`
	PullRequestThreadContext *PullRequestThreadContext `json:"pullRequestThreadContext"`
}

// ParseTime parses an API timestamp. Empty or malformed input yields the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
