package model

import "time"

// ScanStatus is the lifecycle state of a scan record. Transitions are
// monotonic: queued -> running -> succeeded|failed. A record may be born
// directly in succeeded when a cache hit reuses a prior result.
type ScanStatus string

const (
	ScanQueued    ScanStatus = "queued"
	ScanRunning   ScanStatus = "running"
	ScanSucceeded ScanStatus = "succeeded"
	ScanFailed    ScanStatus = "failed"
)

// Stage is the sub-state a running scan moves through.
type Stage string

const (
	StageCloning    Stage = "cloning"
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageCompleted  Stage = "completed"
)

// Progress describes where a queued or running scan currently is.
// It is cleared once the record reaches a terminal status.
type Progress struct {
	Stage      Stage  `json:"stage"`
	Message    string `json:"message,omitempty"`
	Percentage int    `json:"percentage"`
}

// ScanRecord is the persisted state of one scan request. After creation it is
// mutated only by the orchestrator.
type ScanRecord struct {
	// ID is the opaque unique identifier, assigned at creation, immutable.
	ID string `json:"id"`

	// Normalized repository identity, set at creation.
	RepoURL  string `json:"repoUrl"`
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`

	// CommitHash is the revision captured at submission time; together with
	// RepoURL it forms the cache key for result reuse.
	CommitHash string `json:"commitHash,omitempty"`

	Status   ScanStatus `json:"status"`
	Progress *Progress  `json:"progress,omitempty"`

	// Failure fields, present only when Status == ScanFailed.
	Error     string    `json:"error,omitempty"`
	ErrorCode ErrorCode `json:"errorCode,omitempty"`
	ErrorType ErrorType `json:"errorType,omitempty"`

	// Result fields, populated only on success.
	Description          string              `json:"description,omitempty"`
	TechStack            []string            `json:"techStack,omitempty"`
	CategorizedTechStack map[string][]string `json:"categorizedTechStack,omitempty"`
	SkillLevel           SkillLevel          `json:"skillLevel,omitempty"`
	RepositoryInfo       *RepositoryInfo     `json:"repositoryInfo,omitempty"`
	DetailedAssessment   *DetailedAssessment `json:"detailedAssessment,omitempty"`
	Timeline             []TimelineEvent     `json:"timeline,omitempty"`

	// Identity fields used solely to compute the quota identifier.
	// Never mutated after creation.
	UserID string `json:"userId,omitempty"`
	IP     string `json:"ip,omitempty"`
	IPHash string `json:"ipHash,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// QuotaIdentifier returns the key the quota tracker charges this scan
// against: the authenticated user id, or the hashed client IP.
func (r *ScanRecord) QuotaIdentifier() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.IPHash
}

// Authenticated reports whether the record belongs to a signed-in user.
func (r *ScanRecord) Authenticated() bool { return r.UserID != "" }

// Terminal reports whether the record has reached a final status.
func (r *ScanRecord) Terminal() bool {
	return r.Status == ScanSucceeded || r.Status == ScanFailed
}

// Commit is one entry of a repository's bounded commit log.
type Commit struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Subject string    `json:"subject"`
}
