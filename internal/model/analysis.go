package model

// SkillLevel is the closed rating scale produced by the analysis provider.
type SkillLevel string

const (
	SkillBeginner SkillLevel = "Beginner"
	SkillJunior   SkillLevel = "Junior"
	SkillMidLevel SkillLevel = "Mid-level"
	SkillSenior   SkillLevel = "Senior"
)

// ValidSkillLevel reports whether s is one of the known rating values.
func ValidSkillLevel(s SkillLevel) bool {
	switch s {
	case SkillBeginner, SkillJunior, SkillMidLevel, SkillSenior:
		return true
	}
	return false
}

// RepositoryInfo is the provider's estimate of how the project was built.
type RepositoryInfo struct {
	TeamSize          string `json:"teamSize,omitempty"`
	EstimatedDuration string `json:"estimatedDuration,omitempty"`
	Complexity        string `json:"complexity,omitempty"`
}

// DetailedAssessment carries the provider's free-form reasoning about the
// repository, plus per-dimension quality ratings on a 1-10 scale.
type DetailedAssessment struct {
	Reasoning       string         `json:"reasoning,omitempty"`
	Strengths       []string       `json:"strengths,omitempty"`
	Weaknesses      []string       `json:"weaknesses,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	QualityRatings  map[string]int `json:"qualityRatings,omitempty"`
}

// AnalysisResult is the validated shape of a provider response. Optional
// sections stay nil when the provider omits them; Description, TechStack and
// SkillLevel are required and checked before the result is trusted.
type AnalysisResult struct {
	Description          string              `json:"description"`
	TechStack            []string            `json:"techStack"`
	CategorizedTechStack map[string][]string `json:"categorizedTechStack,omitempty"`
	SkillLevel           SkillLevel          `json:"skillLevel"`
	RepositoryInfo       *RepositoryInfo     `json:"repositoryInfo,omitempty"`
	DetailedAssessment   *DetailedAssessment `json:"detailedAssessment,omitempty"`
}

// TimelineEventType is the closed set of milestone categories.
type TimelineEventType string

const (
	EventFeature      TimelineEventType = "feature"
	EventRefactor     TimelineEventType = "refactor"
	EventArchitecture TimelineEventType = "architecture"
	EventRelease      TimelineEventType = "release"
	EventMilestone    TimelineEventType = "milestone"
)

// ValidTimelineEventType reports whether t is one of the known categories.
func ValidTimelineEventType(t TimelineEventType) bool {
	switch t {
	case EventFeature, EventRefactor, EventArchitecture, EventRelease, EventMilestone:
		return true
	}
	return false
}

// TimelineEvent is one condensed milestone from the commit history.
type TimelineEvent struct {
	Date           string            `json:"date"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Type           TimelineEventType `json:"type"`
	RelatedCommits []string          `json:"relatedCommits,omitempty"`
}
