package store

import (
	"time"

	"ielts-scorer/api/internal/scoring"
)

type Essay struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	TaskType    string    `db:"task_type" json:"taskType"`
	Module      string    `db:"module" json:"module"`
	Prompt      string    `db:"prompt" json:"prompt"`
	Essay       string    `db:"essay" json:"essay"`
	WordCount   int       `db:"word_count" json:"wordCount"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}

// EssaySummary is a history row; OverallBand is nil when the essay has no result.
type EssaySummary struct {
	Essay
	OverallBand *float64 `db:"overall_band" json:"overallBand"`
}

type resultRow struct {
	ID                string    `db:"id"`
	EssayID           string    `db:"essay_id"`
	OverallBand       float64   `db:"overall_band"`
	TaskAchievement   float64   `db:"task_achievement"`
	CoherenceCohesion float64   `db:"coherence_cohesion"`
	LexicalResource   float64   `db:"lexical_resource"`
	GrammaticalRange  float64   `db:"grammatical_range"`
	ExecutiveSummary  string    `db:"executive_summary"`
	CriteriaFeedback  []byte    `db:"criteria_feedback"`
	HighlightedIssues []byte    `db:"highlighted_issues"`
	RevisionPlan      []byte    `db:"revision_plan"`
	EducatorNotes     string    `db:"educator_notes"`
	CreatedAt         time.Time `db:"created_at"`
}

// Result is a stored result with its feedback collections decoded.
type Result struct {
	ID                string                     `json:"id"`
	EssayID           string                     `json:"essayId"`
	OverallBand       float64                    `json:"overallBand"`
	TaskAchievement   float64                    `json:"taskAchievement"`
	CoherenceCohesion float64                    `json:"coherenceCohesion"`
	LexicalResource   float64                    `json:"lexicalResource"`
	GrammaticalRange  float64                    `json:"grammaticalRange"`
	ExecutiveSummary  string                     `json:"executiveSummary"`
	CriteriaFeedback  scoring.CriteriaFeedback   `json:"criteriaFeedback"`
	HighlightedIssues []scoring.HighlightedIssue `json:"highlightedIssues"`
	RevisionPlan      []scoring.RevisionStep     `json:"revisionPlan"`
	EducatorNotes     string                     `json:"educatorNotes"`
	CreatedAt         time.Time                  `json:"createdAt"`
}

type EssayDetail struct {
	Essay
	Result *Result `json:"result"`
}
