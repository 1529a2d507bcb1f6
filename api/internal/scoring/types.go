package scoring

const (
	TaskType1 = "task1"
	TaskType2 = "task2"

	ModuleAcademic = "academic"
	ModuleGeneral  = "general"
)

// ScoreRequest is the caller's input; it is not persisted on its own.
type ScoreRequest struct {
	TaskType   string `json:"taskType"`
	Module     string `json:"module"`
	PromptText string `json:"promptText"`
	EssayText  string `json:"essayText"`
}

// BandScore pairs the model's raw score with its half-band rounding.
type BandScore struct {
	Score       float64 `json:"score"`
	RoundedBand float64 `json:"rounded_band"`
}

type Scores struct {
	TaskAchievementOrResponse   BandScore `json:"task_achievement_or_response"`
	CoherenceAndCohesion        BandScore `json:"coherence_and_cohesion"`
	LexicalResource             BandScore `json:"lexical_resource"`
	GrammaticalRangeAndAccuracy BandScore `json:"grammatical_range_and_accuracy"`
	Overall                     BandScore `json:"overall"`
}

type Meta struct {
	TaskType        string  `json:"task_type"`
	Module          string  `json:"module"`
	ApproxWordCount float64 `json:"approx_word_count"`
}

type CriterionComment struct {
	Comment string `json:"comment"`
}

type CriterionFeedback struct {
	TaskAchievementOrResponse   CriterionComment `json:"task_achievement_or_response"`
	CoherenceAndCohesion        CriterionComment `json:"coherence_and_cohesion"`
	LexicalResource             CriterionComment `json:"lexical_resource"`
	GrammaticalRangeAndAccuracy CriterionComment `json:"grammatical_range_and_accuracy"`
}

type Highlight struct {
	Type                string `json:"type"`
	TextSnippet         string `json:"text_snippet"`
	IssueExplanation    string `json:"issue_explanation"`
	SuggestedCorrection string `json:"suggested_correction"`
}

type RevisionPlanItem struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	EstimatedImpact string `json:"estimated_impact"`
}

type Feedback struct {
	SummaryComment    string             `json:"summary_comment"`
	CriterionFeedback CriterionFeedback  `json:"criterion_feedback"`
	Highlights        []Highlight        `json:"highlights"`
	RevisionPlan      []RevisionPlanItem `json:"revision_plan"`
}

// ScoringResponse is the model's structured output after schema validation.
type ScoringResponse struct {
	Meta            Meta     `json:"meta"`
	Scores          Scores   `json:"scores"`
	Feedback        Feedback `json:"feedback"`
	Issues          []string `json:"issues"`
	NotesForTeacher string   `json:"notes_for_teacher"`
}

// CriteriaScores holds rounded bands. TaskAchievement and TaskResponse carry the same value so
// that either task's naming can be read.
type CriteriaScores struct {
	TaskAchievement          float64 `json:"taskAchievement"`
	TaskResponse             float64 `json:"taskResponse"`
	CoherenceCohesion        float64 `json:"coherenceCohesion"`
	LexicalResource          float64 `json:"lexicalResource"`
	GrammaticalRangeAccuracy float64 `json:"grammaticalRangeAccuracy"`
}

type CriteriaFeedback struct {
	TaskAchievement          string `json:"taskAchievement"`
	CoherenceCohesion        string `json:"coherenceCohesion"`
	LexicalResource          string `json:"lexicalResource"`
	GrammaticalRangeAccuracy string `json:"grammaticalRangeAccuracy"`
}

type HighlightedIssue struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion"`
}

type RevisionStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// TransformedScoringData is the persisted and displayed shape of a result.
type TransformedScoringData struct {
	OverallBand       float64            `json:"overallBand"`
	CriteriaScores    CriteriaScores     `json:"criteriaScores"`
	ExecutiveSummary  string             `json:"executiveSummary"`
	CriteriaFeedback  CriteriaFeedback   `json:"criteriaFeedback"`
	HighlightedIssues []HighlightedIssue `json:"highlightedIssues"`
	RevisionPlan      []RevisionStep     `json:"revisionPlan"`
	EducatorNotes     string             `json:"educatorNotes"`
	Issues            []string           `json:"issues,omitempty"`
}

// Kind names the failure bucket of an Outcome.
type Kind string

const (
	KindNone           Kind = ""
	KindInvalidRequest Kind = "invalid_request"
	KindTooShort       Kind = "too_short"
	KindNotEnglish     Kind = "not_english"
	KindTransport      Kind = "transport"
	KindNoResponse     Kind = "no_response"
	KindParse          Kind = "parse"
	KindSchema         Kind = "schema"
	KindTimeout        Kind = "timeout"
)

// Outcome is what ScoreEssay reports. Failures carry a user-facing Error string; Err keeps the
// wrapped sentinel for errors.Is.
type Outcome struct {
	Success  bool                    `json:"success"`
	Data     *TransformedScoringData `json:"data,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`

	Kind      Kind  `json:"-"`
	Err       error `json:"-"`
	WordCount int   `json:"-"`
	Attempts  int   `json:"-"`
}

func (o Outcome) Label() string {
	if o.Success {
		return "success"
	}
	return string(o.Kind)
}
