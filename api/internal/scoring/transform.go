package scoring

// Transform flattens a validated response into the persisted shape.
func Transform(r ScoringResponse) TransformedScoringData {
	task := r.Scores.TaskAchievementOrResponse.RoundedBand
	cf := r.Feedback.CriterionFeedback

	issues := make([]HighlightedIssue, 0, len(r.Feedback.Highlights))
	for _, h := range r.Feedback.Highlights {
		issues = append(issues, HighlightedIssue{
			Type:        h.Type,
			Text:        h.TextSnippet,
			Explanation: h.IssueExplanation,
			Suggestion:  h.SuggestedCorrection,
		})
	}

	plan := make([]RevisionStep, 0, len(r.Feedback.RevisionPlan))
	for _, p := range r.Feedback.RevisionPlan {
		plan = append(plan, RevisionStep{
			Title:       p.Title,
			Description: p.Description,
			Impact:      p.EstimatedImpact,
		})
	}

	return TransformedScoringData{
		OverallBand: r.Scores.Overall.RoundedBand,
		CriteriaScores: CriteriaScores{
			TaskAchievement:          task,
			TaskResponse:             task,
			CoherenceCohesion:        r.Scores.CoherenceAndCohesion.RoundedBand,
			LexicalResource:          r.Scores.LexicalResource.RoundedBand,
			GrammaticalRangeAccuracy: r.Scores.GrammaticalRangeAndAccuracy.RoundedBand,
		},
		ExecutiveSummary: r.Feedback.SummaryComment,
		CriteriaFeedback: CriteriaFeedback{
			TaskAchievement:          cf.TaskAchievementOrResponse.Comment,
			CoherenceCohesion:        cf.CoherenceAndCohesion.Comment,
			LexicalResource:          cf.LexicalResource.Comment,
			GrammaticalRangeAccuracy: cf.GrammaticalRangeAndAccuracy.Comment,
		},
		HighlightedIssues: issues,
		RevisionPlan:      plan,
		EducatorNotes:     r.NotesForTeacher,
		Issues:            r.Issues,
	}
}
