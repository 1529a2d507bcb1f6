package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ielts-scorer/api/internal/scoring"
)

type EssayRepo struct{ DB *sqlx.DB }

func NewEssayRepo(db *sqlx.DB) *EssayRepo { return &EssayRepo{DB: db} }

// CreateWithResult stores the essay and its result in one transaction and returns the essay id.
// Empty ID and SubmittedAt are filled in.
func (r *EssayRepo) CreateWithResult(ctx context.Context, e Essay, data scoring.TransformedScoringData) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now().UTC()
	}

	feedback, err := json.Marshal(data.CriteriaFeedback)
	if err != nil {
		return "", fmt.Errorf("encode criteria feedback: %w", err)
	}
	issues, err := json.Marshal(nonNil(data.HighlightedIssues))
	if err != nil {
		return "", fmt.Errorf("encode highlighted issues: %w", err)
	}
	plan, err := json.Marshal(nonNil(data.RevisionPlan))
	if err != nil {
		return "", fmt.Errorf("encode revision plan: %w", err)
	}

	res := resultRow{
		ID:                uuid.NewString(),
		EssayID:           e.ID,
		OverallBand:       data.OverallBand,
		TaskAchievement:   data.CriteriaScores.TaskAchievement,
		CoherenceCohesion: data.CriteriaScores.CoherenceCohesion,
		LexicalResource:   data.CriteriaScores.LexicalResource,
		GrammaticalRange:  data.CriteriaScores.GrammaticalRangeAccuracy,
		ExecutiveSummary:  data.ExecutiveSummary,
		CriteriaFeedback:  feedback,
		HighlightedIssues: issues,
		RevisionPlan:      plan,
		EducatorNotes:     data.EducatorNotes,
		CreatedAt:         e.SubmittedAt,
	}

	err = WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		const qe = `
insert into essays(id, user_id, task_type, module, prompt, essay, word_count, submitted_at)
values (:id, :user_id, :task_type, :module, :prompt, :essay, :word_count, :submitted_at)`
		if _, err := tx.NamedExecContext(ctx, qe, e); err != nil {
			return fmt.Errorf("insert essay: %w", err)
		}
		const qr = `
insert into results(id, essay_id, overall_band, task_achievement, coherence_cohesion, lexical_resource,
                    grammatical_range, executive_summary, criteria_feedback, highlighted_issues,
                    revision_plan, educator_notes, created_at)
values (:id, :essay_id, :overall_band, :task_achievement, :coherence_cohesion, :lexical_resource,
        :grammatical_range, :executive_summary, :criteria_feedback, :highlighted_issues,
        :revision_plan, :educator_notes, :created_at)`
		if _, err := tx.NamedExecContext(ctx, qr, res); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

type summaryRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	TaskType    string          `db:"task_type"`
	Module      string          `db:"module"`
	Prompt      string          `db:"prompt"`
	Essay       string          `db:"essay"`
	WordCount   int             `db:"word_count"`
	SubmittedAt time.Time       `db:"submitted_at"`
	OverallBand sql.NullFloat64 `db:"overall_band"`
}

// ListByOwner returns the owner's essays, newest first.
func (r *EssayRepo) ListByOwner(ctx context.Context, userID string) ([]EssaySummary, error) {
	const q = `
select e.id, e.user_id, e.task_type, e.module, e.prompt, e.essay, e.word_count, e.submitted_at,
       r.overall_band
from essays e
left join results r on r.essay_id = e.id
where e.user_id = $1
order by e.submitted_at desc`
	var rows []summaryRow
	if err := r.DB.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("list essays: %w", err)
	}

	out := make([]EssaySummary, 0, len(rows))
	for _, row := range rows {
		s := EssaySummary{Essay: Essay{
			ID:          row.ID,
			UserID:      row.UserID,
			TaskType:    row.TaskType,
			Module:      row.Module,
			Prompt:      row.Prompt,
			Essay:       row.Essay,
			WordCount:   row.WordCount,
			SubmittedAt: row.SubmittedAt,
		}}
		if row.OverallBand.Valid {
			b := row.OverallBand.Float64
			s.OverallBand = &b
		}
		out = append(out, s)
	}
	return out, nil
}

// FindByID returns the essay with its decoded result, or ErrNotFound. Ids that are not UUIDs
// cannot exist and are reported as not found.
func (r *EssayRepo) FindByID(ctx context.Context, id string) (EssayDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EssayDetail{}, ErrNotFound
	}

	var e Essay
	const qe = `
select id, user_id, task_type, module, prompt, essay, word_count, submitted_at
from essays where id = $1`
	if err := r.DB.GetContext(ctx, &e, qe, id); err != nil {
		return EssayDetail{}, err
	}

	var row resultRow
	const qr = `
select id, essay_id, overall_band, task_achievement, coherence_cohesion, lexical_resource,
       grammatical_range, executive_summary, criteria_feedback, highlighted_issues, revision_plan,
       educator_notes, created_at
from results where essay_id = $1`
	err := r.DB.GetContext(ctx, &row, qr, id)
	if errors.Is(err, sql.ErrNoRows) {
		return EssayDetail{Essay: e}, nil
	}
	if err != nil {
		return EssayDetail{}, fmt.Errorf("load result: %w", err)
	}

	res, err := decodeResult(row)
	if err != nil {
		return EssayDetail{}, err
	}
	return EssayDetail{Essay: e, Result: &res}, nil
}

func decodeResult(row resultRow) (Result, error) {
	res := Result{
		ID:                row.ID,
		EssayID:           row.EssayID,
		OverallBand:       row.OverallBand,
		TaskAchievement:   row.TaskAchievement,
		CoherenceCohesion: row.CoherenceCohesion,
		LexicalResource:   row.LexicalResource,
		GrammaticalRange:  row.GrammaticalRange,
		ExecutiveSummary:  row.ExecutiveSummary,
		EducatorNotes:     row.EducatorNotes,
		CreatedAt:         row.CreatedAt,
	}
	if err := json.Unmarshal(row.CriteriaFeedback, &res.CriteriaFeedback); err != nil {
		return Result{}, fmt.Errorf("decode criteria feedback: %w", err)
	}
	if err := json.Unmarshal(row.HighlightedIssues, &res.HighlightedIssues); err != nil {
		return Result{}, fmt.Errorf("decode highlighted issues: %w", err)
	}
	if err := json.Unmarshal(row.RevisionPlan, &res.RevisionPlan); err != nil {
		return Result{}, fmt.Errorf("decode revision plan: %w", err)
	}
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
