package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ielts-scorer/api/internal/scoring"
)

func newMockRepo(t *testing.T) (*EssayRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewEssayRepo(sqlx.NewDb(db, "pgx")), mock
}

func sampleData() scoring.TransformedScoringData {
	return scoring.TransformedScoringData{
		OverallBand: 7.0,
		CriteriaScores: scoring.CriteriaScores{
			TaskAchievement:          7.0,
			TaskResponse:             7.0,
			CoherenceCohesion:        7.0,
			LexicalResource:          6.5,
			GrammaticalRangeAccuracy: 7.0,
		},
		ExecutiveSummary: "Clear response.",
		CriteriaFeedback: scoring.CriteriaFeedback{TaskAchievement: "ta", CoherenceCohesion: "cc", LexicalResource: "lr", GrammaticalRangeAccuracy: "gra"},
		HighlightedIssues: []scoring.HighlightedIssue{
			{Type: "grammar", Text: "people has", Explanation: "agreement", Suggestion: "people have"},
		},
		EducatorNotes: "notes",
	}
}

func TestCreateWithResult(t *testing.T) {
	repo, mock := newMockRepo(t)
	submitted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	essay := Essay{
		UserID:      "user-1",
		TaskType:    "task2",
		Module:      "academic",
		Prompt:      "Discuss.",
		Essay:       "Essay text.",
		WordCount:   306,
		SubmittedAt: submitted,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("insert into essays(id, user_id, task_type, module, prompt, essay, word_count, submitted_at)")).
		WithArgs(sqlmock.AnyArg(), "user-1", "task2", "academic", "Discuss.", "Essay text.", 306, submitted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("insert into results(")).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), 7.0, 7.0, 7.0, 6.5, 7.0, "Clear response.",
			[]byte(`{"taskAchievement":"ta","coherenceCohesion":"cc","lexicalResource":"lr","grammaticalRangeAccuracy":"gra"}`),
			[]byte(`[{"type":"grammar","text":"people has","explanation":"agreement","suggestion":"people have"}]`),
			[]byte(`[]`),
			"notes", submitted,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.CreateWithResult(context.Background(), essay, sampleData())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithResult_RollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into essays").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into results").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := repo.CreateWithResult(context.Background(), Essay{ID: uuid.NewString(), UserID: "u"}, sampleData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert result: constraint violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	cols := []string{"id", "user_id", "task_type", "module", "prompt", "essay", "word_count", "submitted_at", "overall_band"}
	mock.ExpectQuery(regexp.QuoteMeta("order by e.submitted_at desc")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("e2", "user-1", "task1", "general", "p2", "t2", 160, newer, 6.5).
			AddRow("e1", "user-1", "task2", "academic", "p1", "t1", 260, older, nil))

	got, err := repo.ListByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	require.NotNil(t, got[0].OverallBand)
	assert.Equal(t, 6.5, *got[0].OverallBand)
	assert.Equal(t, "e1", got[1].ID)
	assert.Nil(t, got[1].OverallBand)
	assert.Equal(t, 260, got[1].WordCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("from essays e").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("from essays where id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "task_type", "module", "prompt", "essay", "word_count", "submitted_at"}).
			AddRow(id, "user-1", "task2", "academic", "p", "text", 300, at))
	mock.ExpectQuery(regexp.QuoteMeta("from results where essay_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "essay_id", "overall_band", "task_achievement", "coherence_cohesion", "lexical_resource",
			"grammatical_range", "executive_summary", "criteria_feedback", "highlighted_issues", "revision_plan",
			"educator_notes", "created_at",
		}).AddRow(
			"r1", id, 7.0, 7.0, 7.0, 6.5, 7.0, "summary",
			[]byte(`{"taskAchievement":"ta","coherenceCohesion":"cc","lexicalResource":"lr","grammaticalRangeAccuracy":"gra"}`),
			[]byte(`[{"type":"grammar","text":"x","explanation":"y","suggestion":"z"}]`),
			[]byte(`[{"title":"t","description":"d","impact":"high"}]`),
			"notes", at,
		))

	got, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	require.NotNil(t, got.Result)
	assert.Equal(t, 6.5, got.Result.LexicalResource)
	assert.Equal(t, "gra", got.Result.CriteriaFeedback.GrammaticalRangeAccuracy)
	assert.Equal(t, []scoring.HighlightedIssue{{Type: "grammar", Text: "x", Explanation: "y", Suggestion: "z"}}, got.Result.HighlightedIssues)
	assert.Equal(t, []scoring.RevisionStep{{Title: "t", Description: "d", Impact: "high"}}, got.Result.RevisionPlan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NoResult(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()

	mock.ExpectQuery("from essays where id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(id, "user-1"))
	mock.ExpectQuery("from results where essay_id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got.Result)
	assert.Equal(t, id, got.ID)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	mock.ExpectQuery("from essays where id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByID_MalformedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
