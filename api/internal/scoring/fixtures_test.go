package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"ielts-scorer/api/internal/llm"
	"ielts-scorer/api/internal/prompt"
)

// 17 words, 10 of them common function words.
const englishSentence = "The city is growing and the number of people in the area has been rising for years. "

func englishEssay(words int) string {
	n := (words + 16) / 17
	return strings.TrimSpace(strings.Repeat(englishSentence, n))
}

func band(score, rounded float64) map[string]any {
	return map[string]any{"score": score, "rounded_band": rounded}
}

func validDoc() map[string]any {
	highlights := make([]any, 0, 6)
	for i := 0; i < 6; i++ {
		highlights = append(highlights, map[string]any{
			"type":                 "grammar",
			"text_snippet":         "the number of people have been",
			"issue_explanation":    "Subject-verb agreement.",
			"suggested_correction": "the number of people has been",
		})
	}
	return map[string]any{
		"meta": map[string]any{
			"task_type":         "task2",
			"module":            "academic",
			"approx_word_count": 306,
		},
		"scores": map[string]any{
			"task_achievement_or_response":   band(7.0, 7.0),
			"coherence_and_cohesion":         band(7.0, 7.0),
			"lexical_resource":               band(6.5, 6.5),
			"grammatical_range_and_accuracy": band(7.0, 7.0),
			"overall":                        band(6.875, 7.0),
		},
		"feedback": map[string]any{
			"summary_comment": "A clear, well organised response.",
			"criterion_feedback": map[string]any{
				"task_achievement_or_response":   map[string]any{"comment": "All parts addressed."},
				"coherence_and_cohesion":         map[string]any{"comment": "Logical progression."},
				"lexical_resource":               map[string]any{"comment": "Some repetition."},
				"grammatical_range_and_accuracy": map[string]any{"comment": "Frequent error-free sentences."},
			},
			"highlights": highlights,
			"revision_plan": []any{
				map[string]any{"title": "Vary vocabulary", "description": "Use synonyms for 'growing'.", "estimated_impact": "high"},
				map[string]any{"title": "Check agreement", "description": "Review collective nouns.", "estimated_impact": "medium"},
			},
		},
		"issues":            []any{},
		"notes_for_teacher": "Borderline 7.",
	}
}

func mustJSON(t testing.TB, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// mutate applies fn to a fresh valid document and returns it as JSON.
func mutate(t testing.TB, fn func(doc map[string]any)) string {
	doc := validDoc()
	fn(doc)
	return mustJSON(t, doc)
}

func newValidator(t testing.TB) *Validator {
	t.Helper()
	set, err := prompt.Default()
	require.NoError(t, err)
	v, err := NewValidator(set.Schema)
	require.NoError(t, err)
	return v
}

type reply struct {
	text string
	err  error
}

type fakeEngine struct {
	mu      sync.Mutex
	replies []reply
	calls   []llm.Request
	block   bool
}

func (f *fakeEngine) Name() string  { return "fake" }
func (f *fakeEngine) Model() string { return "fake-model" }

func (f *fakeEngine) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.block
	var r reply
	ok := len(f.replies) > 0
	if ok {
		r, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if !ok {
		return "", errors.New("unexpected model call")
	}
	return r.text, r.err
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
