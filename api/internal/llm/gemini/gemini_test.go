package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"ielts-scorer/api/internal/llm"
)

func TestNew_EmptyKey(t *testing.T) {
	_, err := New(context.Background(), "  ", "gemini-2.5-flash")
	assert.EqualError(t, err, "GEMINI_API_KEY is empty")
}

func TestSplitMessages(t *testing.T) {
	sys, history, last, err := splitMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "rubric"},
		{Role: llm.RoleUser, Content: "score this"},
		{Role: llm.RoleAssistant, Content: "{bad json"},
		{Role: llm.RoleUser, Content: "fix it"},
	})
	require.NoError(t, err)
	assert.Equal(t, "rubric", sys)
	assert.Equal(t, "fix it", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, []genai.Part{genai.Text("score this")}, history[0].Parts)
	assert.Equal(t, "model", history[1].Role)
}

func TestSplitMessages_MustEndWithUser(t *testing.T) {
	_, _, _, err := splitMessages([]llm.Message{{Role: llm.RoleSystem, Content: "s"}})
	assert.Error(t, err)

	_, _, _, err = splitMessages([]llm.Message{
		{Role: llm.RoleUser, Content: "u"},
		{Role: llm.RoleAssistant, Content: "a"},
	})
	assert.Error(t, err)
}

func TestGenerationConfig(t *testing.T) {
	cfg := generationConfig(llm.Request{Temperature: 0.3, MaxTokens: 4000, TopP: llm.Float(0.95), JSON: true})
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.95, *cfg.TopP, 1e-6)
	require.NotNil(t, cfg.MaxOutputTokens)
	assert.EqualValues(t, 4000, *cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)

	cfg = generationConfig(llm.Request{})
	assert.Nil(t, cfg.TopP)
	assert.Nil(t, cfg.MaxOutputTokens)
	assert.Empty(t, cfg.ResponseMIMEType)
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":1}`)}}},
	}}
	assert.Equal(t, `{"a":1}`, firstText(resp))
}

// newTestEngine points a real genai client at srv over REST.
func newTestEngine(t *testing.T, srv *httptest.Server) *Engine {
	t.Helper()
	e, err := New(context.Background(), "test-key", "gemini-test",
		option.WithEndpoint(srv.URL), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func scoringRequest() llm.Request {
	return llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "rubric"},
			{Role: llm.RoleUser, Content: "score this"},
		},
		Temperature: 0.2,
		MaxTokens:   4000,
		JSON:        true,
	}
}

func TestComplete_OK(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"candidates":[{"index":0,"content":{"role":"model","parts":[{"text":"{\"ok\":true}"}]},"finishReason":1}]}]`)
	}))
	defer srv.Close()

	out, err := newTestEngine(t, srv).Complete(context.Background(), scoringRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.True(t, strings.HasSuffix(gotPath, "/models/gemini-test:streamGenerateContent"), gotPath)
	require.NotNil(t, gotBody)
	sys, _ := json.Marshal(gotBody["systemInstruction"])
	assert.Contains(t, string(sys), "rubric")
	gen, _ := gotBody["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	contents, _ := gotBody["contents"].([]any)
	assert.Len(t, contents, 1)
}

func TestComplete_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"candidates":[]}]`)
	}))
	defer srv.Close()

	_, err := newTestEngine(t, srv).Complete(context.Background(), scoringRequest())
	assert.ErrorIs(t, err, llm.ErrNoResponse)
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	_, err := newTestEngine(t, srv).Complete(context.Background(), scoringRequest())
	var te *llm.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "gemini", te.Provider)
	assert.Equal(t, http.StatusBadRequest, te.Status)
	assert.Equal(t, "API key not valid", te.Message)
}
