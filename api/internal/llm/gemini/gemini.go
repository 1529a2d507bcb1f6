package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"ielts-scorer/api/internal/llm"
)

// Engine wraps one long-lived genai client. A GenerativeModel handle is cheap and is created per
// call, so concurrent requests never share mutable generation settings.
type Engine struct {
	model  string
	client *genai.Client
}

// New builds the engine. Extra client options (endpoint, HTTP client) go after the API key.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Engine{model: strings.TrimSpace(model), client: cl}, nil
}

func (e *Engine) Name() string  { return "gemini" }
func (e *Engine) Model() string { return e.model }

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

func (e *Engine) Complete(ctx context.Context, in llm.Request) (string, error) {
	m := e.client.GenerativeModel(e.model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = generationConfig(in)

	system, history, last, err := splitMessages(in.Messages)
	if err != nil {
		return "", err
	}
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", transportError(e.Name(), err)
	}

	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", llm.ErrNoResponse
	}
	return txt, nil
}

func transportError(provider string, err error) *llm.TransportError {
	te := &llm.TransportError{Provider: provider, Message: err.Error(), Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		te.Status = gerr.Code
		if gerr.Message != "" {
			te.Message = gerr.Message
		}
	}
	return te
}

func generationConfig(in llm.Request) genai.GenerationConfig {
	cfg := genai.GenerationConfig{
		Temperature: ptrFloat32(float32(in.Temperature)),
	}
	if in.TopP != nil {
		cfg.TopP = ptrFloat32(float32(*in.TopP))
	}
	if in.MaxTokens > 0 {
		n := int32(in.MaxTokens)
		cfg.MaxOutputTokens = &n
	}
	if in.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// splitMessages maps chat messages onto Gemini's shape: system messages become the system
// instruction, assistant turns become "model" turns, and the final user message is sent.
func splitMessages(msgs []llm.Message) (string, []*genai.Content, string, error) {
	var sys []string
	var turns []llm.Message
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != llm.RoleUser {
		return "", nil, "", errors.New("gemini: conversation must end with a user message")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(sys, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
