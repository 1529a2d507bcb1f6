package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNoResponse is returned when the provider answered but produced no content.
var ErrNoResponse = errors.New("no response from model")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion. TopP is left to the provider default when nil; JSON asks the
// provider for a single JSON object.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        *float64
	JSON        bool
}

type Engine interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (string, error)
}

// TransportError carries a provider failure (network, auth, quota, 5xx) with the provider's own
// message.
type TransportError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Engines holds the engines built at startup. Either may be nil when unconfigured.
type Engines struct {
	Groq   Engine
	Gemini Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "groq", "openai":
		eng = e.Groq
	case "gemini":
		eng = e.Gemini
	default:
		return nil, fmt.Errorf("unknown llm provider %q; use 'groq' or 'gemini'", name)
	}
	if eng == nil {
		return nil, fmt.Errorf("llm provider %q is not configured", name)
	}
	return eng, nil
}

func Float(v float64) *float64 { return &v }
