package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by Validate when the selected provider has no credential.
var ErrMissingAPIKey = errors.New("model service API key is not configured")

type Config struct {
	Port string `mapstructure:"port"`

	LLM      LLMConfig      `mapstructure:"llm"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"` // "groq" | "gemini"

	GroqAPIKey  string `mapstructure:"groq_api_key"`
	GroqModel   string `mapstructure:"groq_model"`
	GroqBaseURL string `mapstructure:"groq_base_url"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`

	Temperature      float64 `mapstructure:"temperature"`
	RetryTemperature float64 `mapstructure:"retry_temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	TopP             float64 `mapstructure:"top_p"`

	// RequestTimeout bounds one /api/score call, both model attempts included.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

type AuthConfig struct {
	APIToken string `mapstructure:"api_token"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"` // stdout | stderr | file path
}

type PromptConfig struct {
	Dir string `mapstructure:"dir"` // optional override for the embedded prompt files
}

// APIKey returns the credential of the configured provider.
func (c *Config) APIKey() string {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini":
		return c.LLM.GeminiAPIKey
	default:
		return c.LLM.GroqAPIKey
	}
}

// Model returns the model identifier of the configured provider.
func (c *Config) Model() string {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini":
		return c.LLM.GeminiModel
	default:
		return c.LLM.GroqModel
	}
}

// Validate reports configuration that must stop the process before any model call.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "groq", "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider %q is not supported; use groq or gemini", c.LLM.Provider)
	}
	if strings.TrimSpace(c.APIKey()) == "" {
		return fmt.Errorf("%w (provider=%s)", ErrMissingAPIKey, c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	return nil
}
