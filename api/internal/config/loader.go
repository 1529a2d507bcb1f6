package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads config.yaml (optional), .env (optional) and the environment, in that order of
// precedence from lowest to highest. The result is meant to be built once at startup.
func Load() (*Config, error) {
	loadEnvFile()
	return load(viper.New(), "")
}

// LoadFromFile is Load with an explicit config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// secondsToDurationHook reads a bare number ("60", 60) as seconds. Strings with a unit
// ("90s", "2m") are left to StringToTimeDurationHookFunc.
func secondsToDurationHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.groq_model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.groq_base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.gemini_model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.retry_temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.request_timeout", 60*time.Second)
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// bindEnv maps the flat variable names used in deployments onto config keys.
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	pairs := map[string]string{
		"port":                "PORT",
		"llm.provider":        "LLM_PROVIDER",
		"llm.groq_api_key":    "GROQ_API_KEY",
		"llm.groq_model":      "GROQ_MODEL",
		"llm.groq_base_url":   "GROQ_BASE_URL",
		"llm.gemini_api_key":  "GEMINI_API_KEY",
		"llm.gemini_model":    "GEMINI_MODEL",
		"llm.request_timeout": "REQUEST_TIMEOUT",
		"database.url":        "DATABASE_URL",
		"auth.api_token":      "API_TOKEN",
		"logging.level":       "LOG_LEVEL",
		"logging.format":      "LOG_FORMAT",
		"logging.output":      "LOG_OUTPUT",
		"prompt.dir":          "PROMPT_DIR",
	}
	for key, env := range pairs {
		_ = v.BindEnv(key, env)
	}
}

func applyDefaults(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "groq"
	}
	cfg.LLM.GroqAPIKey = strings.TrimSpace(cfg.LLM.GroqAPIKey)
	cfg.LLM.GeminiAPIKey = strings.TrimSpace(cfg.LLM.GeminiAPIKey)
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}
	if cfg.LLM.RequestTimeout <= 0 {
		cfg.LLM.RequestTimeout = 60 * time.Second
	}
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
