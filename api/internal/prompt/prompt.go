package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version names the calibration text shipped with the binary. Override directories are laid
// out as <dir>/<Version>/<file>.
const Version = "v1"

const (
	systemFile = "system.txt"
	userFile   = "user.txt"
	schemaFile = "scoring.schema.json"
)

var (
	//go:embed system.txt
	embeddedSystem string
	//go:embed user.txt
	embeddedUser string
	//go:embed scoring.schema.json
	embeddedSchema []byte
)

// Set is one consistent triple of system instructions, user template and response schema.
type Set struct {
	Version      string
	System       string
	UserTemplate string
	Schema       map[string]any
}

// Default returns the embedded set.
func Default() (*Set, error) {
	return Load("")
}

// Load reads each file from dir/<Version>/ when present and non-empty, otherwise falls back to
// the embedded copy.
func Load(dir string) (*Set, error) {
	system := readOverride(dir, systemFile)
	if system == "" {
		system = embeddedSystem
	}
	user := readOverride(dir, userFile)
	if user == "" {
		user = embeddedUser
	}

	raw := []byte(readOverride(dir, schemaFile))
	src := "file"
	if len(raw) == 0 {
		raw = embeddedSchema
		src = "embedded"
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("bad scoring schema (%s): %w", src, err)
	}
	ensureSchemaMeta(schema)

	for _, ph := range placeholders {
		if !strings.Contains(user, ph) {
			return nil, fmt.Errorf("user template is missing placeholder %s", ph)
		}
	}

	return &Set{
		Version:      Version,
		System:       system,
		UserTemplate: user,
		Schema:       schema,
	}, nil
}

func readOverride(dir, name string) string {
	if dir == "" {
		return ""
	}
	p := filepath.Join(dir, Version, name)
	b, err := os.ReadFile(p)
	if err != nil || len(b) == 0 {
		return ""
	}
	return string(b)
}

// Some validators expect $schema to be set.
func ensureSchemaMeta(m map[string]any) {
	if _, ok := m["$schema"]; !ok {
		m["$schema"] = "http://json-schema.org/draft-07/schema#"
	}
}

var placeholders = []string{"{{task_type}}", "{{module}}", "{{prompt_text}}", "{{essay_text}}"}

// BuildUserPrompt fills the user template, replacing the first occurrence of each placeholder
// in order.
func (s *Set) BuildUserPrompt(taskType, module, promptText, essayText string) string {
	out := s.UserTemplate
	for i, v := range []string{taskType, module, promptText, essayText} {
		out = strings.Replace(out, placeholders[i], v, 1)
	}
	return out
}
