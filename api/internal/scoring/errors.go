package scoring

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid scoring request")
	ErrTooShort       = errors.New("essay is too short")
	ErrNotEnglish     = errors.New("essay is not in English")
	ErrNoResponse     = errors.New("no response from model")
	ErrParse          = errors.New("model response is not valid JSON")
	ErrSchema         = errors.New("model response failed schema validation")
)

// User-facing messages.
const (
	msgMissingFields   = "Missing required fields: taskType, module, promptText, essayText"
	msgInvalidTaskType = `taskType must be "task1" or "task2"`
	msgInvalidModule   = `module must be "academic" or "general"`
	msgNotEnglish      = "Essay does not appear to be in English."
	msgNoResponse      = "No response from AI model."
	msgParse           = "Failed to parse AI response as JSON."
	msgSchemaPrefix    = "AI response validation failed: "
	msgTimeout         = "Scoring timed out before the model responded."
	msgInconsistent    = "Model band arithmetic was inconsistent; bands were recomputed from the criterion scores."
)
