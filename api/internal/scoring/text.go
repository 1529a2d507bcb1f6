package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	MinBand = 0.0
	MaxBand = 9.0

	// languageThreshold is the share of common English words above which text counts as English.
	languageThreshold = 0.05
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// commonEnglishWords is a deliberately small set; see DetectLanguage.
var commonEnglishWords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"have": {}, "has": {}, "been": {}, "to": {}, "of": {},
	"and": {}, "in": {}, "on": {}, "at": {}, "for": {},
}

type lengthPolicy struct {
	hardMin        int
	recommendedMin int
}

var lengthPolicies = map[string]lengthPolicy{
	TaskType1: {hardMin: 80, recommendedMin: 150},
	TaskType2: {hardMin: 150, recommendedMin: 250},
}

// Normalize unifies line endings, squeezes three or more newlines into one blank line and trims.
func Normalize(text string) string {
	// "\r\r\n" leaves a new "\r\n" behind after one pass
	for strings.Contains(text, "\r\n") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

type LengthCheck struct {
	Valid   bool
	Warning string
}

// ValidateLength applies the per-task hard minimum and recommended minimum. Unknown task types
// use the task2 policy.
func ValidateLength(wordCount int, taskType string) LengthCheck {
	p, ok := lengthPolicies[taskType]
	if !ok {
		p = lengthPolicies[TaskType2]
	}
	switch {
	case wordCount < p.hardMin:
		return LengthCheck{
			Valid:   false,
			Warning: fmt.Sprintf("Essay is too short (%d words). Minimum expected: %d words.", wordCount, p.recommendedMin),
		}
	case wordCount < p.recommendedMin:
		return LengthCheck{
			Valid:   true,
			Warning: fmt.Sprintf("Essay is below recommended length (%d words). Expected: %d+ words.", wordCount, p.recommendedMin),
		}
	default:
		return LengthCheck{Valid: true}
	}
}

type LanguageCheck struct {
	IsEnglish  bool
	Confidence float64
}

// DetectLanguage is a coarse function-word heuristic. Punctuation attached to a token prevents a
// match, and short English texts without function words are misjudged.
func DetectLanguage(text string) LanguageCheck {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return LanguageCheck{}
	}
	hits := 0
	for _, tok := range tokens {
		if _, ok := commonEnglishWords[tok]; ok {
			hits++
		}
	}
	conf := float64(hits) / float64(len(tokens))
	return LanguageCheck{IsEnglish: conf > languageThreshold, Confidence: conf}
}

// RoundHalfBand snaps to the nearest 0.5 with halves rounding up: x.25 -> x.5, x.75 -> x+1.
func RoundHalfBand(score float64) float64 {
	return math.Floor(score*2+0.5) / 2
}

func ClampScore(score float64) float64 {
	return math.Max(MinBand, math.Min(MaxBand, score))
}

// MeanBand is the arithmetic mean of raw scores; rounding is left to the caller.
func MeanBand(scores ...float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
