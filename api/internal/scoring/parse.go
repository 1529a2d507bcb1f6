package scoring

import (
	"encoding/json"

	"ielts-scorer/api/internal/util"
)

// responseError carries the text that is shown to the caller and fed back to the model on retry.
type responseError struct {
	kind   error
	detail string
}

func (e *responseError) Error() string { return e.kind.Error() + ": " + e.detail }
func (e *responseError) Unwrap() error { return e.kind }

// ParseResponse decodes raw model output and validates it. Failures wrap ErrParse or ErrSchema.
func ParseResponse(raw string, v *Validator) (ScoringResponse, error) {
	clean := util.StripCodeFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return ScoringResponse{}, &responseError{kind: ErrParse, detail: err.Error()}
	}

	problems, err := v.Validate(doc)
	if err != nil {
		return ScoringResponse{}, &responseError{kind: ErrParse, detail: err.Error()}
	}
	if problems != "" {
		return ScoringResponse{}, &responseError{kind: ErrSchema, detail: problems}
	}

	var out ScoringResponse
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return ScoringResponse{}, &responseError{kind: ErrSchema, detail: err.Error()}
	}
	return out, nil
}

// Reconcile enforces the band arithmetic locally: every rounded_band is the half-band rounding of
// its score, and overall is the mean of the four raw criterion scores. It reports whether a band
// changed or the model's overall score was more than 0.01 away from the mean.
func Reconcile(s *Scores) bool {
	changed := false
	criteria := []*BandScore{
		&s.TaskAchievementOrResponse,
		&s.CoherenceAndCohesion,
		&s.LexicalResource,
		&s.GrammaticalRangeAndAccuracy,
	}
	raw := make([]float64, 0, len(criteria))
	for _, c := range criteria {
		if band := RoundHalfBand(c.Score); band != c.RoundedBand {
			c.RoundedBand = band
			changed = true
		}
		raw = append(raw, c.Score)
	}

	// overall always takes the mean; drift inside the tolerance is not reported.
	mean := ClampScore(MeanBand(raw...))
	if diff := s.Overall.Score - mean; diff > 0.01 || diff < -0.01 {
		changed = true
	}
	s.Overall.Score = mean
	if band := RoundHalfBand(mean); band != s.Overall.RoundedBand {
		s.Overall.RoundedBand = band
		changed = true
	}
	return changed
}
