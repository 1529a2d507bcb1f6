package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ielts-scorer/api/internal/llm"
	"ielts-scorer/api/internal/logger"
	"ielts-scorer/api/internal/metrics"
	"ielts-scorer/api/internal/prompt"
)

// Options are the decoding settings for the first call and for the corrective retry.
type Options struct {
	Temperature      float64
	RetryTemperature float64
	MaxTokens        int
	TopP             float64
}

func DefaultOptions() Options {
	return Options{
		Temperature:      0.2,
		RetryTemperature: 0.3,
		MaxTokens:        4000,
		TopP:             0.95,
	}
}

// RequestError is an input problem reported before any model call.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }
func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

// Validate checks that all four fields are present and the enums are known.
func (r ScoreRequest) Validate() error {
	if strings.TrimSpace(r.TaskType) == "" || strings.TrimSpace(r.Module) == "" ||
		strings.TrimSpace(r.PromptText) == "" || strings.TrimSpace(r.EssayText) == "" {
		return &RequestError{Message: msgMissingFields}
	}
	if r.TaskType != TaskType1 && r.TaskType != TaskType2 {
		return &RequestError{Message: msgInvalidTaskType}
	}
	if r.Module != ModuleAcademic && r.Module != ModuleGeneral {
		return &RequestError{Message: msgInvalidModule}
	}
	return nil
}

// Service runs the scoring pipeline. It holds no per-request state and is shared across requests.
type Service struct {
	engine    llm.Engine
	prompts   *prompt.Set
	validator *Validator
	log       logger.Logger
	opts      Options
}

func NewService(engine llm.Engine, prompts *prompt.Set, log logger.Logger, opts Options) (*Service, error) {
	if engine == nil {
		return nil, errors.New("scoring: engine is nil")
	}
	if prompts == nil {
		return nil, errors.New("scoring: prompt set is nil")
	}
	v, err := NewValidator(prompts.Schema)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		engine:    engine,
		prompts:   prompts,
		validator: v,
		log:       log.With(map[string]interface{}{"engine": engine.Name(), "model": engine.Model()}),
		opts:      opts,
	}, nil
}

func (s *Service) Engine() llm.Engine { return s.engine }

// ScoreEssay never returns a Go error; every failure is folded into the Outcome.
func (s *Service) ScoreEssay(ctx context.Context, req ScoreRequest) (out Outcome) {
	start := time.Now()
	defer func() {
		metrics.ScoringRequests.WithLabelValues(out.Label()).Inc()
		metrics.ScoringDuration.WithLabelValues(s.engine.Name()).Observe(time.Since(start).Seconds())
	}()

	if err := req.Validate(); err != nil {
		return failure(KindInvalidRequest, err.Error(), err)
	}

	clean := Normalize(req.EssayText)
	words := CountWords(clean)
	log := s.log.With(map[string]interface{}{
		"task_type":  req.TaskType,
		"module":     req.Module,
		"word_count": words,
	})

	var warnings []string
	lc := ValidateLength(words, req.TaskType)
	if !lc.Valid {
		log.Info("essay rejected as too short", nil)
		o := failure(KindTooShort, lc.Warning, fmt.Errorf("%w: %d words", ErrTooShort, words))
		o.WordCount = words
		return o
	}
	if lc.Warning != "" {
		log.Info("essay below recommended length", nil)
		warnings = append(warnings, lc.Warning)
	}

	if lang := DetectLanguage(clean); !lang.IsEnglish {
		log.Info("essay rejected by language check", map[string]interface{}{"confidence": lang.Confidence})
		o := failure(KindNotEnglish, msgNotEnglish, fmt.Errorf("%w: confidence %.3f", ErrNotEnglish, lang.Confidence))
		o.WordCount = words
		return o
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: s.prompts.System},
		{Role: llm.RoleUser, Content: s.prompts.BuildUserPrompt(req.TaskType, req.Module, req.PromptText, clean)},
	}

	raw, err := s.complete(ctx, log, 1, llm.Request{
		Messages:    messages,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		TopP:        llm.Float(s.opts.TopP),
		JSON:        true,
	})
	if err != nil {
		o := s.callFailure(ctx, err)
		o.WordCount, o.Attempts = words, 1
		return o
	}

	attempts := 1
	resp, perr := ParseResponse(raw, s.validator)
	if perr != nil {
		var first *responseError
		if !errors.As(perr, &first) {
			first = &responseError{kind: ErrParse, detail: perr.Error()}
		}
		log.Warn("model response rejected, retrying once", map[string]interface{}{
			"attempt": 1,
			"reason":  first.detail,
		})
		metrics.ScoringRetries.Inc()
		attempts = 2

		resp, perr = s.retry(ctx, log, messages, raw, first.detail)
		if perr != nil {
			if ctx.Err() != nil {
				o := failure(KindTimeout, msgTimeout, ctx.Err())
				o.WordCount, o.Attempts = words, attempts
				return o
			}
			log.WithError(perr).Warn("corrective attempt failed", map[string]interface{}{"attempt": 2})
			o := firstAttemptFailure(first)
			o.WordCount, o.Attempts = words, attempts
			return o
		}
	}

	if Reconcile(&resp.Scores) {
		log.Warn("model band arithmetic corrected", nil)
		warnings = append(warnings, msgInconsistent)
	}

	data := Transform(resp)
	log.Info("essay scored", map[string]interface{}{
		"attempt":      attempts,
		"overall_band": data.OverallBand,
	})
	return Outcome{
		Success:   true,
		Data:      &data,
		Warnings:  warnings,
		WordCount: words,
		Attempts:  attempts,
	}
}

// retry replays the conversation with the rejected answer and a correction instruction.
func (s *Service) retry(ctx context.Context, log logger.Logger, base []llm.Message, rejected, problems string) (ScoringResponse, error) {
	msgs := make([]llm.Message, 0, len(base)+2)
	msgs = append(msgs, base...)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleAssistant, Content: rejected},
		llm.Message{Role: llm.RoleUser, Content: correctionMessage(problems)},
	)

	raw, err := s.complete(ctx, log, 2, llm.Request{
		Messages:    msgs,
		Temperature: s.opts.RetryTemperature,
		MaxTokens:   s.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		return ScoringResponse{}, err
	}
	return ParseResponse(raw, s.validator)
}

func correctionMessage(problems string) string {
	return fmt.Sprintf("Your last response had validation errors: %s. Please provide a corrected JSON response that matches the schema exactly.", problems)
}

func (s *Service) complete(ctx context.Context, log logger.Logger, attempt int, req llm.Request) (string, error) {
	log.Debug("calling model", map[string]interface{}{"attempt": attempt, "temperature": req.Temperature})

	raw, err := s.engine.Complete(ctx, req)
	result := "ok"
	switch {
	case errors.Is(err, llm.ErrNoResponse):
		result = "no_response"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	metrics.ModelCalls.WithLabelValues(s.engine.Name(), result).Inc()

	if err != nil {
		log.WithError(err).Warn("model call failed", map[string]interface{}{"attempt": attempt})
	}
	return raw, err
}

func (s *Service) callFailure(ctx context.Context, err error) Outcome {
	var te *llm.TransportError
	switch {
	case errors.Is(err, llm.ErrNoResponse):
		return failure(KindNoResponse, msgNoResponse, fmt.Errorf("%w: %v", ErrNoResponse, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return failure(KindTimeout, msgTimeout, err)
	case errors.As(err, &te):
		return failure(KindTransport, te.Message, err)
	default:
		return failure(KindTransport, err.Error(), err)
	}
}

func firstAttemptFailure(first *responseError) Outcome {
	if errors.Is(first, ErrParse) {
		return failure(KindParse, msgParse, first)
	}
	return failure(KindSchema, msgSchemaPrefix+first.detail, first)
}

func failure(kind Kind, msg string, err error) Outcome {
	return Outcome{Success: false, Error: msg, Kind: kind, Err: err}
}
