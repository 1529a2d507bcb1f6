package handle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"ielts-scorer/api/internal/scoring"
	"ielts-scorer/api/internal/store"
)

type scoreResp struct {
	scoring.Outcome
	EssayID string `json:"essayId,omitempty"`
}

func (h *Handle) Score(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req scoring.ScoreRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Error: "bad json: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Error: err.Error()})
		return
	}
	if !h.opts.APIKeyConfigured {
		writeJSON(w, http.StatusInternalServerError, errResp{Error: "API key not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	out := h.scorer.ScoreEssay(ctx, req)
	if !out.Success {
		h.log.WithError(out.Err).Warn("scoring failed", map[string]interface{}{
			"kind":      string(out.Kind),
			"task_type": req.TaskType,
		})
		writeJSON(w, statusFor(out.Kind), scoreResp{Outcome: out})
		return
	}

	resp := scoreResp{Outcome: out}
	if h.essays != nil {
		id, err := h.essays.CreateWithResult(r.Context(), store.Essay{
			UserID:    userFrom(r.Context()),
			TaskType:  req.TaskType,
			Module:    req.Module,
			Prompt:    req.PromptText,
			Essay:     req.EssayText,
			WordCount: out.WordCount,
		}, *out.Data)
		if err != nil {
			h.log.WithError(err).Error("save essay failed", nil)
			writeJSON(w, http.StatusInternalServerError, errResp{Error: "Failed to save essay"})
			return
		}
		resp.EssayID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// deadline is the configured budget, optionally shortened by X-Request-Timeout or ?timeoutSec=
// (seconds). Larger values are ignored.
func (h *Handle) deadline(r *http.Request) time.Duration {
	d := h.opts.RequestTimeout
	ts := r.Header.Get("X-Request-Timeout")
	if ts == "" {
		ts = r.URL.Query().Get("timeoutSec")
	}
	if v, err := strconv.Atoi(ts); err == nil && v > 0 {
		if dur := time.Duration(v) * time.Second; dur < d {
			d = dur
		}
	}
	return d
}

func statusFor(k scoring.Kind) int {
	switch k {
	case scoring.KindInvalidRequest, scoring.KindTooShort, scoring.KindNotEnglish:
		return http.StatusBadRequest
	case scoring.KindTimeout:
		return http.StatusGatewayTimeout
	case scoring.KindTransport, scoring.KindNoResponse, scoring.KindParse, scoring.KindSchema:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
