package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ielts-scorer/api/internal/logger"
	"ielts-scorer/api/internal/scoring"
	"ielts-scorer/api/internal/store"
)

type Scorer interface {
	ScoreEssay(ctx context.Context, req scoring.ScoreRequest) scoring.Outcome
}

type EssayStore interface {
	CreateWithResult(ctx context.Context, e store.Essay, data scoring.TransformedScoringData) (string, error)
	ListByOwner(ctx context.Context, userID string) ([]store.EssaySummary, error)
	FindByID(ctx context.Context, id string) (store.EssayDetail, error)
}

type Options struct {
	APIToken         string
	RequestTimeout   time.Duration
	APIKeyConfigured bool
	Engine           string
	Model            string
	PromptVersion    string
	// Ping reports database health for /healthz; nil when running without a database.
	Ping func(ctx context.Context) error
}

type Handle struct {
	scorer Scorer
	essays EssayStore
	log    logger.Logger
	opts   Options
}

// New wires the handlers. essays may be nil, in which case results are not persisted and the
// history routes answer 503.
func New(scorer Scorer, essays EssayStore, log logger.Logger, opts Options) *Handle {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	return &Handle{scorer: scorer, essays: essays, log: log, opts: opts}
}

func (h *Handle) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, h.requestLogger, middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/score", h.Status)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(h.opts.APIToken), RequireUser)
		r.Post("/api/score", h.Score)
		r.Get("/api/essays", h.ListEssays)
		r.Get("/api/essays/{id}", h.GetEssay)
	})
	return r
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ping != nil {
		if err := h.opts.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResp struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
	Engine           string `json:"engine,omitempty"`
	Model            string `json:"model,omitempty"`
	PromptVersion    string `json:"promptVersion,omitempty"`
}

func (h *Handle) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResp{
		Status:           "ok",
		Message:          "IELTS Writing Scorer API",
		APIKeyConfigured: h.opts.APIKeyConfigured,
		Engine:           h.opts.Engine,
		Model:            h.opts.Model,
		PromptVersion:    h.opts.PromptVersion,
	})
}

func (h *Handle) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info("http request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

type errResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
