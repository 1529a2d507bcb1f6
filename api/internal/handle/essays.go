package handle

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ielts-scorer/api/internal/store"
)

type essaysResp struct {
	Essays []store.EssaySummary `json:"essays"`
}

type essayResp struct {
	Essay store.EssayDetail `json:"essay"`
}

func (h *Handle) ListEssays(w http.ResponseWriter, r *http.Request) {
	if h.essays == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{Error: "Essay history is not available"})
		return
	}
	list, err := h.essays.ListByOwner(r.Context(), userFrom(r.Context()))
	if err != nil {
		h.log.WithError(err).Error("list essays failed", nil)
		writeJSON(w, http.StatusInternalServerError, errResp{Error: "Failed to fetch essays"})
		return
	}
	if list == nil {
		list = []store.EssaySummary{}
	}
	writeJSON(w, http.StatusOK, essaysResp{Essays: list})
}

func (h *Handle) GetEssay(w http.ResponseWriter, r *http.Request) {
	if h.essays == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{Error: "Essay history is not available"})
		return
	}
	e, err := h.essays.FindByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errResp{Error: "Essay not found"})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("fetch essay failed", nil)
		writeJSON(w, http.StatusInternalServerError, errResp{Error: "Failed to fetch essay"})
		return
	}
	if e.UserID != userFrom(r.Context()) {
		writeJSON(w, http.StatusForbidden, errResp{Error: "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, essayResp{Essay: e})
}
