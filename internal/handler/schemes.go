package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arjunrs/paperbank/internal/model"
)

func (h *Handler) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.store.ListSchemes()
	if err != nil {
		slog.Error("list schemes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if schemes == nil {
		schemes = []model.MarkingScheme{}
	}
	writeJSON(w, http.StatusOK, schemes)
}

func (h *Handler) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	t, err := model.ParseQuestionType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scheme, err := h.store.GetScheme(t)
	if err != nil {
		slog.Error("get scheme", "type", t, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if scheme == nil {
		writeError(w, http.StatusNotFound, "no marking scheme configured")
		return
	}
	writeJSON(w, http.StatusOK, scheme)
}

func (h *Handler) handleUpdateScheme(w http.ResponseWriter, r *http.Request) {
	t, err := model.ParseQuestionType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var scheme model.MarkingScheme
	if err := json.NewDecoder(r.Body).Decode(&scheme); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The URL, not the body, names the type being configured.
	scheme.QuestionType = t
	if scheme.TimeSeconds < 0 {
		writeError(w, http.StatusBadRequest, "time_seconds must not be negative")
		return
	}

	if err := h.store.UpsertScheme(scheme); err != nil {
		slog.Error("upsert scheme", "type", t, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, scheme)
}
