package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arjunrs/paperbank/internal/model"
)

func (h *Handler) handleAcceptQuestion(w http.ResponseWriter, r *http.Request) {
	h.setReview(w, r, model.ReviewAccepted)
}

func (h *Handler) handleRejectQuestion(w http.ResponseWriter, r *http.Request) {
	h.setReview(w, r, model.ReviewRejected)
}

func (h *Handler) setReview(w http.ResponseWriter, r *http.Request, review model.ReviewStatus) {
	id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	if err := h.store.SetQuestionReview(id, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		slog.Error("set review", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	q, err := h.store.GetQuestion(id)
	if err != nil {
		slog.Error("get question", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleUpdateQuestion saves an operator edit to an extracted question. Edits
// are held to the same validity invariants as extraction output.
func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question ID")
		return
	}

	var q model.ExtractedQuestion
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(q.QuestionNumber) == "" || strings.TrimSpace(q.QuestionStatement) == "" {
		writeError(w, http.StatusBadRequest, "question number and statement are required")
		return
	}
	t, err := model.ParseQuestionType(string(q.QuestionType))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.QuestionType = t
	if !t.HasOptions() {
		q.Options = nil
	}

	if err := h.store.UpdateQuestion(id, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		slog.Error("update question", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	updated, err := h.store.GetQuestion(id)
	if err != nil {
		slog.Error("get question", "question_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
