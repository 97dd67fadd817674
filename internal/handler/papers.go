package handler

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjunrs/paperbank/internal/model"
	"github.com/arjunrs/paperbank/internal/pipeline"
)

func (h *Handler) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF uploads are supported")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		slog.Error("create upload dir", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	path := filepath.Join(h.uploadDir, uuid.New().String()+".pdf")
	dst, err := os.Create(path)
	if err != nil {
		slog.Error("create upload file", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		slog.Error("write upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	dst.Close()

	pageCount, err := h.pages.PageCount(path)
	if err != nil {
		os.Remove(path)
		writeError(w, http.StatusBadRequest, "file is not a readable PDF")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	id, err := h.store.InsertPaper(model.Paper{
		Name:      name,
		FilePath:  path,
		PageCount: pageCount,
	})
	if err != nil {
		os.Remove(path)
		slog.Error("insert paper", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	paper, err := h.store.GetPaper(id)
	if err != nil {
		slog.Error("get paper", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("paper uploaded", "paper_id", id, "name", name, "pages", pageCount)
	writeJSON(w, http.StatusCreated, paper)
}

func (h *Handler) handleListPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := h.store.ListPapers()
	if err != nil {
		slog.Error("list papers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if papers == nil {
		papers = []model.Paper{}
	}
	writeJSON(w, http.StatusOK, papers)
}

func (h *Handler) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	paper, ok := h.paperFromURL(w, r)
	if !ok {
		return
	}
	pages, err := h.store.GetPageResults(paper.ID)
	if err != nil {
		slog.Error("get page results", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paper": paper,
		"pages": pages,
	})
}

// handleExtractPaper runs the extraction pipeline synchronously. Pages are
// processed strictly one after another, so the request returns when the last
// page's retry loop has finished.
func (h *Handler) handleExtractPaper(w http.ResponseWriter, r *http.Request) {
	paper, ok := h.paperFromURL(w, r)
	if !ok {
		return
	}

	total, err := h.processor.Process(r.Context(), paper.ID, h.config.EnabledTypes)
	if errors.Is(err, pipeline.ErrExtractionInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("extraction failed", "paper_id", paper.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"paper_id":  paper.ID,
			"questions": total,
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paper_id":  paper.ID,
		"questions": total,
	})
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	paper, ok := h.paperFromURL(w, r)
	if !ok {
		return
	}

	review := model.ReviewStatus(r.URL.Query().Get("review"))
	switch review {
	case "", model.ReviewPending, model.ReviewAccepted, model.ReviewRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid review filter")
		return
	}

	questions, err := h.store.ListQuestionsByPaper(paper.ID, review)
	if err != nil {
		slog.Error("list questions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) paperFromURL(w http.ResponseWriter, r *http.Request) (model.Paper, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paper ID")
		return model.Paper{}, false
	}
	paper, err := h.store.GetPaper(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "paper not found")
		return model.Paper{}, false
	}
	if err != nil {
		slog.Error("get paper", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return model.Paper{}, false
	}
	return paper, true
}
