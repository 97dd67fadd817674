package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arjunrs/paperbank/internal/model"
	"github.com/arjunrs/paperbank/internal/pipeline"
	"github.com/arjunrs/paperbank/internal/store"
)

// PageCounter reports how many pages a PDF has, used as an upload sanity check.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	processor *pipeline.Processor
	pages     PageCounter
	config    model.ServiceConfig
	uploadDir string
}

// New creates a new Handler.
func New(s *store.Store, p *pipeline.Processor, pages PageCounter, cfg model.ServiceConfig, uploadDir string) *Handler {
	return &Handler{store: s, processor: p, pages: pages, config: cfg, uploadDir: uploadDir}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/api/papers", h.handleUploadPaper)
		r.Get("/api/papers", h.handleListPapers)
		r.Get("/api/papers/{paperID}", h.handleGetPaper)
		r.Post("/api/papers/{paperID}/extract", h.handleExtractPaper)
		r.Get("/api/papers/{paperID}/questions", h.handleListQuestions)

		r.Post("/api/questions/{questionID}/accept", h.handleAcceptQuestion)
		r.Post("/api/questions/{questionID}/reject", h.handleRejectQuestion)
		r.Put("/api/questions/{questionID}", h.handleUpdateQuestion)

		r.Get("/api/schemes", h.handleListSchemes)
		r.Get("/api/schemes/{type}", h.handleGetScheme)
		r.Put("/api/schemes/{type}", h.handleUpdateScheme)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
