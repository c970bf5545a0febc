package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/pendohq/pendo-assistant/internal/logger/sl"
	"github.com/pendohq/pendo-assistant/internal/resume"
	"github.com/pendohq/pendo-assistant/internal/transport/httpapi"
)

type Handler struct {
	processor *resume.Processor
	log       *slog.Logger
}

func New(processor *resume.Processor, log *slog.Logger) *Handler {
	return &Handler{processor: processor, log: log}
}

// Check is GET /api/resume/check/{userId}.
func (h *Handler) Check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resume.Check"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := chi.URLParam(r, "userId")

		has, err := h.processor.HasResume(r.Context(), userID)
		if err != nil {
			log.Error("failed to check resume", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, resume.CheckResponse{HasResume: has})
	}
}

// Download is GET /api/resume/download/{userId}: a presigned URL for the
// latest raw file.
func (h *Handler) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resume.Download"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := chi.URLParam(r, "userId")

		url, err := h.processor.DownloadURL(r.Context(), userID)
		if err != nil {
			log.Error("failed to presign resume download", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, resume.DownloadResponse{URL: url})
	}
}

// Search is GET /api/resume/search?query=&user_id=&limit=.
func (h *Handler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resume.Search"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		query := r.URL.Query().Get("query")
		userID := r.URL.Query().Get("user_id")

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err == nil && n > 0 {
				limit = n
			}
		}

		results, err := h.processor.Search(r.Context(), query, userID, limit)
		if err != nil {
			log.Error("failed to search resume", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, resume.SearchResponse{Results: results})
	}
}
