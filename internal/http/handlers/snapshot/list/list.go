// Package list реализует получение списка снимков пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/17marcomoreira-hue/sportswissapp/internal/http/middlewarectx"
	"github.com/17marcomoreira-hue/sportswissapp/internal/http/response"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Service описывает получение списка снимков.
type Service interface {
	List(ctx context.Context, uid string, limit int) ([]models.SnapshotMeta, error)
}

// Handler обрабатывает GET /snapshots.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список снимков
// @Description Возвращает последние снимки пользователя, новые первыми.
// @Tags Snapshots
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Размер списка (1..200, по умолчанию 50)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /snapshots [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.snapshot.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrNotSignedIn)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Error("invalid limit", slog.String("limit", raw), sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = n
	}

	metas, err := h.service.List(r.Context(), p.UID, limit)
	if err != nil {
		log.Error("failed to list snapshots", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count":     len(metas),
		"snapshots": metas,
	}))
}
